package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rgehrsitz/corpusplan/internal/domain"
)

// HTTPStore persists through the backend's user-data endpoints.
type HTTPStore struct {
	baseURL string
	http    *http.Client
}

// NewHTTPStore creates a store rooted at baseURL.
func NewHTTPStore(baseURL string, timeout time.Duration) *HTTPStore {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Load fetches GET /user-data/{username}. A 404 or an empty object means
// nothing is stored.
func (s *HTTPStore) Load(ctx context.Context, username string) (*domain.UserProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/user-data/"+url.PathEscape(username), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	data, status, err := s.do(req)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if status < 200 || status > 299 {
		return nil, fmt.Errorf("load user data: backend returned %d", status)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || string(trimmed) == "null" || string(trimmed) == "{}" {
		return nil, ErrNotFound
	}
	profile, err := domain.ParseUserData(trimmed)
	if err != nil {
		return nil, err
	}
	if profile.Username == "" {
		profile.Username = username
	}
	return profile, nil
}

// Save posts {username, data} to /user-data/save.
func (s *HTTPStore) Save(ctx context.Context, profile *domain.UserProfile) error {
	ok, err := checkSave(profile)
	if !ok {
		return err
	}

	body, err := json.Marshal(map[string]any{
		"username": profile.Username,
		"data":     profile.WireMap(),
	})
	if err != nil {
		return fmt.Errorf("encode user data: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/user-data/save", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	_, status, err := s.do(req)
	if err != nil {
		return err
	}
	if status < 200 || status > 299 {
		return fmt.Errorf("save user data: backend returned %d", status)
	}
	return nil
}

func (s *HTTPStore) do(req *http.Request) ([]byte, int, error) {
	resp, err := s.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("read response body: %w", err)
	}
	return data, resp.StatusCode, nil
}
