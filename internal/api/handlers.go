package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/rgehrsitz/corpusplan/internal/allocation"
	"github.com/rgehrsitz/corpusplan/internal/domain"
	"github.com/rgehrsitz/corpusplan/internal/instruments"
	"github.com/rgehrsitz/corpusplan/internal/planner"
	"github.com/rgehrsitz/corpusplan/internal/scenario"
	"github.com/rgehrsitz/corpusplan/internal/session"
	"github.com/rgehrsitz/corpusplan/internal/store"
)

type ruleView struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	domain.InstrumentRule
	Ceiling *decimal.Decimal `json:"ceiling_pct,omitempty"`
}

type rulesResponse struct {
	Country     string     `json:"country"`
	Currency    string     `json:"currency"`
	Absorber    string     `json:"absorber"`
	Instruments []ruleView `json:"instruments"`
	IncomeKeys  []string   `json:"income_keys"`
}

type allocationRequest struct {
	Country     string            `json:"country"`
	Age         int               `json:"age"`
	TotalCorpus decimal.Decimal   `json:"total_corpus"`
	JointPOMIS  bool              `json:"pomis_joint"`
	Allocations domain.Allocation `json:"allocations"`
}

type capsResponse struct {
	Allocations domain.Allocation          `json:"allocations"`
	Surplus     decimal.Decimal            `json:"surplus"`
	Ceilings    map[string]decimal.Decimal `json:"ceilings"`
}

type createSessionRequest struct {
	Username string        `json:"username"`
	Country  string        `json:"country"`
	Age      int           `json:"age"`
	Corpus   domain.Corpus `json:"initial_corpus"`
	// JointPOMIS overrides the stored flag when present.
	JointPOMIS *bool `json:"pomis_joint"`
}

type planResponse struct {
	SessionID string             `json:"session_id"`
	User      domain.User        `json:"user"`
	Country   string             `json:"country"`
	Age       int                `json:"age"`
	Joint     bool               `json:"pomis_joint"`
	Stage     domain.LifeStage   `json:"stage"`
	Plan      *domain.Plan       `json:"plan"`
	Breakdown scenario.Breakdown `json:"breakdown"`
	Income    []string           `json:"visible_income_sources"`
	Priority  []string           `json:"priority_instruments"`
}

type editRequest struct {
	Instrument string          `json:"instrument"`
	Value      decimal.Decimal `json:"value"`
}

type selectRequest struct {
	Name string `json:"name"`
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

func profileOpts(joint bool) []instruments.Option {
	if joint {
		return []instruments.Option{instruments.WithJointPOMIS()}
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"version":  s.version,
		"sessions": s.sessions.Len(),
	})
}

func (s *Server) handleCountries(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"countries": s.planner.Registry().Countries(),
	})
}

// handleRules returns a country's instrument rules. With ?total_corpus=
// the effective percentage ceilings are included.
func (s *Server) handleRules(w http.ResponseWriter, r *http.Request) {
	cp, err := s.planner.Registry().Profile(chi.URLParam(r, "country"), profileOpts(r.URL.Query().Get("pomis_joint") == "true")...)
	if err != nil {
		s.fail(w, err)
		return
	}

	var ceilings map[string]decimal.Decimal
	if raw := r.URL.Query().Get("total_corpus"); raw != "" {
		total, err := decimal.NewFromString(raw)
		if err != nil {
			s.fail(w, fmt.Errorf("%w: total_corpus: %v", errBadRequest, err))
			return
		}
		ceilings = allocation.PercentCeilings(total, cp.Rules)
	}

	resp := rulesResponse{
		Country:    cp.Code,
		Currency:   cp.Currency,
		Absorber:   cp.Absorber,
		IncomeKeys: cp.IncomeKeys,
	}
	for _, f := range cp.Fields {
		v := ruleView{Key: f.Key, Label: f.Label, InstrumentRule: cp.Rules[f.Key]}
		if c, ok := ceilings[f.Key]; ok {
			c := c
			v.Ceiling = &c
		}
		resp.Instruments = append(resp.Instruments, v)
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleNormalize(w http.ResponseWriter, r *http.Request) {
	var req allocationRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, err)
		return
	}
	a := allocation.Round(allocation.Normalize(req.Allocations), 2)
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"allocations": a,
		"sum":         a.Sum(),
	})
}

func (s *Server) handleCaps(w http.ResponseWriter, r *http.Request) {
	var req allocationRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, err)
		return
	}
	cp, err := s.planner.Registry().Profile(req.Country, profileOpts(req.JointPOMIS)...)
	if err != nil {
		s.fail(w, err)
		return
	}

	capped, surplus := allocation.ApplyCaps(req.TotalCorpus, req.Allocations, req.Age, cp.Rules, cp.Absorber)
	if surplus.IsPositive() {
		s.metrics.RecordClip("api")
	}
	s.writeJSON(w, http.StatusOK, capsResponse{
		Allocations: capped,
		Surplus:     surplus,
		Ceilings:    allocation.Ceilings(req.TotalCorpus, req.Age, cp.Rules),
	})
}

func (s *Server) handleModel(w http.ResponseWriter, r *http.Request) {
	var req allocationRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, err)
		return
	}
	m, err := s.planner.Model(req.Country, req.Age, req.TotalCorpus)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, m)
}

// handleCreateSession starts a session. Without a username it is a guest
// session. A registered user's saved profile is loaded when a store is
// configured; fields in the request override it.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if r.ContentLength != 0 {
		if err := decode(r, &req); err != nil {
			s.fail(w, err)
			return
		}
	}

	user := domain.User{Username: req.Username, IsGuest: req.Username == ""}
	var profile *domain.UserProfile
	if !user.IsGuest {
		p, err := s.planner.Load(r.Context(), user.Username)
		switch {
		case err == nil:
			profile = p
		case errors.Is(err, store.ErrNotFound), errors.Is(err, planner.ErrNoStore):
			// first visit: start from a fresh profile
		default:
			// A fresh profile here would overwrite the stored one on save.
			s.fail(w, fmt.Errorf("load profile for %s: %w", user.Username, err))
			return
		}
	}
	if profile == nil {
		profile = &domain.UserProfile{Country: "IN"}
	}
	if req.Country != "" {
		profile.Country = req.Country
	}
	if req.Age != 0 {
		profile.Age = req.Age
	}
	if req.Corpus != nil {
		profile.Corpus = req.Corpus
	}
	if req.JointPOMIS != nil {
		profile.JointPOMIS = *req.JointPOMIS
	}
	if _, err := s.planner.Prepare(profile); err != nil {
		s.fail(w, err)
		return
	}

	sess := s.sessions.Create(user, profile)
	s.respondPlan(w, http.StatusCreated, sess)
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := s.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, err)
		return nil, false
	}
	return sess, true
}

func (s *Server) respondPlan(w http.ResponseWriter, status int, sess *session.Session) {
	p := sess.Snapshot()
	cp, err := s.planner.CountryProfile(p)
	if err != nil {
		s.fail(w, err)
		return
	}
	b, err := s.planner.Breakdown(p)
	if err != nil {
		s.fail(w, err)
		return
	}
	stage := domain.StageForAge(p.Age)
	s.writeJSON(w, status, planResponse{
		SessionID: sess.ID,
		User:      sess.User,
		Country:   cp.Code,
		Age:       p.Age,
		Joint:     p.JointPOMIS,
		Stage:     stage,
		Plan:      p.InvestmentPlan,
		Breakdown: b,
		Income:    scenario.VisibleIncomeSources(stage, cp),
		Priority:  scenario.PriorityInstruments(stage, p.Age, cp),
	})
}

func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	s.respondPlan(w, http.StatusOK, sess)
}

func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req editRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, err)
		return
	}

	var res allocation.EditResult
	err := sess.Do(func(p *domain.UserProfile) error {
		var err error
		res, err = s.planner.Edit(p, req.Instrument, req.Value)
		return err
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleClone(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var name string
	err := sess.Do(func(p *domain.UserProfile) error {
		var err error
		name, err = s.planner.Clone(p, sess.User)
		return err
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]string{"name": name})
}

func (s *Server) handleDeleteScenario(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	name := chi.URLParam(r, "name")
	err := sess.Do(func(p *domain.UserProfile) error {
		return s.planner.Delete(p, sess.User, name)
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req selectRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, err)
		return
	}
	err := sess.Do(func(p *domain.UserProfile) error {
		return s.planner.Select(p, req.Name)
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respondPlan(w, http.StatusOK, sess)
}

func (s *Server) handleProject(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	res, err := s.planner.Project(r.Context(), sess.Snapshot(), sess.User)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if err := s.planner.Save(r.Context(), sess.Snapshot(), sess.User); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
