package tui

import "github.com/rgehrsitz/corpusplan/internal/projection"

// ProjectionCompleteMsg carries a finished projection.
type ProjectionCompleteMsg struct {
	Result *projection.Result
	Err    error
}

// SavedMsg reports the outcome of a save.
type SavedMsg struct {
	Err error
}
