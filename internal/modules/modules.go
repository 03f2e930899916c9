// Package modules persists named chart "modules" — a saved analysis the
// user wants to keep: title, the SQL that produced it, and the resolved
// chart spec.
//
// Persistence is a delivery-layer concern, not part of the core pipeline
// contract: the pipeline produces a fresh chart per request and never
// stores one. This package exists for the API surface that the UI's
// save/list/delete actions call.
package modules

import (
	"context"
	"time"

	"github.com/querysight/querysight/internal/chart"
)

// Module is one saved analysis.
type Module struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	SQL       string     `json:"sql"`
	Question  string     `json:"question,omitempty"`
	Spec      chart.Spec `json:"spec"`
	CreatedAt time.Time  `json:"created_at"`
}

// Store is the interface module storage backends implement.
type Store interface {
	// Save persists m under its ID, overwriting any previous version.
	Save(ctx context.Context, m *Module) error

	// Get loads the module with the given ID.
	// Returns an errs.ErrKindNotFound error when it does not exist.
	Get(ctx context.Context, id string) (*Module, error)

	// List returns all saved modules, newest first.
	List(ctx context.Context) ([]*Module, error)

	// Delete removes the module with the given ID. Deleting a module
	// that does not exist is not an error.
	Delete(ctx context.Context, id string) error
}
