// Package identifier manages external identifiers attached to domain
// records. An identifier is a (system, value) pair; each namespace
// (patients, tasks) keeps its own table with a unique constraint on the
// pair, so an external id can belong to at most one record.
package identifier

import (
	"context"

	"github.com/google/uuid"
)

// Identifier is a namespaced external reference, e.g.
// {system: "https://awellhealth.com", value: "<patient id>"}.
type Identifier struct {
	System string `json:"system"`
	Value  string `json:"value"`
}

// Store persists identifiers for one namespace. Insert returns a
// conflict error when the (system, value) pair already exists in the
// namespace, regardless of owner.
type Store interface {
	ListFor(ctx context.Context, ownerID uuid.UUID) ([]Identifier, error)
	Insert(ctx context.Context, ownerID uuid.UUID, ident Identifier) error
	DeleteExact(ctx context.Context, ownerID uuid.UUID, ident Identifier) error
	// FindOwner resolves an identifier to the record that owns it.
	// Returns a not-found error when no record carries the pair.
	FindOwner(ctx context.Context, ident Identifier) (uuid.UUID, error)
}

// contains reports whether set holds ident, comparing system and value
// as exact strings.
func contains(set []Identifier, ident Identifier) bool {
	for _, i := range set {
		if i.System == ident.System && i.Value == ident.Value {
			return true
		}
	}
	return false
}
