package identifier

import (
	"context"

	"github.com/google/uuid"

	"github.com/careops/carehub/internal/platform/db"
)

// Reconciler converges a record's stored identifier set toward a
// desired set using the minimal number of mutations: identifiers
// present in both sets are never touched.
type Reconciler struct {
	store Store
	tx    db.Runner
}

func NewReconciler(store Store, tx db.Runner) *Reconciler {
	return &Reconciler{store: store, tx: tx}
}

// Reconcile replaces ownerID's identifier set with desired. Removals
// run before insertions so a pair moving between records in one call
// does not trip the uniqueness constraint against itself. An empty or
// nil desired set removes every identifier the record has. The whole
// operation is atomic; a failed insert rolls back any deletes.
func (r *Reconciler) Reconcile(ctx context.Context, ownerID uuid.UUID, desired []Identifier) error {
	return r.tx(ctx, func(ctx context.Context) error {
		current, err := r.store.ListFor(ctx, ownerID)
		if err != nil {
			return err
		}
		for _, ident := range current {
			if contains(desired, ident) {
				continue
			}
			if err := r.store.DeleteExact(ctx, ownerID, ident); err != nil {
				return err
			}
		}
		for _, ident := range desired {
			if contains(current, ident) {
				continue
			}
			if err := r.store.Insert(ctx, ownerID, ident); err != nil {
				return err
			}
		}
		return nil
	})
}
