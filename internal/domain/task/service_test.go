package task

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/careops/carehub/internal/domain/identifier"
	"github.com/careops/carehub/internal/platform/awell"
	"github.com/careops/carehub/internal/platform/httperr"
)

type mockRepo struct {
	tasks map[uuid.UUID]*Task
}

func newMockRepo() *mockRepo {
	return &mockRepo{tasks: make(map[uuid.UUID]*Task)}
}

func (m *mockRepo) Create(_ context.Context, t *Task) error {
	t.ID = uuid.New()
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
	cp := *t
	m.tasks[t.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Task, error) {
	t, ok := m.tasks[id]
	if !ok {
		return nil, httperr.NotFound("task not found", nil)
	}
	cp := *t
	return &cp, nil
}

func (m *mockRepo) GetPopulated(_ context.Context, id uuid.UUID) (*PopulatedTask, error) {
	t, ok := m.tasks[id]
	if !ok {
		return nil, httperr.NotFound("task not found", nil)
	}
	return &PopulatedTask{Task: *t}, nil
}

func (m *mockRepo) List(_ context.Context, opts ListOptions) ([]*PopulatedTask, int, error) {
	var out []*PopulatedTask
	for _, t := range m.tasks {
		if len(opts.Statuses) > 0 {
			matched := false
			for _, s := range opts.Statuses {
				if t.Status == s {
					matched = true
				}
			}
			if !matched {
				continue
			}
		}
		if opts.PatientID != nil && (t.PatientID == nil || *t.PatientID != *opts.PatientID) {
			continue
		}
		out = append(out, &PopulatedTask{Task: *t})
	}
	return out, len(out), nil
}

func (m *mockRepo) Update(_ context.Context, t *Task) error {
	if _, ok := m.tasks[t.ID]; !ok {
		return httperr.NotFound("task not found", nil)
	}
	cp := *t
	m.tasks[t.ID] = &cp
	return nil
}

func (m *mockRepo) UpdateStatus(_ context.Context, id uuid.UUID, status Status) error {
	t, ok := m.tasks[id]
	if !ok {
		return httperr.NotFound("task not found", nil)
	}
	t.Status = status
	if status == StatusCompleted {
		now := time.Now()
		t.CompletedAt = &now
	} else {
		t.CompletedAt = nil
	}
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.tasks[id]; !ok {
		return httperr.NotFound("task not found", nil)
	}
	delete(m.tasks, id)
	return nil
}

type mockIdentStore struct {
	sets map[uuid.UUID][]identifier.Identifier
}

func newMockIdentStore() *mockIdentStore {
	return &mockIdentStore{sets: make(map[uuid.UUID][]identifier.Identifier)}
}

func (m *mockIdentStore) ListFor(_ context.Context, ownerID uuid.UUID) ([]identifier.Identifier, error) {
	out := make([]identifier.Identifier, len(m.sets[ownerID]))
	copy(out, m.sets[ownerID])
	return out, nil
}

func (m *mockIdentStore) Insert(_ context.Context, ownerID uuid.UUID, ident identifier.Identifier) error {
	for _, set := range m.sets {
		for _, cur := range set {
			if cur == ident {
				return httperr.Conflict("identifier already in use", nil)
			}
		}
	}
	m.sets[ownerID] = append(m.sets[ownerID], ident)
	return nil
}

func (m *mockIdentStore) DeleteExact(_ context.Context, ownerID uuid.UUID, ident identifier.Identifier) error {
	set := m.sets[ownerID]
	for i, cur := range set {
		if cur == ident {
			m.sets[ownerID] = append(set[:i], set[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *mockIdentStore) FindOwner(_ context.Context, ident identifier.Identifier) (uuid.UUID, error) {
	for owner, set := range m.sets {
		for _, cur := range set {
			if cur == ident {
				return owner, nil
			}
		}
	}
	return uuid.Nil, httperr.NotFound("identifier not found", nil)
}

type mockPurger struct {
	purged []uuid.UUID
}

func (m *mockPurger) DeleteByTask(_ context.Context, taskID uuid.UUID) error {
	m.purged = append(m.purged, taskID)
	return nil
}

func passTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// snapshotTx restores the repo and identifier store when fn fails,
// mimicking a rolled-back transaction.
func snapshotTx(repo *mockRepo, idents *mockIdentStore) func(context.Context, func(context.Context) error) error {
	return func(ctx context.Context, fn func(ctx context.Context) error) error {
		tasksBefore := make(map[uuid.UUID]*Task, len(repo.tasks))
		for id, t := range repo.tasks {
			cp := *t
			tasksBefore[id] = &cp
		}
		setsBefore := make(map[uuid.UUID][]identifier.Identifier, len(idents.sets))
		for owner, set := range idents.sets {
			cp := make([]identifier.Identifier, len(set))
			copy(cp, set)
			setsBefore[owner] = cp
		}
		if err := fn(ctx); err != nil {
			repo.tasks = tasksBefore
			idents.sets = setsBefore
			return err
		}
		return nil
	}
}

func TestCreateDefaultsToPending(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, newMockIdentStore(), &mockPurger{}, passTx, zerolog.Nop())

	task := &Task{Title: "review labs"}
	if err := svc.Create(context.Background(), task); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if task.Status != StatusPending {
		t.Errorf("status = %s, want pending", task.Status)
	}
}

func TestCreateRejectsMissingTitle(t *testing.T) {
	svc := NewService(newMockRepo(), newMockIdentStore(), &mockPurger{}, passTx, zerolog.Nop())
	if err := svc.Create(context.Background(), &Task{}); !httperr.IsValidation(err) {
		t.Fatalf("err = %v, want validation", err)
	}
}

func TestCreateRejectsBogusStatus(t *testing.T) {
	svc := NewService(newMockRepo(), newMockIdentStore(), &mockPurger{}, passTx, zerolog.Nop())
	err := svc.Create(context.Background(), &Task{Title: "x", Status: Status("done")})
	if !httperr.IsValidation(err) {
		t.Fatalf("err = %v, want validation", err)
	}
}

func TestCreateDuplicateIdentifierRollsBack(t *testing.T) {
	repo := newMockRepo()
	idents := newMockIdentStore()
	svc := NewService(repo, idents, &mockPurger{}, snapshotTx(repo, idents), zerolog.Nop())

	first := &Task{Title: "one", Identifiers: []identifier.Identifier{{System: awell.System, Value: "act-1"}}}
	if err := svc.Create(context.Background(), first); err != nil {
		t.Fatalf("Create: %v", err)
	}

	dup := &Task{Title: "two", Identifiers: []identifier.Identifier{{System: awell.System, Value: "act-1"}}}
	err := svc.Create(context.Background(), dup)
	if !httperr.IsValidation(err) {
		t.Fatalf("err = %v, want validation", err)
	}
	// The second task row must not survive the failed identifier insert.
	if len(repo.tasks) != 1 {
		t.Errorf("task count = %d, want 1 after rollback", len(repo.tasks))
	}
}

func TestFindByActivityID(t *testing.T) {
	repo := newMockRepo()
	idents := newMockIdentStore()
	svc := NewService(repo, idents, &mockPurger{}, passTx, zerolog.Nop())

	task := &Task{Title: "from activity", Identifiers: []identifier.Identifier{{System: awell.System, Value: "act-9"}}}
	if err := svc.Create(context.Background(), task); err != nil {
		t.Fatalf("Create: %v", err)
	}

	found, err := svc.FindByActivityID(context.Background(), "act-9")
	if err != nil {
		t.Fatalf("FindByActivityID: %v", err)
	}
	if found.ID != task.ID {
		t.Errorf("id = %v, want %v", found.ID, task.ID)
	}

	if _, err := svc.FindByActivityID(context.Background(), "missing"); !httperr.IsNotFound(err) {
		t.Errorf("err = %v, want not found", err)
	}
}

func TestUpdateShallowMerge(t *testing.T) {
	repo := newMockRepo()
	idents := newMockIdentStore()
	svc := NewService(repo, idents, &mockPurger{}, passTx, zerolog.Nop())

	desc := "original description"
	task := &Task{Title: "initial", Description: &desc, TaskData: []byte(`{"a":1}`)}
	if err := svc.Create(context.Background(), task); err != nil {
		t.Fatalf("Create: %v", err)
	}

	title := "renamed"
	updated, err := svc.Update(context.Background(), task.ID, UpdateParams{
		Title:    &title,
		TaskData: []byte(`{"b":2}`),
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Title != "renamed" {
		t.Errorf("title = %s, want renamed", updated.Title)
	}
	if updated.Description == nil || *updated.Description != desc {
		t.Errorf("description should be untouched, got %v", updated.Description)
	}
	// TaskData is replaced wholesale, never merged key-by-key.
	if string(updated.TaskData) != `{"b":2}` {
		t.Errorf("task_data = %s, want replaced payload", updated.TaskData)
	}
}

func TestUpdateReconcilesIdentifiers(t *testing.T) {
	repo := newMockRepo()
	idents := newMockIdentStore()
	svc := NewService(repo, idents, &mockPurger{}, passTx, zerolog.Nop())

	task := &Task{Title: "t", Identifiers: []identifier.Identifier{{System: "a", Value: "1"}}}
	if err := svc.Create(context.Background(), task); err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, err := svc.Update(context.Background(), task.ID, UpdateParams{
		Identifiers: []identifier.Identifier{{System: "b", Value: "2"}},
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	set, _ := idents.ListFor(context.Background(), task.ID)
	if len(set) != 1 || set[0] != (identifier.Identifier{System: "b", Value: "2"}) {
		t.Errorf("identifier set = %v, want [{b 2}]", set)
	}
}

func TestUpdateStatusValidatesEnum(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, newMockIdentStore(), &mockPurger{}, passTx, zerolog.Nop())

	task := &Task{Title: "t"}
	if err := svc.Create(context.Background(), task); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := svc.UpdateStatus(context.Background(), task.ID, Status("nope")); !httperr.IsValidation(err) {
		t.Fatalf("err = %v, want validation", err)
	}
	if err := svc.UpdateStatus(context.Background(), task.ID, StatusCompleted); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	got, _ := svc.Get(context.Background(), task.ID)
	if got.Status != StatusCompleted || got.CompletedAt == nil {
		t.Errorf("got %+v, want completed with completed_at set", got)
	}
}

func TestStatusTransitionsUnrestricted(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, newMockIdentStore(), &mockPurger{}, passTx, zerolog.Nop())

	task := &Task{Title: "t"}
	if err := svc.Create(context.Background(), task); err != nil {
		t.Fatalf("Create: %v", err)
	}
	// Completed back to pending is allowed.
	for _, s := range []Status{StatusCompleted, StatusPending, StatusStuck, StatusCancelled} {
		if err := svc.UpdateStatus(context.Background(), task.ID, s); err != nil {
			t.Fatalf("UpdateStatus(%s): %v", s, err)
		}
	}
}

func TestAssignReplacesBothSides(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, newMockIdentStore(), &mockPurger{}, passTx, zerolog.Nop())

	task := &Task{Title: "t"}
	if err := svc.Create(context.Background(), task); err != nil {
		t.Fatalf("Create: %v", err)
	}

	to, by := uuid.New(), uuid.New()
	updated, err := svc.Assign(context.Background(), task.ID, to, by)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if updated.AssignedToUserID == nil || *updated.AssignedToUserID != to {
		t.Errorf("assigned_to = %v, want %v", updated.AssignedToUserID, to)
	}
	if updated.AssignedByUserID == nil || *updated.AssignedByUserID != by {
		t.Errorf("assigned_by = %v, want %v", updated.AssignedByUserID, by)
	}
}

func TestDeleteCascades(t *testing.T) {
	repo := newMockRepo()
	idents := newMockIdentStore()
	purger := &mockPurger{}
	svc := NewService(repo, idents, purger, passTx, zerolog.Nop())

	task := &Task{Title: "t", Identifiers: []identifier.Identifier{{System: awell.System, Value: "act-5"}}}
	if err := svc.Create(context.Background(), task); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := svc.Delete(context.Background(), task.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(repo.tasks) != 0 {
		t.Error("task row should be gone")
	}
	if set, _ := idents.ListFor(context.Background(), task.ID); len(set) != 0 {
		t.Errorf("identifiers = %v, want removed", set)
	}
	if len(purger.purged) != 1 || purger.purged[0] != task.ID {
		t.Errorf("purged = %v, want the task's comments purged", purger.purged)
	}
}

func TestListFilters(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, newMockIdentStore(), &mockPurger{}, passTx, zerolog.Nop())

	pid := uuid.New()
	seed := []*Task{
		{Title: "a", Status: StatusPending, PatientID: &pid},
		{Title: "b", Status: StatusCompleted, PatientID: &pid},
		{Title: "c", Status: StatusPending},
	}
	for _, t2 := range seed {
		if err := svc.Create(context.Background(), t2); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	got, _, err := svc.List(context.Background(), ListOptions{Statuses: []Status{StatusPending}, PatientID: &pid})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 || got[0].Title != "a" {
		t.Errorf("list = %v, want just task a", got)
	}

	if _, _, err := svc.List(context.Background(), ListOptions{Statuses: []Status{Status("bad")}}); !httperr.IsValidation(err) {
		t.Errorf("err = %v, want validation for bad status filter", err)
	}
}
