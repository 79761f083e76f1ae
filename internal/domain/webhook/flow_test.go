package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/careops/carehub/internal/domain/identifier"
	"github.com/careops/carehub/internal/domain/patient"
	"github.com/careops/carehub/internal/domain/task"
	"github.com/careops/carehub/internal/platform/awell"
	"github.com/careops/carehub/internal/platform/httperr"
)

// The fixtures below compose the real sync service, task service and
// processor over in-memory stores, so a delivery is exercised end to
// end instead of against per-package mocks.

type memPatientRepo struct {
	rows map[uuid.UUID]*patient.Patient
}

func (m *memPatientRepo) Create(_ context.Context, p *patient.Patient) error {
	p.ID = uuid.New()
	cp := *p
	m.rows[p.ID] = &cp
	return nil
}

func (m *memPatientRepo) GetByID(_ context.Context, id uuid.UUID) (*patient.Patient, error) {
	p, ok := m.rows[id]
	if !ok {
		return nil, httperr.NotFound("patient not found", nil)
	}
	cp := *p
	return &cp, nil
}

func (m *memPatientRepo) List(_ context.Context, limit, offset int) ([]*patient.Patient, int, error) {
	return nil, len(m.rows), nil
}

func (m *memPatientRepo) Update(_ context.Context, p *patient.Patient) error {
	cp := *p
	m.rows[p.ID] = &cp
	return nil
}

func (m *memPatientRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.rows, id)
	return nil
}

type memTaskRepo struct {
	rows map[uuid.UUID]*task.Task
}

func (m *memTaskRepo) Create(_ context.Context, t *task.Task) error {
	t.ID = uuid.New()
	cp := *t
	m.rows[t.ID] = &cp
	return nil
}

func (m *memTaskRepo) GetByID(_ context.Context, id uuid.UUID) (*task.Task, error) {
	t, ok := m.rows[id]
	if !ok {
		return nil, httperr.NotFound("task not found", nil)
	}
	cp := *t
	return &cp, nil
}

func (m *memTaskRepo) GetPopulated(ctx context.Context, id uuid.UUID) (*task.PopulatedTask, error) {
	t, err := m.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &task.PopulatedTask{Task: *t}, nil
}

func (m *memTaskRepo) List(_ context.Context, opts task.ListOptions) ([]*task.PopulatedTask, int, error) {
	return nil, len(m.rows), nil
}

func (m *memTaskRepo) Update(_ context.Context, t *task.Task) error {
	cp := *t
	m.rows[t.ID] = &cp
	return nil
}

func (m *memTaskRepo) UpdateStatus(_ context.Context, id uuid.UUID, status task.Status) error {
	t, ok := m.rows[id]
	if !ok {
		return httperr.NotFound("task not found", nil)
	}
	t.Status = status
	if status == task.StatusCompleted {
		now := time.Now()
		t.CompletedAt = &now
	} else {
		t.CompletedAt = nil
	}
	return nil
}

func (m *memTaskRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.rows, id)
	return nil
}

type memIdentStore struct {
	sets map[uuid.UUID][]identifier.Identifier
}

func (m *memIdentStore) ListFor(_ context.Context, ownerID uuid.UUID) ([]identifier.Identifier, error) {
	out := make([]identifier.Identifier, len(m.sets[ownerID]))
	copy(out, m.sets[ownerID])
	return out, nil
}

func (m *memIdentStore) Insert(_ context.Context, ownerID uuid.UUID, ident identifier.Identifier) error {
	for _, set := range m.sets {
		for _, i := range set {
			if i.System == ident.System && i.Value == ident.Value {
				return httperr.Conflict("identifier already in use", nil)
			}
		}
	}
	m.sets[ownerID] = append(m.sets[ownerID], ident)
	return nil
}

func (m *memIdentStore) DeleteExact(_ context.Context, ownerID uuid.UUID, ident identifier.Identifier) error {
	set := m.sets[ownerID]
	for i, cur := range set {
		if cur.System == ident.System && cur.Value == ident.Value {
			m.sets[ownerID] = append(set[:i], set[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *memIdentStore) FindOwner(_ context.Context, ident identifier.Identifier) (uuid.UUID, error) {
	for owner, set := range m.sets {
		for _, i := range set {
			if i.System == ident.System && i.Value == ident.Value {
				return owner, nil
			}
		}
	}
	return uuid.Nil, httperr.NotFound("identifier not found", nil)
}

type noopPurger struct{}

func (noopPurger) DeleteByTask(context.Context, uuid.UUID) error { return nil }

type fixedProfiles struct {
	profiles map[string]*awell.Profile
	calls    int
}

func (f *fixedProfiles) GetPatientProfile(_ context.Context, patientID string) (*awell.Profile, error) {
	f.calls++
	p, ok := f.profiles[patientID]
	if !ok {
		return nil, httperr.Lookup("patient profile not found", nil)
	}
	return p, nil
}

// flowEnv wires the real services the way main.go does, with a runner
// that snapshots every store and restores it when the transaction body
// fails, mirroring a rollback.
type flowEnv struct {
	handler    *Handler
	patients   *memPatientRepo
	tasks      *memTaskRepo
	taskIdents *memIdentStore
	profiles   *fixedProfiles
}

func newFlowEnv(profiles map[string]*awell.Profile) *flowEnv {
	env := &flowEnv{
		patients:   &memPatientRepo{rows: make(map[uuid.UUID]*patient.Patient)},
		tasks:      &memTaskRepo{rows: make(map[uuid.UUID]*task.Task)},
		taskIdents: &memIdentStore{sets: make(map[uuid.UUID][]identifier.Identifier)},
		profiles:   &fixedProfiles{profiles: profiles},
	}
	patientIdents := &memIdentStore{sets: make(map[uuid.UUID][]identifier.Identifier)}

	tx := func(ctx context.Context, fn func(ctx context.Context) error) error {
		savedPatients := make(map[uuid.UUID]*patient.Patient, len(env.patients.rows))
		for k, v := range env.patients.rows {
			cp := *v
			savedPatients[k] = &cp
		}
		savedTasks := make(map[uuid.UUID]*task.Task, len(env.tasks.rows))
		for k, v := range env.tasks.rows {
			cp := *v
			savedTasks[k] = &cp
		}
		saveIdents := func(s *memIdentStore) map[uuid.UUID][]identifier.Identifier {
			saved := make(map[uuid.UUID][]identifier.Identifier, len(s.sets))
			for k, v := range s.sets {
				cp := make([]identifier.Identifier, len(v))
				copy(cp, v)
				saved[k] = cp
			}
			return saved
		}
		savedPI := saveIdents(patientIdents)
		savedTI := saveIdents(env.taskIdents)

		if err := fn(ctx); err != nil {
			env.patients.rows = savedPatients
			env.tasks.rows = savedTasks
			patientIdents.sets = savedPI
			env.taskIdents.sets = savedTI
			return err
		}
		return nil
	}

	patientSvc := patient.NewService(env.patients, patientIdents, tx, zerolog.Nop())
	syncSvc := patient.NewSyncService(patientSvc, env.profiles, zerolog.Nop())
	taskSvc := task.NewService(env.tasks, env.taskIdents, noopPurger{}, tx, zerolog.Nop())
	env.handler = NewHandler(NewProcessor(syncSvc, taskSvc, zerolog.Nop()))
	return env
}

func eventBody(t *testing.T, eventType, activityID, patientID string) string {
	t.Helper()
	evt := stakeholderEvent(eventType, activityID)
	evt.Pathway.PatientID = patientID
	b, err := json.Marshal(evt)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(b)
}

func TestDeliveryCreatesPatientAndTaskEndToEnd(t *testing.T) {
	env := newFlowEnv(map[string]*awell.Profile{
		"ext-123": {FirstName: "Jane", LastName: "Doe"},
	})

	rec, err := deliver(t, env.handler, eventBody(t, EventActivityCreated, "act-e2e", "ext-123"))
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"message":"ok"`) {
		t.Errorf("body = %s, want ok envelope", rec.Body.String())
	}

	if len(env.patients.rows) != 1 {
		t.Fatalf("patient count = %d, want 1", len(env.patients.rows))
	}
	var created *patient.Patient
	for _, p := range env.patients.rows {
		created = p
	}
	if created.FirstName != "Jane" || created.LastName != "Doe" {
		t.Errorf("patient = %s %s, want Jane Doe", created.FirstName, created.LastName)
	}

	if len(env.tasks.rows) != 1 {
		t.Fatalf("task count = %d, want 1", len(env.tasks.rows))
	}
	var tk *task.Task
	for _, row := range env.tasks.rows {
		tk = row
	}
	if tk.Status != task.StatusPending {
		t.Errorf("status = %s, want pending", tk.Status)
	}
	if tk.PatientID == nil || *tk.PatientID != created.ID {
		t.Errorf("patient_id = %v, want %v", tk.PatientID, created.ID)
	}
	owner, err := env.taskIdents.FindOwner(context.Background(),
		identifier.Identifier{System: awell.System, Value: "act-e2e"})
	if err != nil || owner != tk.ID {
		t.Errorf("activity identifier owner = %v, %v; want %v", owner, err, tk.ID)
	}
}

func TestDeliveryLifecycleEndToEnd(t *testing.T) {
	env := newFlowEnv(map[string]*awell.Profile{
		"ext-123": {FirstName: "Jane", LastName: "Doe"},
	})

	// Duplicate creation deliveries collapse onto one task; the losing
	// insert rolls back on the activity identifier conflict.
	for i := 0; i < 2; i++ {
		if rec, err := deliver(t, env.handler, eventBody(t, EventActivityCreated, "act-e2e", "ext-123")); err != nil || rec.Code != http.StatusOK {
			t.Fatalf("created delivery %d: %v (status %d)", i, err, rec.Code)
		}
	}
	if len(env.tasks.rows) != 1 {
		t.Fatalf("task count = %d, want 1 after duplicate delivery", len(env.tasks.rows))
	}
	if env.profiles.calls != 1 {
		t.Errorf("profile lookups = %d, want 1 (patient already known on redelivery)", env.profiles.calls)
	}

	if rec, err := deliver(t, env.handler, eventBody(t, EventActivityCompleted, "act-e2e", "ext-123")); err != nil || rec.Code != http.StatusOK {
		t.Fatalf("completed delivery: %v (status %d)", err, rec.Code)
	}
	for _, tk := range env.tasks.rows {
		if tk.Status != task.StatusCompleted {
			t.Errorf("status = %s, want completed", tk.Status)
		}
		if tk.CompletedAt == nil {
			t.Error("completed_at not set")
		}
	}
	if len(env.patients.rows) != 1 {
		t.Errorf("patient count = %d, want 1", len(env.patients.rows))
	}
}
