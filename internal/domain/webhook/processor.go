package webhook

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/careops/carehub/internal/domain/identifier"
	"github.com/careops/carehub/internal/domain/task"
	"github.com/careops/carehub/internal/platform/awell"
)

// PatientSyncer finds or creates the local patient for an
// orchestration patient id.
type PatientSyncer interface {
	SyncExternalPatient(ctx context.Context, externalID string) (uuid.UUID, error)
}

// TaskWriter is the slice of the task service the processor needs.
type TaskWriter interface {
	Create(ctx context.Context, t *task.Task) error
	FindByActivityID(ctx context.Context, activityID string) (*task.Task, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status task.Status) error
}

// Processor turns activity events into local state. Patient sync runs
// for every delivery; task effects are best-effort so a single bad
// activity cannot wedge the delivery stream.
type Processor struct {
	patients PatientSyncer
	tasks    TaskWriter
	log      zerolog.Logger
}

func NewProcessor(patients PatientSyncer, tasks TaskWriter, log zerolog.Logger) *Processor {
	return &Processor{
		patients: patients,
		tasks:    tasks,
		log:      log.With().Str("component", "webhook").Logger(),
	}
}

// Process handles one validated delivery. A patient sync failure is
// returned so the delivery fails and the platform retries it; task
// failures are logged and swallowed, which also makes redelivery of an
// already-processed event harmless.
func (p *Processor) Process(ctx context.Context, evt *Event) error {
	patientID, err := p.patients.SyncExternalPatient(ctx, evt.Pathway.PatientID)
	if err != nil {
		return err
	}

	if evt.Activity.IndirectObject == nil || evt.Activity.IndirectObject.Type != ObjectTypeStakeholder {
		return nil
	}

	switch evt.EventType {
	case EventActivityCreated:
		p.createTask(ctx, evt, patientID)
	case EventActivityCompleted:
		p.completeTask(ctx, evt)
	}
	return nil
}

func (p *Processor) createTask(ctx context.Context, evt *Event, patientID uuid.UUID) {
	taskData, err := json.Marshal(map[string]any{
		"activity": evt.Activity,
		"pathway":  evt.Pathway,
	})
	if err != nil {
		p.log.Error().Err(err).Str("activity_id", evt.Activity.ID).Msg("encoding task data")
		return
	}

	taskType := "awell"
	t := &task.Task{
		Title:       evt.Activity.Object.Name,
		Description: &evt.Activity.Object.Type,
		TaskType:    &taskType,
		TaskData:    taskData,
		Status:      task.StatusPending,
		PatientID:   &patientID,
		Identifiers: []identifier.Identifier{
			{System: awell.System, Value: evt.Activity.ID},
		},
	}
	if err := p.tasks.Create(ctx, t); err != nil {
		// Typically a redelivered event whose task already exists.
		p.log.Error().Err(err).Str("activity_id", evt.Activity.ID).Msg("creating task from activity")
		return
	}
	p.log.Debug().Str("activity_id", evt.Activity.ID).Str("task_id", t.ID.String()).Msg("task created from activity")
}

func (p *Processor) completeTask(ctx context.Context, evt *Event) {
	t, err := p.tasks.FindByActivityID(ctx, evt.Activity.ID)
	if err != nil {
		// Completion may outrun creation when deliveries reorder.
		p.log.Error().Err(err).Str("activity_id", evt.Activity.ID).Msg("finding task for completed activity")
		return
	}
	if err := p.tasks.UpdateStatus(ctx, t.ID, task.StatusCompleted); err != nil {
		p.log.Error().Err(err).Str("task_id", t.ID.String()).Msg("completing task")
		return
	}
	p.log.Debug().Str("activity_id", evt.Activity.ID).Str("task_id", t.ID.String()).Msg("task completed from activity")
}
