// Package webhook ingests activity events from the care-orchestration
// platform and materializes them as patients and tasks.
package webhook

import (
	"encoding/json"
	"time"

	"github.com/careops/carehub/internal/platform/httperr"
)

const (
	EventActivityCreated   = "activity.created"
	EventActivityCompleted = "activity.completed"
	EventActivityFailed    = "activity.failed"
)

// ObjectTypeStakeholder marks activities addressed to a human
// stakeholder; only those become tasks.
const ObjectTypeStakeholder = "stakeholder"

type ActivityObject struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

type ActivitySubject struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type ActivityContext struct {
	InstanceID string `json:"instance_id,omitempty"`
	ActionID   string `json:"action_id,omitempty"`
	StepID     string `json:"step_id,omitempty"`
	TrackID    string `json:"track_id,omitempty"`
	PathwayID  string `json:"pathway_id"`
}

type Activity struct {
	ID             string            `json:"id"`
	StreamID       string            `json:"stream_id"`
	Subject        *ActivitySubject  `json:"subject,omitempty"`
	Object         ActivityObject    `json:"object"`
	IndirectObject *ActivityObject   `json:"indirect_object,omitempty"`
	Date           time.Time         `json:"date"`
	Context        ActivityContext   `json:"context"`
	Action         string            `json:"action"`
	Resolution     *string           `json:"resolution,omitempty"`
	SubActivities  []json.RawMessage `json:"sub_activities,omitempty"`
}

type Pathway struct {
	ID                  string    `json:"id"`
	PatientID           string    `json:"patient_id"`
	PathwayDefinitionID string    `json:"pathway_definition_id"`
	TenantID            string    `json:"tenant_id"`
	StartDate           time.Time `json:"start_date"`
}

// Event is one webhook delivery. Deliveries are at-least-once and may
// arrive out of order.
type Event struct {
	Activity  Activity `json:"activity"`
	Pathway   Pathway  `json:"pathway"`
	EventType string   `json:"event_type"`
}

// Validate enforces the delivery schema. Failures reject the delivery
// outright; nothing downstream runs on a malformed payload.
func (e *Event) Validate() error {
	missing := func(field string) error {
		return httperr.Validation("invalid webhook payload: missing "+field, nil)
	}
	switch {
	case e.Activity.ID == "":
		return missing("activity.id")
	case e.Activity.StreamID == "":
		return missing("activity.stream_id")
	case e.Activity.Object.ID == "" || e.Activity.Object.Name == "" || e.Activity.Object.Type == "":
		return missing("activity.object")
	case e.Activity.Context.PathwayID == "":
		return missing("activity.context.pathway_id")
	case e.Activity.Action == "":
		return missing("activity.action")
	case e.Pathway.ID == "":
		return missing("pathway.id")
	case e.Pathway.PatientID == "":
		return missing("pathway.patient_id")
	case e.Pathway.PathwayDefinitionID == "":
		return missing("pathway.pathway_definition_id")
	case e.Pathway.TenantID == "":
		return missing("pathway.tenant_id")
	}
	switch e.EventType {
	case EventActivityCreated, EventActivityCompleted, EventActivityFailed:
		return nil
	default:
		return httperr.Validation("invalid webhook payload: unknown event_type", map[string]string{"event_type": e.EventType})
	}
}
