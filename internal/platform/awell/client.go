// Package awell talks to the care-orchestration platform. The platform is a
// black box from this service's point of view; the only call the sync path
// needs is the patient profile lookup.
package awell

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/careops/carehub/internal/platform/httperr"
)

// System is the identifier system under which orchestration patient and
// activity ids are recorded. Shared by patients and tasks, matching the
// platform's own convention.
const System = "https://awellhealth.com"

// Profile is the subset of the orchestration patient profile this service
// consumes.
type Profile struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// ProfileLookup resolves an orchestration patient id to a profile.
// Implementations must return a httperr.Lookup error when the platform has
// no record for the id.
type ProfileLookup interface {
	GetPatientProfile(ctx context.Context, patientID string) (*Profile, error)
}

type profileResponse struct {
	Success bool `json:"success"`
	Patient *struct {
		ID      string   `json:"id"`
		Profile *Profile `json:"profile"`
	} `json:"patient"`
}

// Client is the HTTP implementation of ProfileLookup.
type Client struct {
	http *resty.Client
}

func NewClient(baseURL, apiKey string) *Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(15 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetHeader("Accept", "application/json")
	if apiKey != "" {
		c.SetHeader("apiKey", apiKey)
	}
	return &Client{http: c}
}

func (c *Client) GetPatientProfile(ctx context.Context, patientID string) (*Profile, error) {
	var body profileResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", patientID).
		SetResult(&body).
		Get("/patients/{id}/profile")
	if err != nil {
		return nil, fmt.Errorf("call orchestration API: %w", err)
	}

	if resp.StatusCode() == http.StatusNotFound {
		return nil, httperr.Lookup("patient not found in orchestration platform", map[string]string{"patient_id": patientID})
	}
	if resp.IsError() {
		return nil, httperr.Internal(
			fmt.Sprintf("orchestration API returned %d", resp.StatusCode()),
			map[string]string{"patient_id": patientID},
		)
	}
	if !body.Success || body.Patient == nil || body.Patient.Profile == nil {
		return nil, httperr.Lookup("failed to get patient profile", map[string]string{"patient_id": patientID})
	}

	return body.Patient.Profile, nil
}
