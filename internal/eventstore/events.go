package eventstore

import (
	"encoding/json"
	"time"

	"git.home.luguber.info/inful/docversions/internal/foundation/errors"
)

// Event type names.
const (
	TypeRunStarted       = "RunStarted"
	TypeRepositorySynced = "RepositorySynced"
	TypeVersionBuilt     = "VersionBuilt"
	TypeVersionFailed    = "VersionFailed"
	TypeRunCompleted     = "RunCompleted"
	TypeRunFailed        = "RunFailed"
)

// RunStarted is emitted when a session begins.
type RunStarted struct {
	Repository string `json:"repository"`
	URL        string `json:"url"`
	Strategy   string `json:"strategy"`
	Builder    string `json:"builder"`
	OutputRoot string `json:"output_root"`
}

// RepositorySynced is emitted after the shared clone was cloned or fetched.
type RepositorySynced struct {
	Repository string `json:"repository"`
	ClonePath  string `json:"clone_path"`
	DurationMS int64  `json:"duration_ms"`
}

// VersionBuilt is emitted for every version that ends up in the manifest.
type VersionBuilt struct {
	Slug       string `json:"slug"`
	Type       string `json:"type"`
	Commit     string `json:"commit,omitempty"`
	Reused     bool   `json:"reused"`
	DurationMS int64  `json:"duration_ms"`
}

// VersionFailed is emitted for a version skipped after an expected build failure.
type VersionFailed struct {
	Slug   string `json:"slug"`
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

// RunCompleted is emitted when every task ran.
type RunCompleted struct {
	Versions     int    `json:"versions"`
	Reused       int    `json:"reused"`
	Failed       int    `json:"failed"`
	ManifestPath string `json:"manifest_path"`
	ManifestHash string `json:"manifest_hash"`
	DurationMS   int64  `json:"duration_ms"`
}

// RunFailed is emitted when an infrastructure failure aborted the session.
type RunFailed struct {
	Error      string `json:"error"`
	Category   string `json:"category"`
	DurationMS int64  `json:"duration_ms"`
}

// NewEvent wraps payload as an event of the given type.
func NewEvent(runID, eventType string, payload any) (*BaseEvent, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryInternal, "failed to marshal event payload").
			WithContext("run_id", runID).
			WithContext("event_type", eventType).
			Build()
	}
	return &BaseEvent{
		EventRunID:     runID,
		EventType:      eventType,
		EventTimestamp: time.Now(),
		EventPayload:   data,
	}, nil
}

// Decode unmarshals an event payload into v.
func Decode(e Event, v any) error {
	if err := json.Unmarshal(e.Payload(), v); err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to unmarshal event payload").
			WithContext("event_type", e.Type()).
			WithContext("event_id", e.ID()).
			Build()
	}
	return nil
}
