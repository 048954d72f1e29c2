package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// SubmissionType enumerates the artifact modalities an assignment accepts.
type SubmissionType string

const (
	SubmissionTypeCode   SubmissionType = "code"
	SubmissionTypeReport SubmissionType = "report"
	SubmissionTypeVideo  SubmissionType = "video"
)

// SubmissionTypes lists all supported modalities in display order.
var SubmissionTypes = []SubmissionType{SubmissionTypeCode, SubmissionTypeReport, SubmissionTypeVideo}

// Valid reports whether t names a known modality.
func (t SubmissionType) Valid() bool {
	switch t {
	case SubmissionTypeCode, SubmissionTypeReport, SubmissionTypeVideo:
		return true
	default:
		return false
	}
}

// SubmissionTypeFlags toggles which modalities an assignment accepts.
type SubmissionTypeFlags struct {
	Code   bool `json:"code"`
	Report bool `json:"report"`
	Video  bool `json:"video"`
}

// Enabled reports whether the given modality is accepted.
func (f SubmissionTypeFlags) Enabled(t SubmissionType) bool {
	switch t {
	case SubmissionTypeCode:
		return f.Code
	case SubmissionTypeReport:
		return f.Report
	case SubmissionTypeVideo:
		return f.Video
	default:
		return false
	}
}

// Value marshals flags to JSON for persistence.
func (f SubmissionTypeFlags) Value() (driver.Value, error) {
	return jsonValue(f, "submission type flags")
}

// Scan unmarshals JSON payloads into the flags struct.
func (f *SubmissionTypeFlags) Scan(value interface{}) error {
	return jsonScan(value, f, "SubmissionTypeFlags")
}

// TypeWeights holds the per-modality weight percentages (0-100).
type TypeWeights struct {
	Code   float64 `json:"code"`
	Report float64 `json:"report"`
	Video  float64 `json:"video"`
}

// Weight returns the weight for the given modality.
func (w TypeWeights) Weight(t SubmissionType) float64 {
	switch t {
	case SubmissionTypeCode:
		return w.Code
	case SubmissionTypeReport:
		return w.Report
	case SubmissionTypeVideo:
		return w.Video
	default:
		return 0
	}
}

// EnabledSum totals the weights of the enabled modalities.
func (w TypeWeights) EnabledSum(flags SubmissionTypeFlags) float64 {
	sum := 0.0
	for _, t := range SubmissionTypes {
		if flags.Enabled(t) {
			sum += w.Weight(t)
		}
	}
	return sum
}

// IsZero reports whether no weight has been set.
func (w TypeWeights) IsZero() bool {
	return w.Code == 0 && w.Report == 0 && w.Video == 0
}

// Value marshals weights to JSON for persistence.
func (w TypeWeights) Value() (driver.Value, error) {
	return jsonValue(w, "type weights")
}

// Scan unmarshals JSON payloads into the weights struct.
func (w *TypeWeights) Scan(value interface{}) error {
	return jsonScan(value, w, "TypeWeights")
}

// AssignmentTopic is a node in the assignment's topic/subtopic tree.
type AssignmentTopic struct {
	Topic       string            `json:"topic"`
	Description string            `json:"description,omitempty"`
	Subtopics   []AssignmentTopic `json:"subtopics,omitempty"`
}

// AssignmentDetails stores the topic tree as JSONB.
type AssignmentDetails []AssignmentTopic

// Value marshals details to JSON for persistence.
func (d AssignmentDetails) Value() (driver.Value, error) {
	if d == nil {
		d = AssignmentDetails{}
	}
	return jsonValue(d, "assignment details")
}

// Scan unmarshals JSON payloads into the details slice.
func (d *AssignmentDetails) Scan(value interface{}) error {
	return jsonScan(value, d, "AssignmentDetails")
}

// Assignment is a gradable task within a module.
type Assignment struct {
	ID          string              `db:"id" json:"id"`
	ModuleID    string              `db:"module_id" json:"module_id"`
	Name        string              `db:"name" json:"name"`
	Description string              `db:"description" json:"description"`
	Deadline    time.Time           `db:"deadline" json:"deadline"`
	Types       SubmissionTypeFlags `db:"submission_types" json:"submission_types"`
	Weights     TypeWeights         `db:"submission_type_weights" json:"submission_type_weights"`
	Details     AssignmentDetails   `db:"details" json:"details,omitempty"`
	CreatedAt   time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time           `db:"updated_at" json:"updated_at"`
}

// IsPastDue reports whether the deadline has already passed.
func (a Assignment) IsPastDue(reference time.Time) bool {
	return reference.After(a.Deadline)
}

func jsonValue(v interface{}, label string) (driver.Value, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", label, err)
	}
	return data, nil
}

func jsonScan(value interface{}, dest interface{}, label string) error {
	if value == nil {
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for %s", value, label)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("unmarshal %s: %w", label, err)
	}
	return nil
}
