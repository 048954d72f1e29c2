package models

import (
	"database/sql/driver"
	"time"
)

// SchemeCriterion is one weighted rubric row of a marking scheme.
type SchemeCriterion struct {
	ID                string         `db:"id" json:"id"`
	SchemeID          string         `db:"scheme_id" json:"scheme_id"`
	SubmissionType    SubmissionType `db:"submission_type" json:"submission_type"`
	Criterion         string         `db:"criterion" json:"criterion"`
	LowDescription    string         `db:"low_description" json:"low_description"`
	MediumDescription string         `db:"medium_description" json:"medium_description"`
	HighDescription   string         `db:"high_description" json:"high_description"`
	Weightage         float64        `db:"weightage" json:"weightage"`
	Position          int            `db:"position" json:"position"`
}

// NullableWeights wraps TypeWeights for a nullable JSONB column.
type NullableWeights struct {
	TypeWeights
	Set bool `json:"-"`
}

// Value marshals the weights, or NULL when unset.
func (w NullableWeights) Value() (driver.Value, error) {
	if !w.Set {
		return nil, nil
	}
	return w.TypeWeights.Value()
}

// Scan unmarshals the JSONB weights, tracking presence.
func (w *NullableWeights) Scan(value interface{}) error {
	if value == nil {
		*w = NullableWeights{}
		return nil
	}
	w.Set = true
	return w.TypeWeights.Scan(value)
}

// MarkingScheme is the rubric attached to an assignment.
type MarkingScheme struct {
	ID           string            `db:"id" json:"id"`
	AssignmentID string            `db:"assignment_id" json:"assignment_id"`
	Title        string            `db:"title" json:"title"`
	Weights      NullableWeights   `db:"submission_type_weights" json:"submission_type_weights"`
	CreatedBy    string            `db:"created_by" json:"created_by"`
	CreatedAt    time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time         `db:"updated_at" json:"updated_at"`
	Criteria     []SchemeCriterion `json:"criteria,omitempty"`
}

// CriteriaFor returns the scheme's criteria for one modality, in position order.
func (s MarkingScheme) CriteriaFor(t SubmissionType) []SchemeCriterion {
	var rows []SchemeCriterion
	for _, c := range s.Criteria {
		if c.SubmissionType == t {
			rows = append(rows, c)
		}
	}
	return rows
}

// ResolvedScheme is the effective rubric for an assignment: the active scheme
// (if any) plus the effective per-modality weights after fallback.
type ResolvedScheme struct {
	SchemeID string                             `json:"scheme_id,omitempty"`
	Title    string                             `json:"title,omitempty"`
	Weights  TypeWeights                        `json:"submission_type_weights"`
	Criteria map[SubmissionType][]SchemeCriterion `json:"criteria"`
}

// HasScheme reports whether a stored scheme backs this resolution.
func (r ResolvedScheme) HasScheme() bool {
	return r.SchemeID != ""
}
