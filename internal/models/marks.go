package models

import "time"

// ManualMark is one teacher-entered mark for a scheme criterion on an artifact.
type ManualMark struct {
	ID              string         `db:"id" json:"id"`
	ArtifactKind    SubmissionType `db:"artifact_kind" json:"artifact_kind"`
	ArtifactID      string         `db:"artifact_id" json:"artifact_id"`
	MarkingSchemeID string         `db:"marking_scheme_id" json:"marking_scheme_id"`
	Criterion       string         `db:"criterion" json:"criterion"`
	Mark            float64        `db:"mark" json:"mark"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updated_at"`
}

// MarkSheetRow pairs a scheme criterion with its entered mark.
type MarkSheetRow struct {
	Criterion string   `json:"criterion"`
	Weightage float64  `json:"weightage"`
	Mark      *float64 `json:"mark,omitempty"`
	Weighted  *float64 `json:"weighted,omitempty"`
}

// MarkSheet is the merged scheme + marks view for one artifact.
type MarkSheet struct {
	ArtifactKind    SubmissionType `json:"artifact_kind"`
	ArtifactID      string         `json:"artifact_id"`
	MarkingSchemeID string         `json:"marking_scheme_id,omitempty"`
	Rows            []MarkSheetRow `json:"rows"`
	Total           *float64       `json:"total,omitempty"`
}
