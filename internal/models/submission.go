package models

import "time"

// Submission is one student's attempt at an assignment. At most one row exists
// per (assignment, student); artifact references are patched in as the student
// submits each part.
type Submission struct {
	ID           string    `db:"id" json:"id"`
	AssignmentID string    `db:"assignment_id" json:"assignment_id"`
	StudentID    string    `db:"student_id" json:"student_id"`
	CodeID       *string   `db:"code_id" json:"code_id,omitempty"`
	ReportID     *string   `db:"report_id" json:"report_id,omitempty"`
	VideoID      *string   `db:"video_id" json:"video_id,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// ArtifactID returns the attached artifact reference for the given modality.
func (s Submission) ArtifactID(t SubmissionType) *string {
	switch t {
	case SubmissionTypeCode:
		return s.CodeID
	case SubmissionTypeReport:
		return s.ReportID
	case SubmissionTypeVideo:
		return s.VideoID
	default:
		return nil
	}
}

// SubmissionWithStudent joins a submission with its owner for listings.
type SubmissionWithStudent struct {
	Submission
	StudentName  string `db:"student_name" json:"student_name"`
	StudentEmail string `db:"student_email" json:"student_email"`
}

// SubmissionFilter narrows submission listings.
type SubmissionFilter struct {
	AssignmentID string
	StudentID    string
}
