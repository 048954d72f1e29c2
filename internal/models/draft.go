package models

import "time"

// CodeDraft caches a student's in-progress repository submission for an
// assignment. Drafts live in Redis with a TTL and are cleared when the
// artifact is attached to the submission.
type CodeDraft struct {
	AssignmentID string    `json:"assignment_id"`
	StudentID    string    `json:"student_id"`
	GithubURL    string    `json:"github_url"`
	CodeID       *string   `json:"code_id,omitempty"`
	SavedAt      time.Time `json:"saved_at"`
}
