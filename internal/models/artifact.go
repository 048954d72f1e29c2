package models

import (
	"database/sql/driver"
	"time"
)

// ReportStatus gates student visibility of report analysis results.
type ReportStatus string

const (
	ReportStatusDraft     ReportStatus = "draft"
	ReportStatusPublished ReportStatus = "published"
)

// CodeAnalysisSummary stores the automated per-section scores for a repo.
type CodeAnalysisSummary struct {
	FileNamingScore       float64 `json:"file_naming_score"`
	CodeNamingScore       float64 `json:"code_naming_score"`
	CommentsAccuracyScore float64 `json:"comments_accuracy_score"`
}

// Value marshals the summary to JSON for persistence.
func (s CodeAnalysisSummary) Value() (driver.Value, error) {
	return jsonValue(s, "code analysis summary")
}

// Scan unmarshals JSON payloads into the summary struct.
func (s *CodeAnalysisSummary) Scan(value interface{}) error {
	return jsonScan(value, s, "CodeAnalysisSummary")
}

// CodeArtifact is a submitted GitHub repository reference.
type CodeArtifact struct {
	ID            string              `db:"id" json:"id"`
	StudentID     string              `db:"student_id" json:"student_id"`
	GithubURL     string              `db:"github_url" json:"github_url"`
	FinalFeedback *string             `db:"final_feedback" json:"final_feedback,omitempty"`
	Analysis      CodeAnalysisSummary `db:"analysis" json:"analysis"`
	CreatedAt     time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time           `db:"updated_at" json:"updated_at"`
}

// ReportCriterionScore is one rubric row of the automated report analysis.
type ReportCriterionScore struct {
	Criterion string  `json:"criterion"`
	Score     float64 `json:"score"`
	Comment   string  `json:"comment,omitempty"`
}

// ReportAnalysis holds the automated analysis of a submitted document.
type ReportAnalysis struct {
	TotalScore float64                `json:"total_score"`
	Criteria   []ReportCriterionScore `json:"criteria,omitempty"`
	Feedback   string                 `json:"feedback,omitempty"`
}

// Value marshals the analysis to JSON for persistence.
func (a ReportAnalysis) Value() (driver.Value, error) {
	return jsonValue(a, "report analysis")
}

// Scan unmarshals JSON payloads into the analysis struct.
func (a *ReportAnalysis) Scan(value interface{}) error {
	return jsonScan(value, a, "ReportAnalysis")
}

// ReportArtifact is a submitted document plus its analysis results. Detail
// fields are withheld from students until the artifact is published.
type ReportArtifact struct {
	ID         string         `db:"id" json:"id"`
	StudentID  string         `db:"student_id" json:"student_id"`
	Filename   string         `db:"filename" json:"filename"`
	Status     ReportStatus   `db:"status" json:"status"`
	AIContent  float64        `db:"ai_content" json:"ai_content"`
	Plagiarism float64        `db:"plagiarism" json:"plagiarism"`
	Analysis   ReportAnalysis `db:"analysis" json:"analysis"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at" json:"updated_at"`
}

// Redacted returns a copy stripped of analysis details for student reads of
// unpublished reports.
func (r ReportArtifact) Redacted() ReportArtifact {
	clone := r
	clone.AIContent = 0
	clone.Plagiarism = 0
	clone.Analysis = ReportAnalysis{}
	return clone
}

// VideoSegment is a time-indexed transcript segment.
type VideoSegment struct {
	Start     float64  `json:"start"`
	End       float64  `json:"end"`
	Type      string   `json:"type"`
	Text      string   `json:"text,omitempty"`
	Functions []string `json:"functions,omitempty"`
}

// VideoSegments stores the segment list as JSONB.
type VideoSegments []VideoSegment

// Value marshals the segments to JSON for persistence.
func (s VideoSegments) Value() (driver.Value, error) {
	if s == nil {
		s = VideoSegments{}
	}
	return jsonValue(s, "video segments")
}

// Scan unmarshals JSON payloads into the segment slice.
func (s *VideoSegments) Scan(value interface{}) error {
	return jsonScan(value, s, "VideoSegments")
}

// VideoArtifact is a submitted presentation video with its transcript segments.
type VideoArtifact struct {
	ID        string        `db:"id" json:"id"`
	StudentID string        `db:"student_id" json:"student_id"`
	Filename  string        `db:"filename" json:"filename"`
	VideoURL  string        `db:"video_url" json:"video_url"`
	Segments  VideoSegments `db:"segments" json:"segments"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt time.Time     `db:"updated_at" json:"updated_at"`
}
