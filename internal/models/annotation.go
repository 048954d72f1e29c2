package models

import (
	"database/sql/driver"
	"time"
)

// AnnotationSection distinguishes the four annotation categories kept on a
// code artifact. They share one storage shape instead of parallel tables.
type AnnotationSection string

const (
	SectionFileNaming       AnnotationSection = "file_naming"
	SectionCodeNaming       AnnotationSection = "code_naming"
	SectionCommentsAccuracy AnnotationSection = "comments_accuracy"
	SectionEvaluator        AnnotationSection = "evaluator"
)

// Valid reports whether s names a known section.
func (s AnnotationSection) Valid() bool {
	switch s {
	case SectionFileNaming, SectionCodeNaming, SectionCommentsAccuracy, SectionEvaluator:
		return true
	default:
		return false
	}
}

// CommentMap maps file path -> line number -> comment texts.
type CommentMap map[string]map[string][]string

// Add appends a comment at the given location, creating containers as needed.
func (m CommentMap) Add(path, line, text string) {
	lines, ok := m[path]
	if !ok {
		lines = make(map[string][]string)
		m[path] = lines
	}
	lines[line] = append(lines[line], text)
}

// ReplaceFirst swaps the first comment matching oldText at the location.
// It returns false when no match exists.
func (m CommentMap) ReplaceFirst(path, line, oldText, newText string) bool {
	texts := m[path][line]
	for i, t := range texts {
		if t == oldText {
			texts[i] = newText
			return true
		}
	}
	return false
}

// Remove deletes the first comment matching text at the location and
// garbage-collects emptied line and file containers. It returns false when no
// match exists.
func (m CommentMap) Remove(path, line, text string) bool {
	lines, ok := m[path]
	if !ok {
		return false
	}
	texts, ok := lines[line]
	if !ok {
		return false
	}
	for i, t := range texts {
		if t != text {
			continue
		}
		texts = append(texts[:i], texts[i+1:]...)
		if len(texts) == 0 {
			delete(lines, line)
		} else {
			lines[line] = texts
		}
		if len(lines) == 0 {
			delete(m, path)
		}
		return true
	}
	return false
}

// Value marshals the comment map to JSON for persistence.
func (m CommentMap) Value() (driver.Value, error) {
	if m == nil {
		m = CommentMap{}
	}
	return jsonValue(m, "comment map")
}

// Scan unmarshals JSON payloads into the comment map.
func (m *CommentMap) Scan(value interface{}) error {
	return jsonScan(value, m, "CommentMap")
}

// CodeAnnotation is the stored comment map for one artifact section.
type CodeAnnotation struct {
	ID        string            `db:"id" json:"id"`
	CodeID    string            `db:"code_id" json:"code_id"`
	Section   AnnotationSection `db:"section" json:"section"`
	Comments  CommentMap        `db:"comments" json:"comments"`
	UpdatedAt time.Time         `db:"updated_at" json:"updated_at"`
}
