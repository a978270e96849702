package model

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Field names of the structured object requested from the synthesis service.
const (
	NoteFieldSummary    = "patient_summary"
	NoteFieldSubjective = "subjective"
	NoteFieldObjective  = "objective"
	NoteFieldAssessment = "assessment"
	NoteFieldPlan       = "plan"
)

// Placeholders substituted when the synthesis output lacks a usable value.
const (
	DefaultSummary    = "No summary provided."
	DefaultAssessment = "No assessment provided."
)

// ClinicalNote is the structured SOAP extraction of a visit transcript.
// A normalized note never has nil slices.
type ClinicalNote struct {
	Summary    string
	Subjective []string
	Objective  []string
	Assessment string
	Plan       []string
}

// Copy returns a deep copy of the note.
func (n *ClinicalNote) Copy() *ClinicalNote {
	return &ClinicalNote{
		Summary:    n.Summary,
		Subjective: copyStrings(n.Subjective),
		Objective:  copyStrings(n.Objective),
		Assessment: n.Assessment,
		Plan:       copyStrings(n.Plan),
	}
}

func copyStrings(src []string) []string {
	dst := make([]string, len(src))
	copy(dst, src)
	return dst
}

// InsufficientTranscriptCandidate is returned by the synthesis adapter for
// transcripts too short to analyse. It is shaped like a service response so
// it flows through NormalizeNote like any other candidate.
func InsufficientTranscriptCandidate() map[string]any {
	return map[string]any{
		NoteFieldSummary:    "Transcript too short for analysis.",
		NoteFieldSubjective: []any{},
		NoteFieldObjective:  []any{},
		NoteFieldAssessment: "Insufficient information.",
		NoteFieldPlan:       []any{"Review the full conversation manually."},
	}
}

// DegradedNote is stored alongside the error status when synthesis fails.
func DegradedNote() *ClinicalNote {
	return &ClinicalNote{
		Summary:    "Analysis failed due to an error.",
		Subjective: []string{},
		Objective:  []string{},
		Assessment: "Analysis Failed",
		Plan:       []string{},
	}
}

// NormalizeNote coerces an untrusted synthesis candidate into a complete
// ClinicalNote. It accepts any decoded JSON value and never fails: strings
// fall back to fixed placeholders and sequences to empty slices.
func NormalizeNote(candidate any) *ClinicalNote {
	fields, _ := candidate.(map[string]any)

	return &ClinicalNote{
		Summary:    stringField(fields, NoteFieldSummary, DefaultSummary),
		Subjective: listField(fields, NoteFieldSubjective),
		Objective:  listField(fields, NoteFieldObjective),
		Assessment: stringField(fields, NoteFieldAssessment, DefaultAssessment),
		Plan:       listField(fields, NoteFieldPlan),
	}
}

func stringField(fields map[string]any, key, fallback string) string {
	if s, ok := fields[key].(string); ok {
		return s
	}
	return fallback
}

func listField(fields map[string]any, key string) []string {
	items, ok := fields[key].([]any)
	if !ok {
		if strs, ok := fields[key].([]string); ok {
			return copyStrings(strs)
		}
		return []string{}
	}

	result := make([]string, len(items))
	for i, item := range items {
		result[i] = coerceString(item)
	}
	return result
}

// coerceString renders a decoded JSON value as text.
func coerceString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case nil:
		return "null"
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case json.Number:
		return x.String()
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	default:
		raw, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(raw)
	}
}
