package model

import (
	"strings"
	"time"

	"github.com/secmon-lab/soapnote/pkg/domain/types"
)

const (
	DefaultTimelineTitle  = "Visit recorded"
	timelineSummaryLength = 120
)

// TimelineEntry is the display projection of one visit in a patient timeline.
type TimelineEntry struct {
	VisitID   VisitID
	Timestamp time.Time
	Status    types.VisitStatus
	Title     string
	Summary   string
	Latest    bool
}

// BuildTimeline projects visits given in ascending timestamp order into
// display entries. The result is newest first and only the first entry is
// flagged Latest.
func BuildTimeline(ascending []*Visit) []*TimelineEntry {
	entries := make([]*TimelineEntry, 0, len(ascending))
	for i := len(ascending) - 1; i >= 0; i-- {
		v := ascending[i]
		entries = append(entries, &TimelineEntry{
			VisitID:   v.ID,
			Timestamp: v.Timestamp,
			Status:    v.Status,
			Title:     timelineTitle(v),
			Summary:   timelineSummary(v),
			Latest:    len(entries) == 0,
		})
	}
	return entries
}

func timelineTitle(v *Visit) string {
	if v.ClinicalNote == nil {
		return DefaultTimelineTitle
	}
	first, _, _ := strings.Cut(v.ClinicalNote.Assessment, "\n")
	if first == "" {
		return DefaultTimelineTitle
	}
	return first
}

func timelineSummary(v *Visit) string {
	if v.ClinicalNote != nil && v.ClinicalNote.Summary != "" {
		return v.ClinicalNote.Summary
	}

	runes := []rune(v.RawTranscript)
	if len(runes) <= timelineSummaryLength {
		return v.RawTranscript
	}
	return string(runes[:timelineSummaryLength]) + "…"
}
