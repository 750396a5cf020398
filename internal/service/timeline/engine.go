// Package timeline holds the pure functions behind the customer-facing
// device timeline: the duplicate-suppression decision taken on every status
// update, and the display reduction that collapses consecutive same-status
// log entries. Both operate on a device's chronological log history and
// have no side effects.
package timeline

import (
	"time"

	"github.com/google/uuid"

	"github.com/mpetrakis/repair-api/internal/model"
)

// Entry is one display-ready timeline item.
type Entry struct {
	Status      model.DeviceStatus `json:"status"`
	StatusLabel string             `json:"status_label"`
	Note        string             `json:"note,omitempty"`
	Timestamp   time.Time          `json:"timestamp"`
	Staff       string             `json:"staff,omitempty"`
}

// StaffResolver maps an acting user id to a display name.
type StaffResolver func(uuid.UUID) string

// ShouldSuppress decides whether a proposed status update is a no-op
// duplicate. A genuine transition (proposed != current) is never a
// duplicate. A same-status update is a duplicate only when both notes
// match the latest log entry, treating nil and empty string as equal;
// otherwise it is a legitimate annotation.
func ShouldSuppress(current model.DeviceStatus, latest *model.TimelineLog, proposed model.DeviceStatus, publicNote, privateNote string) bool {
	if proposed != current {
		return false
	}
	if latest == nil {
		return false
	}
	return noteText(latest.PublicNote) == publicNote &&
		noteText(latest.PrivateNote) == privateNote
}

// Reduce turns a chronological log history into the newest-first display
// timeline. Consecutive entries with the same status collapse into the
// last entry of the run, so the emitted timestamp reflects the latest
// update to that phase. Non-adjacent runs of the same status stay separate
// (received → checking → received yields three entries). Reducing an
// already-reduced history yields the same result.
func Reduce(logs []*model.TimelineLog, staff StaffResolver) []Entry {
	var kept []*model.TimelineLog
	for _, log := range logs {
		if n := len(kept); n > 0 && kept[n-1].Status == log.Status {
			kept[n-1] = log
			continue
		}
		kept = append(kept, log)
	}

	entries := make([]Entry, 0, len(kept))
	for i := len(kept) - 1; i >= 0; i-- {
		entries = append(entries, newEntry(kept[i], staff))
	}
	return entries
}

func newEntry(log *model.TimelineLog, staff StaffResolver) Entry {
	entry := Entry{
		Status:      log.Status,
		StatusLabel: log.Status.Label(),
		Note:        noteText(log.PublicNote),
		Timestamp:   log.CreatedAt,
		Staff:       "System",
	}
	// Prefer the public note, falling back to the legacy generic note.
	if entry.Note == "" {
		entry.Note = noteText(log.Note)
	}
	if log.UserID != nil && staff != nil {
		if name := staff(*log.UserID); name != "" {
			entry.Staff = name
		}
	}
	return entry
}

func noteText(note *string) string {
	if note == nil {
		return ""
	}
	return *note
}
