// Package booking holds the interval arithmetic behind table availability.
// The data layer loads candidate tables and the day's reservations; the
// helpers here decide which tables are actually free for a requested window.
package booking

import (
	"fmt"
	"time"
)

// DefaultDurationMinutes is the assumed seating length when a reservation
// has no explicit duration.
const DefaultDurationMinutes = 90

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// Window is a half-open seating interval [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// NewWindow builds a seating window from a date (YYYY-MM-DD), a start time
// (HH:MM, 24h) and a duration in minutes.
func NewWindow(date, startTime string, durationMinutes int) (Window, error) {
	if durationMinutes <= 0 {
		durationMinutes = DefaultDurationMinutes
	}
	start, err := time.Parse(dateLayout+" "+timeLayout, date+" "+startTime)
	if err != nil {
		return Window{}, fmt.Errorf("parse booking window: %w", err)
	}
	return Window{
		Start: start,
		End:   start.Add(time.Duration(durationMinutes) * time.Minute),
	}, nil
}

// Overlaps reports whether two half-open windows intersect. Back-to-back
// seatings (one ends exactly when the other starts) do not overlap.
func (w Window) Overlaps(o Window) bool {
	return w.Start.Before(o.End) && o.Start.Before(w.End)
}

// Candidate is a reservable table that can seat the party.
type Candidate struct {
	ID       string
	Number   string
	Section  string
	Capacity int
}

// Occupied is an existing reservation's claim on a table.
type Occupied struct {
	TableID string
	Window  Window
}

// FreeTables returns the candidates with no occupied window overlapping w,
// preserving input order (callers sort by capacity ascending so the
// smallest fitting table comes first).
func FreeTables(candidates []Candidate, occupied []Occupied, w Window) []Candidate {
	var free []Candidate
	for _, c := range candidates {
		if !tableBusy(c.ID, occupied, w) {
			free = append(free, c)
		}
	}
	return free
}

// FirstFree returns the first candidate free for w, if any.
func FirstFree(candidates []Candidate, occupied []Occupied, w Window) (Candidate, bool) {
	for _, c := range candidates {
		if !tableBusy(c.ID, occupied, w) {
			return c, true
		}
	}
	return Candidate{}, false
}

func tableBusy(tableID string, occupied []Occupied, w Window) bool {
	for _, o := range occupied {
		if o.TableID == tableID && o.Window.Overlaps(w) {
			return true
		}
	}
	return false
}

// alternativeOffsets are the minute shifts tried when the requested time is
// fully booked, nearest first.
var alternativeOffsets = []int{-60, -30, 30, 60, 120}

// Alternatives suggests up to limit alternative start times (HH:MM) around a
// fully booked window where at least one candidate table is free.
func Alternatives(candidates []Candidate, occupied []Occupied, w Window, limit int) []string {
	duration := w.End.Sub(w.Start)
	seen := make(map[string]struct{}, len(alternativeOffsets))
	var alts []string
	for _, offset := range alternativeOffsets {
		if len(alts) >= limit {
			break
		}
		start := w.Start.Add(time.Duration(offset) * time.Minute)
		alt := Window{Start: start, End: start.Add(duration)}
		if _, ok := FirstFree(candidates, occupied, alt); !ok {
			continue
		}
		label := start.Format(timeLayout)
		if _, dup := seen[label]; dup {
			continue
		}
		seen[label] = struct{}{}
		alts = append(alts, label)
	}
	return alts
}
