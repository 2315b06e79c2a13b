// Package snapshot keeps the grade and injury data every prediction reads, and
// swaps it atomically when a refresh succeeds.
package snapshot

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/okian/gridiron/internal/domain/grades"
	"github.com/okian/gridiron/internal/domain/model"
)

// Data is one immutable, versioned set of grades and injury reports.
type Data struct {
	Grades   *grades.Snapshot
	Injuries map[string][]model.InjuryRecord
	Version  string
	LoadedAt time.Time
}

// InjuriesFor returns the injury report of team. A team without a report has none.
func (d *Data) InjuriesFor(team string) []model.InjuryRecord {
	return d.Injuries[model.NormalizeTeam(team)]
}

// Age returns how long ago the data was loaded, measured from now.
func (d *Data) Age(now time.Time) time.Duration {
	if d.LoadedAt.IsZero() {
		return 0
	}
	return now.Sub(d.LoadedAt)
}

// Empty returns data that answers every lookup with a default.
func Empty() *Data {
	return &Data{
		Grades:   grades.Empty(),
		Injuries: map[string][]model.InjuryRecord{},
		Version:  "empty",
	}
}

// Holder publishes the current Data to concurrent readers.
type Holder struct {
	current atomic.Pointer[Data]
}

// NewHolder returns a holder serving Empty data until the first Store.
func NewHolder() *Holder {
	h := &Holder{}
	h.current.Store(Empty())
	return h
}

// Current returns the data in force. It is never nil.
func (h *Holder) Current() *Data {
	return h.current.Load()
}

// Store replaces the current data. Missing fields are filled so readers never see nil.
func (h *Holder) Store(d *Data) {
	if d == nil {
		return
	}
	next := *d
	if next.Grades == nil {
		next.Grades = grades.Empty()
	}
	injuries := make(map[string][]model.InjuryRecord, len(next.Injuries))
	for team, list := range next.Injuries {
		key := model.NormalizeTeam(team)
		injuries[key] = append(injuries[key], list...)
	}
	next.Injuries = injuries
	if next.Version == "" {
		next.Version = uuid.NewString()
	}
	if next.LoadedAt.IsZero() {
		next.LoadedAt = time.Now().UTC()
	}
	h.current.Store(&next)
}
