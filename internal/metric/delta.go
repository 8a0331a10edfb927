package metric

import (
	"log/slog"
	"time"
)

// DateLayout is the calendar-date format of DeltaState.LastUpdateDate.
const DateLayout = time.DateOnly

// DeltaState is the persisted part of a daily change tracker.
// PreviousValue is normally a number or nil; state written by older releases
// may hold the raw earnings structure instead. An empty LastUpdateDate means
// the tracker has never run.
type DeltaState struct {
	PreviousValue  any    `json:"previous_value"`
	LastUpdateDate string `json:"last_update_date,omitempty"`
}

// Tracker computes the change of one metric since its last successful read,
// restarting from zero on the first read of every local calendar day.
//
// The baseline moves forward on every successful read, so within a day the
// result is the change since the previous read rather than since midnight.
type Tracker struct {
	kind   Kind
	state  DeltaState
	logger *slog.Logger
}

func NewTracker(kind Kind, logger *slog.Logger) *Tracker {
	return &Tracker{kind: kind, logger: logger}
}

// Restore replaces the tracker state with a previously persisted one.
// A nil state leaves the tracker uninitialized.
func (t *Tracker) Restore(st *DeltaState) {
	if st == nil {
		t.state = DeltaState{}
		return
	}
	t.state = *st
	t.state.LastUpdateDate = normalizeDate(st.LastUpdateDate)
}

// State returns a copy of the current state for persistence.
func (t *Tracker) State() DeltaState { return t.state }

// Initialized reports whether the tracker holds a baseline date.
func (t *Tracker) Initialized() bool { return t.state.LastUpdateDate != "" }

// Compute returns the delta for current, read on the calendar day today
// (formatted with DateLayout). changed reports whether the state must be
// persisted. Compute never fails: anomalies are logged and yield 0.
func (t *Tracker) Compute(current any, today string) (delta float64, changed bool) {
	if t.state.LastUpdateDate != today {
		t.state = DeltaState{PreviousValue: normalize(current), LastUpdateDate: today}
		return 0, true
	}

	previous := t.state.PreviousValue
	if current == nil || previous == nil {
		t.logger.Debug("daily change skipped, missing value",
			"kind", t.kind, "current", current, "previous", previous)
		return 0, false
	}

	prev, ok := ToNumber(previous)
	if !ok {
		if prev, ok = UnwrapEarnings(previous); ok {
			t.logger.Info("normalized legacy previous value", "kind", t.kind, "value", prev)
		}
	}
	cur, curOK := ToNumber(current)
	if !ok || !curOK {
		t.logger.Warn("daily change skipped, incompatible values",
			"kind", t.kind, "current", current, "previous", previous)
		return 0, false
	}

	t.state.PreviousValue = cur
	return cur - prev, true
}

// normalizeDate reduces timestamps persisted as RFC 3339 strings to their
// calendar date. Unparseable dates are dropped, which forces a reset.
func normalizeDate(s string) string {
	if len(s) < len(DateLayout) {
		return ""
	}
	d := s[:len(DateLayout)]
	if _, err := time.Parse(DateLayout, d); err != nil {
		return ""
	}
	return d
}

// normalize stores numbers as float64 so persisted baselines stay numeric.
func normalize(v any) any {
	if f, ok := ToNumber(v); ok {
		return f
	}
	return v
}

// Today formats now as a calendar date in loc.
func Today(now time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return now.In(loc).Format(DateLayout)
}
