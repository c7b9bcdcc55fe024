package pipeline

import (
	"presensi/internal/attendance"
	"presensi/internal/features"
)

// State is the shared table flowing through the pipeline. Events hold the
// labeled log up to and including feature engineering; Rows hold the
// engineered table afterwards. PresenceRates is snapshotted right after
// labeling, before any gating, so the low-activity filter rates entities
// over their full observed history (holidays included) no matter where the
// anomaly gate runs.
type State struct {
	Events        []attendance.Event
	Rows          []features.FeatureRow
	PresenceRates map[string]float64
}

// NewState creates the initial state around the raw event log.
func NewState(events []attendance.Event) *State {
	return &State{Events: events}
}
