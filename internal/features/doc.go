// Package features implements the per-entity temporal feature engine for
// attendance prediction.
//
// Given a labeled attendance log, it derives, per student and per day, the
// historical signals a next-day classifier trains on: the previous day's
// status, calendar-windowed counts of lateness and absence, the rolling
// average arrival time, the current streak of the tracked flag, and the
// day of week.
//
// # Leakage discipline
//
// Every historical feature is computed over the left-closed right-open
// calendar window [date-W, date): the current row's own outcome never
// feeds its features, and a gap of unobserved days widens nothing. Holiday
// rows feed the history of later rows but are dropped from the output,
// since they are never valid prediction targets.
//
// # Architecture
//
//   - types.go: FeatureRow, flag variants, window constants
//   - engine.go: Engine orchestrator, grouping and per-entity computation
//   - rolling.go: two-pointer calendar-window accumulator
//   - streak.go: consecutive-run counter
//
// Entities are independent, so the engine fans their groups out over a
// bounded errgroup and merges the partial results by concatenation before
// the final record-id ordering.
package features
