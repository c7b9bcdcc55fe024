package features

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"presensi/internal/attendance"
)

// Engine computes the per-entity temporal features. Entities are mutually
// independent, so their groups are processed concurrently and the partial
// results merged by concatenation; ordering only matters within one
// entity's own event sequence.
type Engine struct {
	variant        FlagVariant
	maxConcurrency int
	logger         *slog.Logger
}

// NewEngine creates a feature engine for the given flag variant.
func NewEngine(variant FlagVariant, logger *slog.Logger) (*Engine, error) {
	if !variant.IsValid() {
		return nil, fmt.Errorf("invalid flag variant: %q", variant)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		variant:        variant,
		maxConcurrency: 4,
		logger:         logger,
	}, nil
}

// SetConcurrency bounds the number of entity groups processed in parallel.
func (e *Engine) SetConcurrency(n int) {
	if n > 0 {
		e.maxConcurrency = n
	}
}

// Variant returns the configured flag variant.
func (e *Engine) Variant() FlagVariant { return e.variant }

// Engineer computes the feature table for a labeled event log. Holiday
// rows contribute to every aggregate but are dropped from the result, and
// the final table is ordered by record id descending. The input slice is
// not modified.
func (e *Engine) Engineer(ctx context.Context, events []attendance.Event) ([]FeatureRow, error) {
	start := time.Now()

	if err := e.validateInputs(events); err != nil {
		return nil, fmt.Errorf("validate inputs: %w", err)
	}

	groups, order := groupByEntity(events)
	e.logger.InfoContext(ctx, "engineering temporal features",
		slog.Int("events", len(events)),
		slog.Int("entities", len(groups)),
		slog.String("flag_variant", string(e.variant)),
	)

	results := make([][]FeatureRow, len(order))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.maxConcurrency)

	for idx, entityID := range order {
		idx, entityID := idx, entityID
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			results[idx] = e.entityRows(groups[entityID])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("engineer features: %w", err)
	}

	// Recombine, dropping holiday rows: they are never prediction targets
	// but have already fed the history of every later row.
	var rows []FeatureRow
	holidays := 0
	for _, rs := range results {
		for _, r := range rs {
			if r.Status.IsHoliday() {
				holidays++
				continue
			}
			rows = append(rows, r)
		}
	}

	sort.Slice(rows, func(i, j int) bool {
		return rows[i].RecordID > rows[j].RecordID
	})

	e.logger.InfoContext(ctx, "feature engineering completed",
		slog.Int("rows", len(rows)),
		slog.Int("holiday_rows_dropped", holidays),
		slog.Duration("elapsed", time.Since(start)),
	)
	return rows, nil
}

// validateInputs enforces the input invariants: every event carries an
// entity and a date, and one entity has at most one event per day.
func (e *Engine) validateInputs(events []attendance.Event) error {
	seen := make(map[string]map[time.Time]struct{})
	for i, ev := range events {
		if !ev.IsValid() {
			return fmt.Errorf("event %d (record %d): missing entity id or date", i, ev.RecordID)
		}
		day := attendance.Day(ev.Date)
		days, ok := seen[ev.EntityID]
		if !ok {
			days = make(map[time.Time]struct{})
			seen[ev.EntityID] = days
		}
		if _, dup := days[day]; dup {
			return fmt.Errorf("entity %s: duplicate event on %s", ev.EntityID, day.Format("2006-01-02"))
		}
		days[day] = struct{}{}
	}
	return nil
}

// groupByEntity splits the log into per-entity slices sorted by date
// ascending. The returned order is the first-seen order of entities, kept
// stable so runs are reproducible before the final record-id sort.
func groupByEntity(events []attendance.Event) (map[string][]attendance.Event, []string) {
	groups := make(map[string][]attendance.Event)
	var order []string
	for _, ev := range events {
		if _, ok := groups[ev.EntityID]; !ok {
			order = append(order, ev.EntityID)
		}
		groups[ev.EntityID] = append(groups[ev.EntityID], ev)
	}
	for _, g := range groups {
		sort.Slice(g, func(i, j int) bool { return g[i].Date.Before(g[j].Date) })
	}
	return groups, order
}

// entityRows computes the feature rows for one entity's date-ascending
// event slice. All aggregates read the strictly-prior calendar window
// [date-W, date); the current event never contributes to itself.
func (e *Engine) entityRows(events []attendance.Event) []FeatureRow {
	n := len(events)
	rows := make([]FeatureRow, n)

	dates := make([]time.Time, n)
	isLate := make([]bool, n)
	isAbsent := make([]bool, n)
	flagged := make([]bool, n)
	arrival := make([]int, n)
	for i, ev := range events {
		st := ev.Status()
		dates[i] = attendance.Day(ev.Date)
		isLate[i] = st == attendance.StatusLate
		isAbsent[i] = st == attendance.StatusAbsent
		flagged[i] = e.variant.Matches(st)
		arrival[i] = attendance.ToMinutes(ev.CheckinTime)
	}

	streaks := Streaks(flagged)

	// Short-window accumulators: variant flag count plus the arrival-time
	// mean. Missing arrivals stay out of both the numerator and the
	// denominator; an empty window still reports 0, not "no data".
	var flagSum, arrCount int
	var arrSum float64
	short := newRollingWindow(ShortWindowDays, dates,
		func(j int) {
			if flagged[j] {
				flagSum++
			}
			if !attendance.MinutesIsMissing(arrival[j]) {
				arrSum += float64(arrival[j])
				arrCount++
			}
		},
		func(j int) {
			if flagged[j] {
				flagSum--
			}
			if !attendance.MinutesIsMissing(arrival[j]) {
				arrSum -= float64(arrival[j])
				arrCount--
			}
		},
	)

	var absentSum int
	long := newRollingWindow(LongWindowDays, dates,
		func(j int) {
			if isAbsent[j] {
				absentSum++
			}
		},
		func(j int) {
			if isAbsent[j] {
				absentSum--
			}
		},
	)

	for i, ev := range events {
		short.Advance(i)
		long.Advance(i)

		lag := attendance.StatusAbsent
		if i > 0 {
			if prev := events[i-1].Status(); !prev.IsHoliday() {
				lag = prev
			}
		}

		avgArrival := 0.0
		if arrCount > 0 {
			avgArrival = arrSum / float64(arrCount)
		}

		rows[i] = FeatureRow{
			RecordID:       ev.RecordID,
			EntityID:       ev.EntityID,
			Date:           dates[i],
			CheckinTime:    ev.CheckinTime,
			CheckoutTime:   ev.CheckoutTime,
			Status:         ev.Status(),
			Lag1Status:     lag,
			CountFlag7D:    flagSum,
			CountAbsent30D: absentSum,
			AvgArrival7D:   avgArrival,
			Streak:         streaks[i],
			DayOfWeek:      mondayIndexedWeekday(dates[i]),
		}
	}
	return rows
}

// mondayIndexedWeekday maps time.Weekday (Sunday=0) onto the 0=Monday ..
// 6=Sunday convention the downstream classifier was trained with.
func mondayIndexedWeekday(d time.Time) int {
	return (int(d.Weekday()) + 6) % 7
}
