package attendance

import (
	"log/slog"
	"math"
)

// DefaultActivityThresholdPct is the minimum presence rate (percent) an
// entity must reach across its full observed history to survive the
// low-activity filter.
const DefaultActivityThresholdPct = 10.0

// PresenceRates computes, per entity, the percentage of events that carry
// a check-in timestamp. Rates are unrounded; rounding is reporting-only.
func PresenceRates(events []Event) map[string]float64 {
	total := make(map[string]int)
	present := make(map[string]int)
	for _, e := range events {
		total[e.EntityID]++
		if e.HasCheckin() {
			present[e.EntityID]++
		}
	}

	rates := make(map[string]float64, len(total))
	for id, n := range total {
		rates[id] = float64(present[id]) / float64(n) * 100
	}
	return rates
}

// FilterLowActivity removes every event belonging to an entity whose
// presence rate is below thresholdPct. Filtering is at entity granularity:
// surviving entities keep their full event sequence so no time series is
// truncated asymmetrically. The inclusion decision compares the unrounded
// rate; the logged rate is rounded to 2 decimals.
func FilterLowActivity(events []Event, thresholdPct float64, logger *slog.Logger) []Event {
	if logger == nil {
		logger = slog.Default()
	}

	rates := PresenceRates(events)
	dropped := LowActivityEntities(rates, thresholdPct)
	if len(dropped) == 0 {
		return events
	}

	for id := range dropped {
		logger.Info("dropping low-activity entity",
			slog.String("entity_id", id),
			slog.Float64("presence_rate_pct", math.Round(rates[id]*100)/100),
			slog.Float64("threshold_pct", thresholdPct),
		)
	}

	out := make([]Event, 0, len(events))
	for _, e := range events {
		if _, drop := dropped[e.EntityID]; !drop {
			out = append(out, e)
		}
	}
	return out
}

// LowActivityEntities returns the set of entity ids whose rate falls below
// thresholdPct. Exposed separately so the pipeline can compute rates on
// the full labeled history and apply the removal to the final feature
// table, where holiday rows are already gone.
func LowActivityEntities(rates map[string]float64, thresholdPct float64) map[string]struct{} {
	dropped := make(map[string]struct{})
	for id, rate := range rates {
		if rate < thresholdPct {
			dropped[id] = struct{}{}
		}
	}
	return dropped
}
