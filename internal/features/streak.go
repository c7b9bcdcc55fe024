package features

// Streaks returns, for each position, the number of consecutive flagged
// events immediately preceding it. The first position is always 0 and the
// counter resets to 0 right after any non-flagged event:
//
//	flags:   F T T T F T
//	streaks: 0 0 1 2 3 0
//
// This is the event-sequence analogue of a run-length counter shifted
// forward by one, so each row sees only the streak that ended before it.
func Streaks(flags []bool) []int {
	out := make([]int, len(flags))
	run := 0
	for i, flagged := range flags {
		out[i] = run
		if flagged {
			run++
		} else {
			run = 0
		}
	}
	return out
}
