package allowlist

import "time"

// isoToday and isoDateDaysAgo back the default-param thunks so date
// defaults resolve relative to "today" on each call, never baked in at
// template load time.
func isoToday() string {
	return time.Now().UTC().Format("2006-01-02")
}

func isoDateDaysAgo(n int) string {
	return time.Now().UTC().AddDate(0, 0, -n).Format("2006-01-02")
}
