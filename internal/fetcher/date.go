package fetcher

import "time"

// CalendarDate converts a unix timestamp to the YYYY-MM-DD calendar date
// observed at the given offset from UTC. It never consults time.Local.
func CalendarDate(ts int64, offset time.Duration) string {
	zone := time.FixedZone("", int(offset/time.Second))
	return time.Unix(ts, 0).In(zone).Format(time.DateOnly)
}
