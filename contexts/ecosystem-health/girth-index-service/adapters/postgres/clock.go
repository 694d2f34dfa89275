package postgresadapter

import "time"

// SystemClock is the runtime clock; scoring windows are computed in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
