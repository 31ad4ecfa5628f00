package metrics

import "time"

// bucketTimeFormat keys one-minute counting windows by wall-clock UTC
// time truncated to the minute. The layout is fixed-width and sortable.
const bucketTimeFormat = "2006-01-02-15-04"

const (
	requestsKeyPrefix  = "metrics:requests:"
	errorsKeyPrefix    = "metrics:errors:"
	latenciesKeyPrefix = "metrics:latencies:"
	usersKeyPrefix     = "metrics:users:"
)

// BucketKey returns the minute-bucket key for t.
func BucketKey(t time.Time) string {
	return t.UTC().Format(bucketTimeFormat)
}

// recentBucketKeys returns the keys for now and the preceding count-1
// minutes, newest first.
func recentBucketKeys(now time.Time, count int) []string {
	keys := make([]string, 0, count)
	for i := 0; i < count; i++ {
		keys = append(keys, BucketKey(now.Add(-time.Duration(i)*time.Minute)))
	}
	return keys
}
