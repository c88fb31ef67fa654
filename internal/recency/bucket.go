// Package recency classifies threads by how recently they were updated, for
// grouping in a list view. Buckets compare calendar days in the caller's
// location, not 24-hour windows, so an update late last night is "yesterday"
// even if it was only a few hours ago.
package recency

import (
	"time"

	"github.com/dustin/go-humanize"

	"github.com/sfc-gh-cserrano/cortex-threads/pkg/cortex"
)

// Bucket is a derived classification of a thread's last-update time. It is
// never stored; callers recompute it against the current date.
type Bucket int

const (
	Today Bucket = iota
	Yesterday
	Older
)

func (b Bucket) String() string {
	switch b {
	case Today:
		return "today"
	case Yesterday:
		return "yesterday"
	default:
		return "older"
	}
}

// Of classifies an epoch-millisecond timestamp against now.
func Of(updatedOn int64, now time.Time) Bucket {
	t := time.UnixMilli(updatedOn).In(now.Location())

	ty, tm, td := t.Date()
	ny, nm, nd := now.Date()
	if ty == ny && tm == nm && td == nd {
		return Today
	}

	yy, ym, yd := now.AddDate(0, 0, -1).Date()
	if ty == yy && tm == ym && td == yd {
		return Yesterday
	}
	return Older
}

// Grouped holds thread summaries split by bucket, each preserving the
// server's native list order. Buckets render in declaration order.
type Grouped struct {
	Today     []cortex.ThreadSummary
	Yesterday []cortex.ThreadSummary
	Older     []cortex.ThreadSummary
}

// Group splits summaries into recency buckets without re-sorting them.
func Group(threads []cortex.ThreadSummary, now time.Time) Grouped {
	var g Grouped
	for _, th := range threads {
		switch Of(th.UpdatedOn, now) {
		case Today:
			g.Today = append(g.Today, th)
		case Yesterday:
			g.Yesterday = append(g.Yesterday, th)
		default:
			g.Older = append(g.Older, th)
		}
	}
	return g
}

// Label returns a human-friendly relative label ("12 minutes ago") for an
// epoch-millisecond timestamp.
func Label(updatedOn int64, now time.Time) string {
	return humanize.RelTime(time.UnixMilli(updatedOn), now, "ago", "from now")
}
