// Package schedule computes when a video's next engagement measurement is
// due. Measurements follow a fixed milestone ladder after publication
// (1h, 3h, 24h, 48h, 72h), then taper to a daily cadence. The package is
// pure: it performs no I/O and never reads the wall clock.
package schedule

import (
	"time"

	"github.com/reel-tracker/metrics-scheduler-go/internal/db/models"
)

// Milestone is one fixed measurement offset from a video's publication.
type Milestone struct {
	Kind   models.ScheduleKind
	Offset time.Duration
}

// Milestones is the ladder of measurement offsets, in scheduling order.
var Milestones = []Milestone{
	{Kind: models.KindH1, Offset: time.Hour},
	{Kind: models.KindH3, Offset: 3 * time.Hour},
	{Kind: models.KindH24, Offset: 24 * time.Hour},
	{Kind: models.KindH48, Offset: 48 * time.Hour},
	{Kind: models.KindH72, Offset: 72 * time.Hour},
}

const (
	// milestonePhase is how long the milestone ladder applies after
	// publication. Older videos are measured daily.
	milestonePhase = 72 * time.Hour

	dailyInterval = 24 * time.Hour
)

// Completed describes one completed measurement in a video's history.
type Completed struct {
	Kind        models.ScheduleKind
	ScheduledAt time.Time
}

// Next is the computed next measurement slot for a video.
type Next struct {
	Kind        models.ScheduleKind
	ScheduledAt time.Time
}

// NextSchedule determines the next measurement slot for a video published at
// publishedAt, given the current time and the video's completed measurement
// history. Failed measurements must not appear in history; they count as
// not yet achieved so the slot can be attempted again.
//
// Returns ok=false when the video is already covered: every remaining
// milestone before the next upcoming one has been measured and that upcoming
// milestone is measured too.
func NextSchedule(publishedAt, now time.Time, history []Completed) (Next, bool) {
	if now.Sub(publishedAt) < milestonePhase {
		measured := make(map[models.ScheduleKind]bool, len(history))
		for _, h := range history {
			measured[h.Kind] = true
		}

		upcoming := false
		for _, m := range Milestones {
			at := publishedAt.Add(m.Offset)
			if !at.After(now) {
				// Milestone already passed; it is never scheduled late.
				continue
			}
			upcoming = true
			if !measured[m.Kind] {
				return Next{Kind: m.Kind, ScheduledAt: at}, true
			}
		}
		if upcoming {
			return Next{}, false
		}
		// Every milestone time is in the past; switch to the daily cadence.
	}

	return nextDaily(now, history), true
}

// nextDaily anchors the daily cadence to the most recent completed daily
// measurement's scheduled time, independent of when sweeps actually run.
// The first daily measurement starts at the next full hour.
func nextDaily(now time.Time, history []Completed) Next {
	var last time.Time
	for _, h := range history {
		if h.Kind == models.KindDaily && h.ScheduledAt.After(last) {
			last = h.ScheduledAt
		}
	}

	if !last.IsZero() {
		return Next{Kind: models.KindDaily, ScheduledAt: last.Add(dailyInterval)}
	}
	return Next{Kind: models.KindDaily, ScheduledAt: NextFullHour(now)}
}

// NextFullHour returns the first exact hour boundary strictly after t.
func NextFullHour(t time.Time) time.Time {
	return t.Truncate(time.Hour).Add(time.Hour)
}
