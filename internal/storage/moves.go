package storage

import (
	"sort"

	"github.com/mcoot/gridrace/internal/model"
)

// SortAndLimitMoves orders move events newest first and truncates to limit.
// A limit of zero or less keeps everything.
func SortAndLimitMoves(events []*model.CarMoveEvent, limit int) []*model.CarMoveEvent {
	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].Timestamp.Equal(events[j].Timestamp) {
			return events[i].Timestamp.After(events[j].Timestamp)
		}
		return events[i].ID > events[j].ID
	})
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	return events
}
