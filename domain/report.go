package domain

import "strings"

// UnassignedBucket is the assignee grouping key for cards without an
// assignee.
const UnassignedBucket = "unassigned"

// Bucket accumulates time and money for one grouping key.
type Bucket struct {
	Cards    int     `json:"cards"`
	Minutes  int     `json:"minutes"`
	Duration string  `json:"duration"`
	Cost     float64 `json:"cost"`
}

// AssigneeBucket is an assignee rollup with per-lane and per-column
// drill-down.
type AssigneeBucket struct {
	Bucket
	ByLane   map[string]Bucket `json:"byLane"`
	ByColumn map[string]Bucket `json:"byColumn"`
}

// Report groups the filtered card set by column, lane and assignee. Buckets
// are keyed by entity id, assignee buckets by name.
type Report struct {
	ByColumn   map[string]Bucket         `json:"byColumn"`
	ByLane     map[string]Bucket         `json:"byLane"`
	ByAssignee map[string]AssigneeBucket `json:"byAssignee"`
}

// BuildReport aggregates duration and cost over the cards passing the
// active filter. Durations come from the free-text estimate via
// ParseDurationToMinutes; costs re-parse the cost string already stored on
// each card, so a stale stored cost wins over rate times duration. That
// asymmetry is intentional and matches how boards have historically
// behaved. The input state is not mutated.
func BuildReport(state BoardState) Report {
	report := Report{
		ByColumn:   map[string]Bucket{},
		ByLane:     map[string]Bucket{},
		ByAssignee: map[string]AssigneeBucket{},
	}
	for _, card := range state.Cards {
		if !PassesFilter(card, state.Filter) {
			continue
		}
		minutes := ParseDurationToMinutes(card.Duration)
		cost := ParseCost(card.Cost)

		accumulate(report.ByColumn, card.ColumnID, minutes, cost)
		accumulate(report.ByLane, card.LaneID, minutes, cost)

		name := strings.TrimSpace(card.Assignee)
		if name == "" {
			name = UnassignedBucket
		}
		group, ok := report.ByAssignee[name]
		if !ok {
			group = AssigneeBucket{
				ByLane:   map[string]Bucket{},
				ByColumn: map[string]Bucket{},
			}
		}
		group.Cards++
		group.Minutes += minutes
		group.Cost += cost
		accumulate(group.ByLane, card.LaneID, minutes, cost)
		accumulate(group.ByColumn, card.ColumnID, minutes, cost)
		report.ByAssignee[name] = group
	}

	formatBuckets(report.ByColumn)
	formatBuckets(report.ByLane)
	for name, group := range report.ByAssignee {
		group.Duration = FormatMinutes(group.Minutes)
		formatBuckets(group.ByLane)
		formatBuckets(group.ByColumn)
		report.ByAssignee[name] = group
	}
	return report
}

func accumulate(buckets map[string]Bucket, key string, minutes int, cost float64) {
	b := buckets[key]
	b.Cards++
	b.Minutes += minutes
	b.Cost += cost
	buckets[key] = b
}

func formatBuckets(buckets map[string]Bucket) {
	for key, b := range buckets {
		b.Duration = FormatMinutes(b.Minutes)
		buckets[key] = b
	}
}
