package domain

import "github.com/google/uuid"

// Column represents a workflow stage. Ordering is insertion order.
type Column struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Lane is a horizontal swimlane, orthogonal to columns. A board always has
// at least one lane.
type Lane struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Card is a single unit of work on the board. LaneID and ColumnID always
// reference live entities; Duration and Cost are free-text strings.
type Card struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Assignee string   `json:"assignee"`
	Duration string   `json:"duration"`
	Cost     string   `json:"cost"`
	Tools    []string `json:"tools"`
	Tags     []string `json:"tags"`
	Color    string   `json:"color"`
	Desc     string   `json:"desc"`
	LaneID   string   `json:"laneId"`
	ColumnID string   `json:"columnId"`
}

// TagEntry is a tag dictionary entry. Cards reference tags by name, so
// renaming an entry does not rename the tag on existing cards.
type TagEntry struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Assignee maps a person's name to the hourly rate used for cost estimates.
type Assignee struct {
	Name       string  `json:"name"`
	HourlyRate float64 `json:"hourlyRate"`
}

// Filter is the active card filter. Empty dimensions impose no constraint.
type Filter struct {
	Tags    []string `json:"tags"`
	Tools   []string `json:"tools"`
	LaneIDs []string `json:"laneIds"`
	Search  string   `json:"search"`
}

// BoardState is the canonical persisted shape of the whole board.
type BoardState struct {
	Columns      []Column   `json:"columns"`
	Lanes        []Lane     `json:"lanes"`
	Cards        []Card     `json:"cards"`
	TagDict      []TagEntry `json:"tagDict"`
	ToolDict     []string   `json:"toolDict"`
	AssigneeDict []Assignee `json:"assigneeDict"`
	Filter       Filter     `json:"filter"`
}

// BackupInfo describes one stored board snapshot.
type BackupInfo struct {
	Key       string `json:"key"`
	Timestamp string `json:"timestamp"`
}

const (
	defaultCardColor = "#7c9fff"
	defaultTagColor  = "#888888"
	defaultLaneTitle = "Geral"
)

// NewID returns a fresh opaque entity identifier.
func NewID() string {
	return uuid.NewString()
}

// DefaultState returns the seed board used when nothing has been persisted
// yet or when the board is cleared.
func DefaultState() BoardState {
	return BoardState{
		Columns: []Column{
			{ID: NewID(), Title: "Backlog"},
			{ID: NewID(), Title: "Doing"},
			{ID: NewID(), Title: "Done"},
		},
		Lanes: []Lane{
			{ID: NewID(), Title: defaultLaneTitle},
		},
		Cards: []Card{},
		TagDict: []TagEntry{
			{Name: "prio-alta", Color: "#ff5252"},
			{Name: "bug", Color: "#ffb300"},
		},
		ToolDict:     []string{"JavaScript", "Python"},
		AssigneeDict: []Assignee{},
		Filter:       Filter{Tags: []string{}, Tools: []string{}, LaneIDs: []string{}},
	}
}

// Clone returns a deep copy of the state so callers can hand it out without
// exposing the store's internals.
func (s BoardState) Clone() BoardState {
	out := s
	out.Columns = append([]Column(nil), s.Columns...)
	out.Lanes = append([]Lane(nil), s.Lanes...)
	out.Cards = append([]Card(nil), s.Cards...)
	for i := range out.Cards {
		out.Cards[i].Tools = append([]string(nil), s.Cards[i].Tools...)
		out.Cards[i].Tags = append([]string(nil), s.Cards[i].Tags...)
	}
	out.TagDict = append([]TagEntry(nil), s.TagDict...)
	out.ToolDict = append([]string(nil), s.ToolDict...)
	out.AssigneeDict = append([]Assignee(nil), s.AssigneeDict...)
	out.Filter.Tags = append([]string(nil), s.Filter.Tags...)
	out.Filter.Tools = append([]string(nil), s.Filter.Tools...)
	out.Filter.LaneIDs = append([]string(nil), s.Filter.LaneIDs...)
	return out
}
