package domain

// Partial-update shapes accepted by the board store. A nil field leaves the
// current value untouched; entity shapes themselves never grow ad-hoc keys.

// LanePatch updates lane fields selectively.
type LanePatch struct {
	Title *string `json:"title,omitempty"`
}

// ColumnPatch updates column fields selectively.
type ColumnPatch struct {
	Title *string `json:"title,omitempty"`
}

// CardPatch updates card fields selectively.
type CardPatch struct {
	Title    *string   `json:"title,omitempty"`
	Assignee *string   `json:"assignee,omitempty"`
	Duration *string   `json:"duration,omitempty"`
	Cost     *string   `json:"cost,omitempty"`
	Tools    *[]string `json:"tools,omitempty"`
	Tags     *[]string `json:"tags,omitempty"`
	Color    *string   `json:"color,omitempty"`
	Desc     *string   `json:"desc,omitempty"`
	LaneID   *string   `json:"laneId,omitempty"`
	ColumnID *string   `json:"columnId,omitempty"`
}

// CardLocation names the target position of a card move. An empty field
// keeps the card's current lane or column.
type CardLocation struct {
	LaneID   string `json:"laneId,omitempty"`
	ColumnID string `json:"columnId,omitempty"`
}

// FilterPatch merges into the active filter.
type FilterPatch struct {
	Tags    *[]string `json:"tags,omitempty"`
	Tools   *[]string `json:"tools,omitempty"`
	LaneIDs *[]string `json:"laneIds,omitempty"`
	Search  *string   `json:"search,omitempty"`
}

// Apply merges the patch onto the lane.
func (p LanePatch) Apply(l *Lane) {
	if p.Title != nil {
		l.Title = *p.Title
	}
}

// Apply merges the patch onto the column.
func (p ColumnPatch) Apply(c *Column) {
	if p.Title != nil {
		c.Title = *p.Title
	}
}

// Apply merges the patch onto the card.
func (p CardPatch) Apply(c *Card) {
	if p.Title != nil {
		c.Title = *p.Title
	}
	if p.Assignee != nil {
		c.Assignee = *p.Assignee
	}
	if p.Duration != nil {
		c.Duration = *p.Duration
	}
	if p.Cost != nil {
		c.Cost = *p.Cost
	}
	if p.Tools != nil {
		c.Tools = append([]string(nil), (*p.Tools)...)
	}
	if p.Tags != nil {
		c.Tags = append([]string(nil), (*p.Tags)...)
	}
	if p.Color != nil {
		c.Color = *p.Color
	}
	if p.Desc != nil {
		c.Desc = *p.Desc
	}
	if p.LaneID != nil {
		c.LaneID = *p.LaneID
	}
	if p.ColumnID != nil {
		c.ColumnID = *p.ColumnID
	}
}

// Apply merges the patch onto the filter.
func (p FilterPatch) Apply(f *Filter) {
	if p.Tags != nil {
		f.Tags = append([]string(nil), (*p.Tags)...)
	}
	if p.Tools != nil {
		f.Tools = append([]string(nil), (*p.Tools)...)
	}
	if p.LaneIDs != nil {
		f.LaneIDs = append([]string(nil), (*p.LaneIDs)...)
	}
	if p.Search != nil {
		f.Search = *p.Search
	}
}
