package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// FormatError is returned when an import payload does not match any known
// board format. Individual malformed entries never produce it; they are
// dropped during coercion. Only a total structural mismatch fails.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string {
	return "unrecognized board format: " + e.Reason
}

// Normalize validates an import payload and converts it into canonical
// board state. Two shapes are accepted: the canonical object with columns,
// lanes and cards arrays, and the legacy array of columns with nested
// cards. Anything else fails with *FormatError and no partial result.
func Normalize(raw []byte) (BoardState, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return BoardState{}, &FormatError{Reason: "empty payload"}
	}
	if trimmed[0] == '[' {
		return normalizeLegacy(trimmed)
	}
	return normalizeCanonical(trimmed)
}

// Migrate fills absent collections so state restored from persistence or
// replaced wholesale always satisfies the board invariants. It is lenient
// on purpose; strict validation belongs to Normalize at the import gate.
func Migrate(state BoardState) BoardState {
	if state.Columns == nil {
		state.Columns = []Column{}
	}
	if len(state.Lanes) == 0 {
		state.Lanes = []Lane{{ID: NewID(), Title: defaultLaneTitle}}
	}
	if state.Cards == nil {
		state.Cards = []Card{}
	}
	if state.TagDict == nil {
		state.TagDict = []TagEntry{}
	}
	if state.ToolDict == nil {
		state.ToolDict = []string{}
	}
	if state.AssigneeDict == nil {
		state.AssigneeDict = []Assignee{}
	}
	if state.Filter.Tags == nil {
		state.Filter.Tags = []string{}
	}
	if state.Filter.Tools == nil {
		state.Filter.Tools = []string{}
	}
	if state.Filter.LaneIDs == nil {
		state.Filter.LaneIDs = []string{}
	}
	return state
}

func normalizeCanonical(raw []byte) (BoardState, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return BoardState{}, &FormatError{Reason: "invalid JSON"}
	}
	columns, okColumns := rawArray(doc["columns"])
	lanes, okLanes := rawArray(doc["lanes"])
	cards, okCards := rawArray(doc["cards"])
	if !okColumns || !okLanes || !okCards {
		return BoardState{}, &FormatError{Reason: "unrecognized format"}
	}
	tags, _ := rawArray(doc["tagDict"])
	tools, _ := rawArray(doc["toolDict"])
	assignees, _ := rawArray(doc["assigneeDict"])

	state := BoardState{
		Columns:      normalizeColumns(columns),
		Lanes:        normalizeLanes(lanes),
		Cards:        normalizeCards(cards),
		TagDict:      normalizeTagDict(tags),
		ToolDict:     normalizeToolDict(tools),
		AssigneeDict: normalizeAssigneeDict(assignees),
		Filter:       normalizeFilter(doc["filter"]),
	}
	return state, nil
}

func normalizeLegacy(raw []byte) (BoardState, error) {
	var items []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil || len(items) == 0 {
		return BoardState{}, &FormatError{Reason: "unrecognized format"}
	}
	first := items[0]
	if _, ok := first["title"]; !ok {
		return BoardState{}, &FormatError{Reason: "unrecognized format"}
	}
	_, hasCards := first["cards"]
	_, hasID := first["id"]
	if !hasCards && !hasID {
		return BoardState{}, &FormatError{Reason: "unrecognized format"}
	}

	lane := Lane{ID: NewID(), Title: defaultLaneTitle}
	state := BoardState{
		Columns:      []Column{},
		Lanes:        []Lane{lane},
		Cards:        []Card{},
		TagDict:      []TagEntry{},
		ToolDict:     []string{},
		AssigneeDict: []Assignee{},
		Filter:       Filter{Tags: []string{}, Tools: []string{}, LaneIDs: []string{}},
	}
	for _, item := range items {
		col := Column{ID: decodeString(item["id"]), Title: decodeString(item["title"])}
		if col.ID == "" {
			col.ID = NewID()
		}
		if col.Title == "" {
			col.Title = "Coluna"
		}
		state.Columns = append(state.Columns, col)

		nested, _ := rawArray(item["cards"])
		for _, rawCard := range nested {
			var legacy struct {
				ID       string          `json:"id"`
				Title    string          `json:"title"`
				Name     string          `json:"name"`
				Assignee string          `json:"assignee"`
				Duration string          `json:"duration"`
				Cost     string          `json:"cost"`
				Tools    json.RawMessage `json:"tools"`
				Tags     json.RawMessage `json:"tags"`
				Color    string          `json:"color"`
				Desc     string          `json:"desc"`
			}
			if err := json.Unmarshal(rawCard, &legacy); err != nil {
				continue
			}
			title := legacy.Title
			if title == "" {
				title = legacy.Name
			}
			if title == "" {
				title = "Sem título"
			}
			card := Card{
				ID:       legacy.ID,
				Title:    title,
				Assignee: legacy.Assignee,
				Duration: legacy.Duration,
				Cost:     legacy.Cost,
				Tools:    stringArrayOrEmpty(legacy.Tools),
				Tags:     stringArrayOrEmpty(legacy.Tags),
				Color:    legacy.Color,
				Desc:     legacy.Desc,
				LaneID:   lane.ID,
				ColumnID: col.ID,
			}
			if card.ID == "" {
				card.ID = NewID()
			}
			if card.Color == "" {
				card.Color = defaultCardColor
			}
			state.Cards = append(state.Cards, card)
		}
	}
	return state, nil
}

func normalizeColumns(items []json.RawMessage) []Column {
	out := make([]Column, 0, len(items))
	for _, item := range items {
		var col Column
		if err := json.Unmarshal(item, &col); err != nil {
			continue
		}
		if col.ID == "" {
			col.ID = NewID()
		}
		if col.Title == "" {
			col.Title = "Coluna"
		}
		out = append(out, col)
	}
	return out
}

func normalizeLanes(items []json.RawMessage) []Lane {
	out := make([]Lane, 0, len(items))
	for _, item := range items {
		var lane Lane
		if err := json.Unmarshal(item, &lane); err != nil {
			continue
		}
		if lane.ID == "" {
			lane.ID = NewID()
		}
		if lane.Title == "" {
			lane.Title = "Lane"
		}
		out = append(out, lane)
	}
	// A board without lanes is unusable, so an empty set falls back to a
	// single synthetic lane instead of failing the import.
	if len(out) == 0 {
		out = []Lane{{ID: NewID(), Title: defaultLaneTitle}}
	}
	return out
}

func normalizeCards(items []json.RawMessage) []Card {
	out := make([]Card, 0, len(items))
	for _, item := range items {
		var card Card
		if err := json.Unmarshal(item, &card); err != nil {
			continue
		}
		// Cards must name a lane and a column; nothing sensible can be
		// generated for membership, so these are the only dropping fields.
		if card.LaneID == "" || card.ColumnID == "" {
			continue
		}
		if card.ID == "" {
			card.ID = NewID()
		}
		if card.Title == "" {
			card.Title = "Card"
		}
		if card.Color == "" {
			card.Color = defaultCardColor
		}
		if card.Tools == nil {
			card.Tools = []string{}
		}
		if card.Tags == nil {
			card.Tags = []string{}
		}
		out = append(out, card)
	}
	return out
}

func normalizeTagDict(items []json.RawMessage) []TagEntry {
	out := make([]TagEntry, 0, len(items))
	for _, item := range items {
		var tag TagEntry
		if err := json.Unmarshal(item, &tag); err != nil {
			continue
		}
		if tag.Name == "" {
			continue
		}
		if tag.Color == "" {
			tag.Color = defaultTagColor
		}
		out = append(out, tag)
	}
	return out
}

func normalizeToolDict(items []json.RawMessage) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		var tool string
		if err := json.Unmarshal(item, &tool); err != nil {
			continue
		}
		if tool == "" {
			continue
		}
		if _, dup := seen[tool]; dup {
			continue
		}
		seen[tool] = struct{}{}
		out = append(out, tool)
	}
	return out
}

func normalizeAssigneeDict(items []json.RawMessage) []Assignee {
	out := make([]Assignee, 0, len(items))
	for _, item := range items {
		var entry struct {
			Name       string          `json:"name"`
			HourlyRate json.RawMessage `json:"hourlyRate"`
		}
		if err := json.Unmarshal(item, &entry); err != nil {
			continue
		}
		rate, ok := decodeRate(entry.HourlyRate)
		if entry.Name == "" || !ok || rate <= 0 {
			continue
		}
		out = append(out, Assignee{Name: entry.Name, HourlyRate: rate})
	}
	return out
}

func normalizeFilter(raw json.RawMessage) Filter {
	var filter Filter
	if raw != nil {
		_ = json.Unmarshal(raw, &filter)
	}
	if filter.Tags == nil {
		filter.Tags = []string{}
	}
	if filter.Tools == nil {
		filter.Tools = []string{}
	}
	if filter.LaneIDs == nil {
		filter.LaneIDs = []string{}
	}
	return filter
}

func rawArray(raw json.RawMessage) ([]json.RawMessage, bool) {
	if raw == nil {
		return nil, false
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false
	}
	return items, true
}

func decodeString(raw json.RawMessage) string {
	var s string
	if raw == nil || json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}

func stringArrayOrEmpty(raw json.RawMessage) []string {
	var out []string
	if raw == nil || json.Unmarshal(raw, &out) != nil || out == nil {
		return []string{}
	}
	return out
}

// decodeRate accepts a JSON number or a numeric-looking string.
func decodeRate(raw json.RawMessage) (float64, bool) {
	if raw == nil {
		return 0, false
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return v, true
		}
	}
	return 0, false
}
