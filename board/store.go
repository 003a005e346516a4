package board

import (
	"context"
	"slices"
	"sync"

	log "github.com/sirupsen/logrus"

	"kanban-api/domain"
)

// Persister saves and loads the board record. Load reports ok=false when no
// record exists yet.
type Persister interface {
	Load(ctx context.Context) (domain.BoardState, bool, error)
	Save(ctx context.Context, state domain.BoardState) error
}

// Observer receives a copy of the full board state after every successful
// mutation.
type Observer func(domain.BoardState)

// Store owns the board state exclusively. Every mutation runs to
// completion under the lock, persists best-effort and then notifies
// observers synchronously in registration order. A persistence failure is
// logged and swallowed; the in-memory state stays authoritative for the
// session. Observers must not call back into the store.
type Store struct {
	mu        sync.Mutex
	state     domain.BoardState
	persister Persister
	observers []Observer
	logger    *log.Logger
}

// New loads the persisted board or seeds the default one. A missing record
// seeds and persists immediately; an unreadable record seeds without
// overwriting what is stored.
func New(ctx context.Context, p Persister, logger *log.Logger) *Store {
	if logger == nil {
		panic("board.New: logger is nil")
	}
	s := &Store{persister: p, logger: logger}
	state, ok, err := s.load(ctx)
	switch {
	case err != nil:
		logger.Errorf("load board: %v", err)
		s.state = domain.DefaultState()
	case !ok:
		s.state = domain.DefaultState()
		s.persist(ctx)
	default:
		s.state = domain.Migrate(state)
	}
	return s
}

// Subscribe registers an observer. Delivery is synchronous and follows
// registration order; there is no unsubscribe.
func (s *Store) Subscribe(obs Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, obs)
}

// State returns a deep copy of the current board.
func (s *Store) State() domain.BoardState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// CreateLane appends a new lane with a placeholder title.
func (s *Store) CreateLane(ctx context.Context) domain.Lane {
	s.mu.Lock()
	defer s.mu.Unlock()
	lane := domain.Lane{ID: domain.NewID(), Title: "Nova lane"}
	s.state.Lanes = append(s.state.Lanes, lane)
	s.commit(ctx)
	return lane
}

// UpdateLane merges the patch into the lane. Unknown ids are a silent
// no-op; no notification fires.
func (s *Store) UpdateLane(ctx context.Context, id string, patch domain.LanePatch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.state.Lanes {
		if s.state.Lanes[i].ID == id {
			patch.Apply(&s.state.Lanes[i])
			s.commit(ctx)
			return true
		}
	}
	return false
}

// DeleteLane removes the lane and moves its cards to the first remaining
// lane. Deleting the last lane is forbidden and returns false without
// mutating anything.
func (s *Store) DeleteLane(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.state.Lanes) == 1 {
		return false
	}
	idx := slices.IndexFunc(s.state.Lanes, func(l domain.Lane) bool { return l.ID == id })
	if idx < 0 {
		return false
	}

	var fallbackID string
	for _, lane := range s.state.Lanes {
		if lane.ID != id {
			fallbackID = lane.ID
			break
		}
	}
	for i := range s.state.Cards {
		if s.state.Cards[i].LaneID == id {
			s.state.Cards[i].LaneID = fallbackID
		}
	}
	s.state.Lanes = slices.Delete(s.state.Lanes, idx, idx+1)
	s.state.Filter.LaneIDs = slices.DeleteFunc(s.state.Filter.LaneIDs, func(laneID string) bool {
		return laneID == id
	})
	s.commit(ctx)
	return true
}

// CreateColumn appends a new column with a placeholder title.
func (s *Store) CreateColumn(ctx context.Context) domain.Column {
	s.mu.Lock()
	defer s.mu.Unlock()
	col := domain.Column{ID: domain.NewID(), Title: "Nova coluna"}
	s.state.Columns = append(s.state.Columns, col)
	s.commit(ctx)
	return col
}

// UpdateColumn merges the patch into the column; unknown ids no-op.
func (s *Store) UpdateColumn(ctx context.Context, id string, patch domain.ColumnPatch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.state.Columns {
		if s.state.Columns[i].ID == id {
			patch.Apply(&s.state.Columns[i])
			s.commit(ctx)
			return true
		}
	}
	return false
}

// DeleteColumn removes the column and cascades to every card in it.
func (s *Store) DeleteColumn(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := slices.IndexFunc(s.state.Columns, func(c domain.Column) bool { return c.ID == id })
	if idx < 0 {
		return false
	}
	s.state.Cards = slices.DeleteFunc(s.state.Cards, func(c domain.Card) bool {
		return c.ColumnID == id
	})
	s.state.Columns = slices.Delete(s.state.Columns, idx, idx+1)
	s.commit(ctx)
	return true
}

// CreateCard creates a card, defaulting its position to the first lane and
// first column when none is given.
func (s *Store) CreateCard(ctx context.Context, laneID, columnID string) domain.Card {
	s.mu.Lock()
	defer s.mu.Unlock()
	if laneID == "" && len(s.state.Lanes) > 0 {
		laneID = s.state.Lanes[0].ID
	}
	if columnID == "" && len(s.state.Columns) > 0 {
		columnID = s.state.Columns[0].ID
	}
	card := domain.Card{
		ID:       domain.NewID(),
		Title:    "Novo card",
		Color:    "#7c9fff",
		Tools:    []string{},
		Tags:     []string{},
		LaneID:   laneID,
		ColumnID: columnID,
	}
	s.state.Cards = append(s.state.Cards, card)
	s.commit(ctx)
	return card
}

// UpdateCard merges the patch into the card; unknown ids no-op.
func (s *Store) UpdateCard(ctx context.Context, id string, patch domain.CardPatch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.state.Cards {
		if s.state.Cards[i].ID == id {
			patch.Apply(&s.state.Cards[i])
			s.commit(ctx)
			return true
		}
	}
	return false
}

// MoveCard sets the card's lane and/or column. It notifies even when the
// target equals the current position; callers wanting to skip redundant
// persist cycles must filter no-op moves themselves.
func (s *Store) MoveCard(ctx context.Context, id string, loc domain.CardLocation) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.state.Cards {
		if s.state.Cards[i].ID == id {
			if loc.LaneID != "" {
				s.state.Cards[i].LaneID = loc.LaneID
			}
			if loc.ColumnID != "" {
				s.state.Cards[i].ColumnID = loc.ColumnID
			}
			s.commit(ctx)
			return true
		}
	}
	return false
}

// DeleteCard removes the card by id.
func (s *Store) DeleteCard(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := slices.IndexFunc(s.state.Cards, func(c domain.Card) bool { return c.ID == id })
	if idx < 0 {
		return false
	}
	s.state.Cards = slices.Delete(s.state.Cards, idx, idx+1)
	s.commit(ctx)
	return true
}

// UpdateTagDict replaces the tag dictionary wholesale.
func (s *Store) UpdateTagDict(ctx context.Context, tags []domain.TagEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.TagDict = append([]domain.TagEntry{}, tags...)
	s.commit(ctx)
}

// UpdateToolDict replaces the tool dictionary, deduplicating while keeping
// first-occurrence order.
func (s *Store) UpdateToolDict(ctx context.Context, tools []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deduped := make([]string, 0, len(tools))
	seen := make(map[string]struct{}, len(tools))
	for _, tool := range tools {
		if _, dup := seen[tool]; dup {
			continue
		}
		seen[tool] = struct{}{}
		deduped = append(deduped, tool)
	}
	s.state.ToolDict = deduped
	s.commit(ctx)
}

// UpdateAssigneeDict replaces the assignee dictionary. Entries without a
// strictly positive hourly rate are dropped to keep the rate invariant.
func (s *Store) UpdateAssigneeDict(ctx context.Context, assignees []domain.Assignee) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := make([]domain.Assignee, 0, len(assignees))
	for _, a := range assignees {
		if a.Name == "" || a.HourlyRate <= 0 {
			continue
		}
		kept = append(kept, a)
	}
	s.state.AssigneeDict = kept
	s.commit(ctx)
}

// UpdateFilter merges the patch into the active filter.
func (s *Store) UpdateFilter(ctx context.Context, patch domain.FilterPatch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	patch.Apply(&s.state.Filter)
	s.commit(ctx)
}

// SetState replaces the whole board after the same migration pass used at
// load time.
func (s *Store) SetState(ctx context.Context, state domain.BoardState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = domain.Migrate(state.Clone())
	s.commit(ctx)
}

// ClearBoard resets the board to the default seed state.
func (s *Store) ClearBoard(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = domain.DefaultState()
	s.commit(ctx)
}

func (s *Store) load(ctx context.Context) (domain.BoardState, bool, error) {
	if s.persister == nil {
		return domain.BoardState{}, false, nil
	}
	return s.persister.Load(ctx)
}

// commit persists best-effort and fans the new state out to observers.
// Callers hold the lock.
func (s *Store) commit(ctx context.Context) {
	s.persist(ctx)
	snapshot := s.state.Clone()
	for _, obs := range s.observers {
		obs(snapshot)
	}
}

func (s *Store) persist(ctx context.Context) {
	if s.persister == nil {
		return
	}
	if err := s.persister.Save(ctx, s.state.Clone()); err != nil {
		s.logger.Errorf("persist board: %v", err)
	}
}
