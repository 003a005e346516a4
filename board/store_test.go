package board

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"

	"kanban-api/domain"
)

type memPersister struct {
	state   domain.BoardState
	ok      bool
	loadErr error
	saveErr error
	saves   int
}

func (m *memPersister) Load(ctx context.Context) (domain.BoardState, bool, error) {
	if m.loadErr != nil {
		return domain.BoardState{}, false, m.loadErr
	}
	return m.state, m.ok, nil
}

func (m *memPersister) Save(ctx context.Context, state domain.BoardState) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.state = state
	m.ok = true
	m.saves++
	return nil
}

func newTestStore(t *testing.T, p Persister) *Store {
	t.Helper()
	logger, _ := test.NewNullLogger()
	return New(context.Background(), p, logger)
}

func TestNewSeedsAndPersistsDefaultState(t *testing.T) {
	p := &memPersister{}
	s := newTestStore(t, p)

	state := s.State()
	if len(state.Columns) != 3 || state.Columns[0].Title != "Backlog" {
		t.Fatalf("unexpected seed columns: %+v", state.Columns)
	}
	if len(state.Lanes) != 1 || state.Lanes[0].Title != "Geral" {
		t.Fatalf("unexpected seed lanes: %+v", state.Lanes)
	}
	if p.saves != 1 {
		t.Fatalf("expected seed state persisted once, got %d saves", p.saves)
	}
}

func TestNewMigratesLoadedState(t *testing.T) {
	p := &memPersister{state: domain.BoardState{Columns: []domain.Column{{ID: "c", Title: "Only"}}}, ok: true}
	s := newTestStore(t, p)

	state := s.State()
	if len(state.Columns) != 1 || state.Columns[0].Title != "Only" {
		t.Fatalf("persisted state not loaded: %+v", state.Columns)
	}
	if len(state.Lanes) != 1 {
		t.Fatalf("expected migration to add a lane, got %+v", state.Lanes)
	}
}

func TestNewSurvivesLoadFailure(t *testing.T) {
	p := &memPersister{loadErr: errors.New("redis down")}
	s := newTestStore(t, p)
	if len(s.State().Columns) != 3 {
		t.Fatal("expected default state after load failure")
	}
	if p.saves != 0 {
		t.Fatal("must not overwrite the stored record after a load failure")
	}
}

func TestDeleteLastLaneRejected(t *testing.T) {
	s := newTestStore(t, &memPersister{})
	laneID := s.State().Lanes[0].ID
	if s.DeleteLane(context.Background(), laneID) {
		t.Fatal("deleting the sole lane must fail")
	}
	if len(s.State().Lanes) != 1 {
		t.Fatal("lane count dropped below one")
	}
}

func TestDeleteLaneReassignsCards(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, &memPersister{})
	l1 := s.State().Lanes[0].ID
	l2 := s.CreateLane(ctx).ID

	c1 := s.CreateCard(ctx, l1, "")
	c2 := s.CreateCard(ctx, l1, "")
	s.UpdateFilter(ctx, domain.FilterPatch{LaneIDs: &[]string{l1, l2}})

	if !s.DeleteLane(ctx, l1) {
		t.Fatal("delete of non-last lane failed")
	}
	state := s.State()
	if len(state.Lanes) != 1 || state.Lanes[0].ID != l2 {
		t.Fatalf("unexpected lanes after delete: %+v", state.Lanes)
	}
	for _, card := range state.Cards {
		if card.ID == c1.ID || card.ID == c2.ID {
			if card.LaneID != l2 {
				t.Fatalf("card %s not reassigned: laneId=%s", card.ID, card.LaneID)
			}
		}
	}
	if len(state.Filter.LaneIDs) != 1 || state.Filter.LaneIDs[0] != l2 {
		t.Fatalf("deleted lane id not stripped from filter: %+v", state.Filter.LaneIDs)
	}
}

func TestDeleteColumnCascades(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, &memPersister{})
	state := s.State()
	colA, colB := state.Columns[0].ID, state.Columns[1].ID

	inA := s.CreateCard(ctx, "", colA)
	inB := s.CreateCard(ctx, "", colB)

	if !s.DeleteColumn(ctx, colA) {
		t.Fatal("delete column failed")
	}
	state = s.State()
	if len(state.Columns) != 2 {
		t.Fatalf("unexpected columns: %+v", state.Columns)
	}
	for _, card := range state.Cards {
		if card.ID == inA.ID {
			t.Fatal("card in deleted column survived")
		}
	}
	found := false
	for _, card := range state.Cards {
		if card.ID == inB.ID {
			found = true
		}
	}
	if !found {
		t.Fatal("card in another column was deleted")
	}
	if s.DeleteColumn(ctx, "missing") {
		t.Fatal("deleting an unknown column must return false")
	}
}

func TestCreateCardDefaultsPosition(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, &memPersister{})
	state := s.State()

	card := s.CreateCard(ctx, "", "")
	if card.LaneID != state.Lanes[0].ID || card.ColumnID != state.Columns[0].ID {
		t.Fatalf("card not defaulted to first lane/column: %+v", card)
	}
}

func TestUpdateCardMergesPatch(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, &memPersister{})
	card := s.CreateCard(ctx, "", "")

	title := "Estimate API"
	duration := "1d 2h"
	if !s.UpdateCard(ctx, card.ID, domain.CardPatch{Title: &title, Duration: &duration}) {
		t.Fatal("update of existing card failed")
	}
	got := s.State().Cards[0]
	if got.Title != title || got.Duration != duration {
		t.Fatalf("patch not applied: %+v", got)
	}
	if got.Color != card.Color {
		t.Fatalf("untouched field changed: %q", got.Color)
	}
	if s.UpdateCard(ctx, "missing", domain.CardPatch{Title: &title}) {
		t.Fatal("update of unknown card must be a no-op returning false")
	}
}

func TestMoveCardNotifiesEvenWhenPositionUnchanged(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, &memPersister{})
	card := s.CreateCard(ctx, "", "")

	notifications := 0
	s.Subscribe(func(domain.BoardState) { notifications++ })

	if !s.MoveCard(ctx, card.ID, domain.CardLocation{LaneID: card.LaneID, ColumnID: card.ColumnID}) {
		t.Fatal("move of existing card failed")
	}
	if notifications != 1 {
		t.Fatalf("expected notification on no-op move, got %d", notifications)
	}
	if s.MoveCard(ctx, "missing", domain.CardLocation{LaneID: card.LaneID}) {
		t.Fatal("move of unknown card must be a no-op")
	}
	if notifications != 1 {
		t.Fatal("unknown-card move must not notify")
	}
}

func TestObserversRunInRegistrationOrder(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, &memPersister{})

	var order []int
	s.Subscribe(func(domain.BoardState) { order = append(order, 1) })
	s.Subscribe(func(domain.BoardState) { order = append(order, 2) })
	s.Subscribe(func(domain.BoardState) { order = append(order, 3) })

	s.CreateLane(ctx)
	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Fatalf("unexpected delivery order: %v", order)
	}
}

func TestObserverReceivesCopy(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, &memPersister{})
	s.Subscribe(func(state domain.BoardState) {
		state.Lanes[0].Title = "mutated"
	})
	s.CreateCard(ctx, "", "")

	if s.State().Lanes[0].Title == "mutated" {
		t.Fatal("observer mutation leaked into the store")
	}
}

func TestPersistFailureDoesNotRollBack(t *testing.T) {
	ctx := context.Background()
	p := &memPersister{}
	logger, hook := test.NewNullLogger()
	s := New(ctx, p, logger)

	p.saveErr = errors.New("quota exceeded")
	lane := s.CreateLane(ctx)

	found := false
	for _, l := range s.State().Lanes {
		if l.ID == lane.ID {
			found = true
		}
	}
	if !found {
		t.Fatal("mutation rolled back on persist failure")
	}
	if hook.LastEntry() == nil {
		t.Fatal("expected persist failure to be logged")
	}
}

func TestUpdateToolDictDeduplicates(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, &memPersister{})
	s.UpdateToolDict(ctx, []string{"Go", "Python", "Go", "Rust", "Python"})

	got := s.State().ToolDict
	want := []string{"Go", "Python", "Rust"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestUpdateAssigneeDictDropsNonPositiveRates(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, &memPersister{})
	s.UpdateAssigneeDict(ctx, []domain.Assignee{
		{Name: "Ana", HourlyRate: 100},
		{Name: "Bia", HourlyRate: 0},
		{Name: "", HourlyRate: 50},
	})
	got := s.State().AssigneeDict
	if len(got) != 1 || got[0].Name != "Ana" {
		t.Fatalf("expected only positive-rate entries kept, got %+v", got)
	}
}

func TestClearBoardRestoresSeed(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, &memPersister{})
	s.CreateCard(ctx, "", "")
	s.UpdateFilter(ctx, domain.FilterPatch{Search: strPtr("x")})

	s.ClearBoard(ctx)
	state := s.State()
	if len(state.Cards) != 0 {
		t.Fatalf("expected no cards after clear, got %d", len(state.Cards))
	}
	if len(state.Columns) != 3 || state.Columns[2].Title != "Done" {
		t.Fatalf("seed columns not restored: %+v", state.Columns)
	}
	if len(state.TagDict) != 2 || state.TagDict[0].Name != "prio-alta" {
		t.Fatalf("seed tag dictionary not restored: %+v", state.TagDict)
	}
	if state.Filter.Search != "" {
		t.Fatal("filter not reset")
	}
}

func TestSetStateRunsMigration(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, &memPersister{})
	s.SetState(ctx, domain.BoardState{Columns: []domain.Column{{ID: "c1", Title: "Todo"}}})

	state := s.State()
	if len(state.Columns) != 1 || state.Columns[0].Title != "Todo" {
		t.Fatalf("state not replaced: %+v", state.Columns)
	}
	if len(state.Lanes) != 1 {
		t.Fatal("migration did not restore the lane invariant")
	}
}

func strPtr(s string) *string { return &s }
