package api

import (
	"context"

	"kanban-api/domain"
)

// BoardStore is the mutable board the handlers operate on.
type BoardStore interface {
	State() domain.BoardState
	CreateLane(ctx context.Context) domain.Lane
	UpdateLane(ctx context.Context, id string, patch domain.LanePatch) bool
	DeleteLane(ctx context.Context, id string) bool
	CreateColumn(ctx context.Context) domain.Column
	UpdateColumn(ctx context.Context, id string, patch domain.ColumnPatch) bool
	DeleteColumn(ctx context.Context, id string) bool
	CreateCard(ctx context.Context, laneID, columnID string) domain.Card
	UpdateCard(ctx context.Context, id string, patch domain.CardPatch) bool
	MoveCard(ctx context.Context, id string, loc domain.CardLocation) bool
	DeleteCard(ctx context.Context, id string) bool
	UpdateTagDict(ctx context.Context, tags []domain.TagEntry)
	UpdateToolDict(ctx context.Context, tools []string)
	UpdateAssigneeDict(ctx context.Context, assignees []domain.Assignee)
	UpdateFilter(ctx context.Context, patch domain.FilterPatch)
	SetState(ctx context.Context, state domain.BoardState)
	ClearBoard(ctx context.Context)
}

// BackupStore abstracts snapshot persistence for handlers.
type BackupStore interface {
	CreateBackup(ctx context.Context, state domain.BoardState) (string, error)
	ListBackups(ctx context.Context) ([]domain.BackupInfo, error)
	RestoreBackup(ctx context.Context, key string) (domain.BoardState, bool, error)
}
