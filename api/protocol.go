package api

import "kanban-api/domain"

const importMaxSize = 64 * 1024 // 64 KiB

// confirmation query parameter demanded by destructive routes
const confirmParam = "confirm"

type errorResponse struct {
	Error string `json:"error"`
}

type backupCreatedResponse struct {
	Key string `json:"key"`
}

type backupsResponse struct {
	Backups []domain.BackupInfo `json:"backups"`
}
