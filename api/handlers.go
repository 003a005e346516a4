package api

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"kanban-api/domain"
)

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, store BoardStore, backups BackupStore, logger *log.Logger) {
	e.GET("/healthz", healthz())

	e.GET("/api/board", getBoard(store))
	e.GET("/api/board/export", exportBoard(store))
	e.POST("/api/board/import", importBoard(store, logger))
	e.POST("/api/board/clear", clearBoard(store))

	e.POST("/api/lanes", createLane(store))
	e.PATCH("/api/lanes/:id", updateLane(store))
	e.DELETE("/api/lanes/:id", deleteLane(store))

	e.POST("/api/columns", createColumn(store))
	e.PATCH("/api/columns/:id", updateColumn(store))
	e.DELETE("/api/columns/:id", deleteColumn(store))

	e.POST("/api/cards", createCard(store))
	e.PATCH("/api/cards/:id", updateCard(store))
	e.POST("/api/cards/:id/move", moveCard(store))
	e.DELETE("/api/cards/:id", deleteCard(store))

	e.PUT("/api/dict/tags", putTagDict(store))
	e.PUT("/api/dict/tools", putToolDict(store))
	e.PUT("/api/dict/assignees", putAssigneeDict(store))
	e.PATCH("/api/filter", patchFilter(store))

	e.GET("/api/report", getReport(store, logger))

	e.GET("/api/backups", listBackups(backups))
	e.POST("/api/backups", createBackup(store, backups))
	e.POST("/api/backups/:key/restore", restoreBackup(store, backups))
}

func healthz() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}
}

// confirmed enforces the explicit confirmation step destructive operations
// require before the store is touched.
func confirmed(c echo.Context) bool {
	return c.QueryParam(confirmParam) == "true"
}

func confirmationRequired(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, errorResponse{Error: "confirmation required: pass confirm=true"})
}

func getBoard(store BoardStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, store.State())
	}
}

func exportBoard(store BoardStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		data, err := sonic.ConfigStd.MarshalIndent(store.State(), "", "  ")
		if err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, err.Error())
		}
		filename := "kanban-board-" + time.Now().UTC().Format("2006-01-02-15-04-05") + ".json"
		c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
		return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, data)
	}
}

func importBoard(store BoardStore, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !confirmed(c) {
			return confirmationRequired(c)
		}
		body, err := io.ReadAll(io.LimitReader(c.Request().Body, importMaxSize))
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "unreadable body"})
		}
		state, err := domain.Normalize(body)
		if err != nil {
			var formatErr *domain.FormatError
			if errors.As(err, &formatErr) {
				return c.JSON(http.StatusBadRequest, errorResponse{Error: formatErr.Error()})
			}
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, err.Error())
		}
		store.SetState(c.Request().Context(), state)
		logger.WithFields(log.Fields{
			"columns": len(state.Columns),
			"lanes":   len(state.Lanes),
			"cards":   len(state.Cards),
		}).Info("board imported")
		return c.JSON(http.StatusOK, store.State())
	}
}

func clearBoard(store BoardStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !confirmed(c) {
			return confirmationRequired(c)
		}
		store.ClearBoard(c.Request().Context())
		return c.JSON(http.StatusOK, store.State())
	}
}

func createLane(store BoardStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusCreated, store.CreateLane(c.Request().Context()))
	}
}

func updateLane(store BoardStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		var patch domain.LanePatch
		if err := decodeBody(c, &patch); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
		}
		if !store.UpdateLane(c.Request().Context(), c.Param("id"), patch) {
			return c.NoContent(http.StatusNotFound)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func deleteLane(store BoardStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !confirmed(c) {
			return confirmationRequired(c)
		}
		id := c.Param("id")
		if store.DeleteLane(c.Request().Context(), id) {
			return c.NoContent(http.StatusNoContent)
		}
		for _, lane := range store.State().Lanes {
			if lane.ID == id {
				return c.JSON(http.StatusConflict, errorResponse{Error: "cannot delete the last lane"})
			}
		}
		return c.NoContent(http.StatusNotFound)
	}
}

func createColumn(store BoardStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusCreated, store.CreateColumn(c.Request().Context()))
	}
}

func updateColumn(store BoardStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		var patch domain.ColumnPatch
		if err := decodeBody(c, &patch); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
		}
		if !store.UpdateColumn(c.Request().Context(), c.Param("id"), patch) {
			return c.NoContent(http.StatusNotFound)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func deleteColumn(store BoardStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !confirmed(c) {
			return confirmationRequired(c)
		}
		if !store.DeleteColumn(c.Request().Context(), c.Param("id")) {
			return c.NoContent(http.StatusNotFound)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func createCard(store BoardStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		var loc domain.CardLocation
		// The body is optional; an empty location falls back to the first
		// lane and column.
		if c.Request().ContentLength != 0 {
			if err := decodeBody(c, &loc); err != nil {
				return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
			}
		}
		card := store.CreateCard(c.Request().Context(), loc.LaneID, loc.ColumnID)
		return c.JSON(http.StatusCreated, card)
	}
}

func updateCard(store BoardStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		var patch domain.CardPatch
		if err := decodeBody(c, &patch); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
		}
		if !store.UpdateCard(c.Request().Context(), c.Param("id"), patch) {
			return c.NoContent(http.StatusNotFound)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func moveCard(store BoardStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		var loc domain.CardLocation
		if err := decodeBody(c, &loc); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
		}
		if !store.MoveCard(c.Request().Context(), c.Param("id"), loc) {
			return c.NoContent(http.StatusNotFound)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func deleteCard(store BoardStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !confirmed(c) {
			return confirmationRequired(c)
		}
		if !store.DeleteCard(c.Request().Context(), c.Param("id")) {
			return c.NoContent(http.StatusNotFound)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func putTagDict(store BoardStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		var tags []domain.TagEntry
		if err := decodeBody(c, &tags); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
		}
		store.UpdateTagDict(c.Request().Context(), tags)
		return c.NoContent(http.StatusNoContent)
	}
}

func putToolDict(store BoardStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		var tools []string
		if err := decodeBody(c, &tools); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
		}
		store.UpdateToolDict(c.Request().Context(), tools)
		return c.NoContent(http.StatusNoContent)
	}
}

func putAssigneeDict(store BoardStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		var assignees []domain.Assignee
		if err := decodeBody(c, &assignees); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
		}
		store.UpdateAssigneeDict(c.Request().Context(), assignees)
		return c.NoContent(http.StatusNoContent)
	}
}

func patchFilter(store BoardStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		var patch domain.FilterPatch
		if err := decodeBody(c, &patch); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
		}
		store.UpdateFilter(c.Request().Context(), patch)
		return c.NoContent(http.StatusNoContent)
	}
}

func getReport(store BoardStore, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		ctx := c.Request().Context()
		metrics, spanCtx := newReportRequestMetrics(ctx, logger)
		if spanCtx != nil {
			c.SetRequest(c.Request().WithContext(spanCtx))
		}
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		buildStart := time.Now()
		state := store.State()
		report := domain.BuildReport(state)
		metrics.ObserveBuild(time.Since(buildStart))
		metrics.SetCardsReported(len(state.Cards))

		encodeStart := time.Now()
		err = c.JSON(http.StatusOK, report)
		metrics.ObserveEncode(time.Since(encodeStart))
		if err != nil {
			metrics.SetErrorStage("encode_response")
		}
		return err
	}
}

func listBackups(backups BackupStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		infos, err := backups.ListBackups(c.Request().Context())
		if err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, err.Error())
		}
		if infos == nil {
			infos = []domain.BackupInfo{}
		}
		return c.JSON(http.StatusOK, backupsResponse{Backups: infos})
	}
}

func createBackup(store BoardStore, backups BackupStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		key, err := backups.CreateBackup(c.Request().Context(), store.State())
		if err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusCreated, backupCreatedResponse{Key: key})
	}
}

func restoreBackup(store BoardStore, backups BackupStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !confirmed(c) {
			return confirmationRequired(c)
		}
		state, ok, err := backups.RestoreBackup(c.Request().Context(), c.Param("key"))
		if err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, err.Error())
		}
		if !ok {
			return c.NoContent(http.StatusNotFound)
		}
		store.SetState(c.Request().Context(), state)
		return c.JSON(http.StatusOK, store.State())
	}
}

// decodeBody decodes a JSON request body, rejecting unknown fields and
// bodies beyond the protocol size limit.
func decodeBody(c echo.Context, out any) error {
	dec := sonic.ConfigStd.NewDecoder(io.LimitReader(c.Request().Body, importMaxSize))
	dec.DisallowUnknownFields()
	return dec.Decode(out)
}
