package handlers

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"

	"github.com/padraicbc/raceprep/models"
)

type taskRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	Category    string  `json:"category"`
	Milestone   string  `json:"milestone"`
	Status      string  `json:"status,omitempty"`
	SortOrder   *int    `json:"sort_order,omitempty"`
	IsHidden    *bool   `json:"is_hidden,omitempty"`
}

func (r *taskRequest) validate() error {
	r.Title = strings.TrimSpace(r.Title)
	if r.Title == "" {
		return errors.New("title is required")
	}
	if !models.TaskCategory(r.Category).Valid() {
		return errors.New("unknown category")
	}
	if !models.Milestone(r.Milestone).Valid() {
		return errors.New("unknown milestone")
	}
	if r.Status != "" && !models.TaskStatus(r.Status).Valid() {
		return errors.New("unknown status")
	}
	return nil
}

// ListTasks returns all of a race's tasks, hidden ones included, ordered by
// sort_order. The client decides whether to show hidden tasks.
func (h *Handler) ListTasks(c echo.Context) error {
	raceID := c.Param("id")
	exists, err := h.db.NewSelect().Model((*models.Race)(nil)).
		Where("id = ?", raceID).
		Exists(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !exists {
		return echo.NewHTTPError(http.StatusNotFound, "race not found")
	}

	tasks, err := h.tasksForRace(c, raceID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, tasks)
}

// CreateTask adds a user-authored task to a race. It sorts after every
// existing task.
func (h *Handler) CreateTask(c echo.Context) error {
	race, err := h.raceByID(c, c.Param("id"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return echo.NewHTTPError(http.StatusNotFound, "race not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var req taskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := req.validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var maxSort sql.NullInt64
	err = h.db.NewSelect().Model((*models.Task)(nil)).
		ColumnExpr("MAX(sort_order)").
		Where("race_id = ?", race.ID).
		Scan(c.Request().Context(), &maxSort)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	status := models.StatusNotStarted
	if req.Status != "" {
		status = models.TaskStatus(req.Status)
	}

	task := &models.Task{
		ID:          uuid.NewString(),
		RaceID:      race.ID,
		Title:       req.Title,
		Description: req.Description,
		Category:    models.TaskCategory(req.Category),
		Milestone:   models.Milestone(req.Milestone),
		Status:      status,
		SortOrder:   int(maxSort.Int64) + 1,
	}

	if _, err := h.db.NewInsert().Model(task).Exec(c.Request().Context()); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusCreated, task)
}

// UpdateTask edits a task's fields, including status and hidden state.
func (h *Handler) UpdateTask(c echo.Context) error {
	task := &models.Task{}
	err := h.db.NewSelect().Model(task).
		Where("id = ?", c.Param("id")).
		Scan(c.Request().Context())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return echo.NewHTTPError(http.StatusNotFound, "task not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var req taskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := req.validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	task.Title = req.Title
	task.Description = req.Description
	task.Category = models.TaskCategory(req.Category)
	task.Milestone = models.Milestone(req.Milestone)
	if req.Status != "" {
		task.Status = models.TaskStatus(req.Status)
	}
	if req.SortOrder != nil {
		task.SortOrder = *req.SortOrder
	}
	if req.IsHidden != nil {
		task.IsHidden = *req.IsHidden
	}

	if _, err := h.db.NewUpdate().Model(task).WherePK().Exec(c.Request().Context()); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, task)
}

// DeleteTask removes a single task. Only user-initiated deletes land here;
// personalization never deletes, it hides.
func (h *Handler) DeleteTask(c echo.Context) error {
	res, err := h.db.NewDelete().Model((*models.Task)(nil)).
		Where("id = ?", c.Param("id")).
		Exec(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "task not found")
	}

	return c.NoContent(http.StatusNoContent)
}

// SaveTasks bulk-upserts a race's tasks by id, used by the client for
// reordering.
func (h *Handler) SaveTasks(c echo.Context) error {
	raceID := c.Param("id")

	var tasks []*models.Task
	if err := c.Bind(&tasks); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	for _, t := range tasks {
		if t.RaceID != raceID {
			return echo.NewHTTPError(http.StatusBadRequest, "task race_id mismatch")
		}
		if !t.Category.Valid() || !t.Milestone.Valid() || !t.Status.Valid() {
			return echo.NewHTTPError(http.StatusBadRequest, "unknown category, milestone, or status")
		}
	}

	err := h.db.RunInTx(c.Request().Context(), nil, func(ctx context.Context, tx bun.Tx) error {
		return upsertTasks(ctx, tx, tasks)
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	refreshed, err := h.tasksForRace(c, raceID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, refreshed)
}

// upsertTasks writes tasks by id, inserting new rows and replacing existing
// ones.
func upsertTasks(ctx context.Context, tx bun.Tx, tasks []*models.Task) error {
	for _, t := range tasks {
		_, err := tx.NewInsert().Model(t).
			On("CONFLICT (id) DO UPDATE").
			Set("title = EXCLUDED.title").
			Set("description = EXCLUDED.description").
			Set("category = EXCLUDED.category").
			Set("milestone = EXCLUDED.milestone").
			Set("status = EXCLUDED.status").
			Set("sort_order = EXCLUDED.sort_order").
			Set("is_default = EXCLUDED.is_default").
			Set("is_hidden = EXCLUDED.is_hidden").
			Exec(ctx)
		if err != nil {
			return err
		}
	}
	return nil
}
