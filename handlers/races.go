package handlers

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"

	"github.com/padraicbc/raceprep/checklist"
	"github.com/padraicbc/raceprep/countryflag"
	"github.com/padraicbc/raceprep/models"
)

type raceRequest struct {
	Name         string  `json:"name"`
	Distance     string  `json:"distance"`
	Date         string  `json:"date"`
	StartTime    *string `json:"start_time,omitempty"`
	City         *string `json:"city,omitempty"`
	Country      *string `json:"country,omitempty"`
	IsTravelRace bool    `json:"is_travel_race"`
}

type raceSummary struct {
	*models.Race
	DisplayName string             `json:"display_name"`
	Location    string             `json:"location,omitempty"`
	DaysUntil   int                `json:"days_until"`
	Progress    checklist.Progress `json:"progress"`
}

type raceDetail struct {
	raceSummary
	Tasks []*models.Task         `json:"tasks"`
	Due   checklist.DuePartition `json:"due"`
}

func nowISO() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func (r *raceRequest) validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return errors.New("name is required")
	}
	if !models.RaceDistance(r.Distance).Valid() {
		return errors.New("distance must be one of 10K, HALF, MARATHON")
	}
	if _, err := time.Parse("2006-01-02", r.Date); err != nil {
		return errors.New("date must be a valid YYYY-MM-DD date")
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func summarize(race *models.Race, tasks []*models.Task) raceSummary {
	daysUntil, err := checklist.DaysUntilRace(race.Date)
	if err != nil {
		// Dates are validated on the way in, so a stored race date always parses.
		daysUntil = 0
	}
	return raceSummary{
		Race:        race,
		DisplayName: countryflag.DisplayName(race.Name, deref(race.Country)),
		Location:    countryflag.LocationDisplay(deref(race.City), deref(race.Country)),
		DaysUntil:   daysUntil,
		Progress:    checklist.CalculateProgress(tasks),
	}
}

// tasksForRace loads a race's tasks ordered by sort_order, ties broken by
// insertion order.
func (h *Handler) tasksForRace(c echo.Context, raceID string) ([]*models.Task, error) {
	tasks := []*models.Task{}
	err := h.db.NewSelect().Model(&tasks).
		Where("race_id = ?", raceID).
		OrderExpr("sort_order ASC, rowid ASC").
		Scan(c.Request().Context())
	return tasks, err
}

func (h *Handler) raceByID(c echo.Context, id string) (*models.Race, error) {
	race := &models.Race{}
	err := h.db.NewSelect().Model(race).
		Where("id = ?", id).
		Scan(c.Request().Context())
	return race, err
}

// ListRaces returns all races, newest race date first, with progress summaries.
func (h *Handler) ListRaces(c echo.Context) error {
	var races []*models.Race
	err := h.db.NewSelect().Model(&races).
		OrderExpr("date DESC").
		Scan(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var tasks []*models.Task
	if err := h.db.NewSelect().Model(&tasks).Scan(c.Request().Context()); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	byRace := make(map[string][]*models.Task)
	for _, t := range tasks {
		byRace[t.RaceID] = append(byRace[t.RaceID], t)
	}

	result := make([]raceSummary, len(races))
	for i, race := range races {
		result[i] = summarize(race, byRace[race.ID])
	}

	return c.JSON(http.StatusOK, result)
}

// CreateRace creates a race and its generated default checklist in one
// transaction.
func (h *Handler) CreateRace(c echo.Context) error {
	var req raceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := req.validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	now := nowISO()
	race := &models.Race{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Distance:     models.RaceDistance(req.Distance),
		Date:         req.Date,
		StartTime:    req.StartTime,
		City:         req.City,
		Country:      req.Country,
		IsTravelRace: req.IsTravelRace,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	tasks, err := checklist.GenerateDefaultChecklist(race)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	err = h.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(race).Exec(ctx); err != nil {
			return err
		}
		if len(tasks) > 0 {
			if _, err := tx.NewInsert().Model(&tasks).Exec(ctx); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusCreated, raceDetail{
		raceSummary: summarize(race, tasks),
		Tasks:       tasks,
		Due:         duePartition(race, tasks),
	})
}

// GetRace returns a race with its full checklist, progress, and due-now
// partition.
func (h *Handler) GetRace(c echo.Context) error {
	race, err := h.raceByID(c, c.Param("id"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return echo.NewHTTPError(http.StatusNotFound, "race not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	tasks, err := h.tasksForRace(c, race.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, raceDetail{
		raceSummary: summarize(race, tasks),
		Tasks:       tasks,
		Due:         duePartition(race, tasks),
	})
}

// UpdateRace edits a race's attributes. Task milestones are not re-rolled on
// a date change; adjustment happens only at generation and duplication.
func (h *Handler) UpdateRace(c echo.Context) error {
	race, err := h.raceByID(c, c.Param("id"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return echo.NewHTTPError(http.StatusNotFound, "race not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var req raceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := req.validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	race.Name = req.Name
	race.Distance = models.RaceDistance(req.Distance)
	race.Date = req.Date
	race.StartTime = req.StartTime
	race.City = req.City
	race.Country = req.Country
	race.IsTravelRace = req.IsTravelRace
	race.UpdatedAt = nowISO()

	if _, err := h.db.NewUpdate().Model(race).WherePK().Exec(c.Request().Context()); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	tasks, err := h.tasksForRace(c, race.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, summarize(race, tasks))
}

// DeleteRace removes a race and cascades to its tasks and profile in one
// transaction.
func (h *Handler) DeleteRace(c echo.Context) error {
	id := c.Param("id")

	err := h.db.RunInTx(c.Request().Context(), nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*models.Task)(nil)).
			Where("race_id = ?", id).Exec(ctx); err != nil {
			return err
		}
		if _, err := tx.NewDelete().Model((*models.PersonalizationProfile)(nil)).
			Where("race_id = ?", id).Exec(ctx); err != nil {
			return err
		}
		res, err := tx.NewDelete().Model((*models.Race)(nil)).
			Where("id = ?", id).Exec(ctx)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return sql.ErrNoRows
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return echo.NewHTTPError(http.StatusNotFound, "race not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.NoContent(http.StatusNoContent)
}

type duplicateRequest struct {
	Name string `json:"name"`
	Date string `json:"date"`
}

// DuplicateRace copies a race and its checklist onto a new date. Statuses
// reset and milestones re-roll for the new date; the copy records its source
// race for provenance.
func (h *Handler) DuplicateRace(c echo.Context) error {
	source, err := h.raceByID(c, c.Param("id"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return echo.NewHTTPError(http.StatusNotFound, "race not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var req duplicateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}
	if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "date must be a valid YYYY-MM-DD date")
	}

	sourceTasks, err := h.tasksForRace(c, source.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	race, tasks, err := checklist.DuplicateRace(source, sourceTasks, req.Name, req.Date)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	err = h.db.RunInTx(c.Request().Context(), nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(race).Exec(ctx); err != nil {
			return err
		}
		if len(tasks) > 0 {
			if _, err := tx.NewInsert().Model(&tasks).Exec(ctx); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusCreated, raceDetail{
		raceSummary: summarize(race, tasks),
		Tasks:       tasks,
		Due:         duePartition(race, tasks),
	})
}

func duePartition(race *models.Race, tasks []*models.Task) checklist.DuePartition {
	daysUntil, err := checklist.DaysUntilRace(race.Date)
	if err != nil {
		daysUntil = 0
	}
	return checklist.TasksDueNow(tasks, daysUntil)
}
