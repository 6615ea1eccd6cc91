package handlers

import (
	"context"
	"database/sql"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"

	"github.com/padraicbc/raceprep/checklist"
	"github.com/padraicbc/raceprep/models"
)

// GetProfile returns the race's personalization profile, or defaults inferred
// from the race when none has been saved yet.
func (h *Handler) GetProfile(c echo.Context) error {
	race, err := h.raceByID(c, c.Param("id"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return echo.NewHTTPError(http.StatusNotFound, "race not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	profile := &models.PersonalizationProfile{}
	err = h.db.NewSelect().Model(profile).
		Where("race_id = ?", race.ID).
		Scan(c.Request().Context())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusOK, checklist.DefaultProfile(race))
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, profile)
}

// ApplyProfile saves the profile and reconciles the race's tasks against it:
// newly enabled flags synthesize or unhide their tasks, disabled flags hide
// theirs. Returns the refreshed task list.
func (h *Handler) ApplyProfile(c echo.Context) error {
	race, err := h.raceByID(c, c.Param("id"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return echo.NewHTTPError(http.StatusNotFound, "race not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	profile := &models.PersonalizationProfile{}
	if err := c.Bind(profile); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	profile.RaceID = race.ID

	tasks, err := h.tasksForRace(c, race.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	reconciled, err := checklist.ApplyPersonalization(tasks, race, profile)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	err = h.db.RunInTx(c.Request().Context(), nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().Model(profile).
			On("CONFLICT (race_id) DO UPDATE").
			Set("international_travel = EXCLUDED.international_travel").
			Set("stays_in_hotel = EXCLUDED.stays_in_hotel").
			Set("heat_sensitive = EXCLUDED.heat_sensitive").
			Set("uses_gels = EXCLUDED.uses_gels").
			Set("uses_hydration_pack = EXCLUDED.uses_hydration_pack").
			Set("uses_headphones = EXCLUDED.uses_headphones").
			Set("has_dependents = EXCLUDED.has_dependents").
			Exec(ctx)
		if err != nil {
			return err
		}
		return upsertTasks(ctx, tx, reconciled)
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	refreshed, err := h.tasksForRace(c, race.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"profile":  profile,
		"tasks":    refreshed,
		"progress": checklist.CalculateProgress(refreshed),
	})
}
