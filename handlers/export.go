package handlers

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"

	"github.com/padraicbc/raceprep/models"
)

// exportPayload is the full-store snapshot used for backup and restore. The
// shape is a transparent passthrough of the stored collections.
type exportPayload struct {
	Races      []*models.Race                   `json:"races"`
	Tasks      []*models.Task                   `json:"tasks"`
	Profiles   []*models.PersonalizationProfile `json:"profiles"`
	Settings   *models.Settings                 `json:"settings,omitempty"`
	ExportedAt string                           `json:"exported_at,omitempty"`
}

// Export dumps all races, tasks, profiles and settings with an export
// timestamp.
func (h *Handler) Export(c echo.Context) error {
	ctx := c.Request().Context()
	payload := exportPayload{
		Races:      []*models.Race{},
		Tasks:      []*models.Task{},
		Profiles:   []*models.PersonalizationProfile{},
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
	}

	if err := h.db.NewSelect().Model(&payload.Races).Scan(ctx); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if err := h.db.NewSelect().Model(&payload.Tasks).
		OrderExpr("race_id ASC, sort_order ASC, rowid ASC").
		Scan(ctx); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if err := h.db.NewSelect().Model(&payload.Profiles).Scan(ctx); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	settings, err := h.loadSettings(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	payload.Settings = settings

	return c.JSON(http.StatusOK, payload)
}

// Import replaces each collection present in the payload wholesale.
// Last-write-wins, matching the single-store model.
func (h *Handler) Import(c echo.Context) error {
	var payload exportPayload
	if err := c.Bind(&payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	for _, r := range payload.Races {
		if r.ID == "" || !r.Distance.Valid() {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid race in payload")
		}
	}
	for _, t := range payload.Tasks {
		if t.ID == "" || !t.Category.Valid() || !t.Milestone.Valid() || !t.Status.Valid() {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid task in payload")
		}
	}

	err := h.db.RunInTx(c.Request().Context(), nil, func(ctx context.Context, tx bun.Tx) error {
		if payload.Races != nil {
			if err := replaceAll(ctx, tx, (*models.Race)(nil), payload.Races); err != nil {
				return err
			}
		}
		if payload.Tasks != nil {
			if err := replaceAll(ctx, tx, (*models.Task)(nil), payload.Tasks); err != nil {
				return err
			}
		}
		if payload.Profiles != nil {
			if err := replaceAll(ctx, tx, (*models.PersonalizationProfile)(nil), payload.Profiles); err != nil {
				return err
			}
		}
		if payload.Settings != nil {
			payload.Settings.ID = settingsRowID
			if _, err := tx.NewDelete().Model((*models.Settings)(nil)).
				Where("id = ?", settingsRowID).Exec(ctx); err != nil {
				return err
			}
			if _, err := tx.NewInsert().Model(payload.Settings).Exec(ctx); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.NoContent(http.StatusNoContent)
}

// replaceAll clears a table and inserts the given rows.
func replaceAll[T any](ctx context.Context, tx bun.Tx, model interface{}, rows []*T) error {
	if _, err := tx.NewDelete().Model(model).Where("1 = 1").Exec(ctx); err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	_, err := tx.NewInsert().Model(&rows).Exec(ctx)
	return err
}

const settingsRowID = 1

// loadSettings returns the settings row, falling back to defaults when none
// exists yet.
func (h *Handler) loadSettings(ctx context.Context) (*models.Settings, error) {
	settings := &models.Settings{}
	err := h.db.NewSelect().Model(settings).
		Where("id = ?", settingsRowID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &models.Settings{ID: settingsRowID}, nil
		}
		return nil, err
	}
	return settings, nil
}

// GetSettings returns the application settings.
func (h *Handler) GetSettings(c echo.Context) error {
	settings, err := h.loadSettings(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, settings)
}

// SaveSettings upserts the single settings row.
func (h *Handler) SaveSettings(c echo.Context) error {
	settings := &models.Settings{}
	if err := c.Bind(settings); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	settings.ID = settingsRowID

	_, err := h.db.NewInsert().Model(settings).
		On("CONFLICT (id) DO UPDATE").
		Set("notifications_enabled = EXCLUDED.notifications_enabled").
		Exec(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, settings)
}
