package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/padraicbc/raceprep/checklist"
	"github.com/padraicbc/raceprep/db"
	"github.com/padraicbc/raceprep/models"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	bdb := db.Open(":memory:", false)
	t.Cleanup(func() { _ = bdb.Close() })
	require.NoError(t, db.CreateTables(context.Background(), bdb))
	return New(bdb, []byte("test-secret"))
}

// call invokes an echo handler directly and decodes the JSON response into out.
func call(t *testing.T, h echo.HandlerFunc, method, body string, params map[string]string, out interface{}) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	names := make([]string, 0, len(params))
	values := make([]string, 0, len(params))
	for k, v := range params {
		names = append(names, k)
		values = append(values, v)
	}
	c.SetParamNames(names...)
	c.SetParamValues(values...)

	err := h(c)
	if err != nil {
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok, "unexpected error type: %v", err)
		rec.Code = he.Code
		return rec
	}
	if out != nil && rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
	}
	return rec
}

func futureDate(years int) string {
	return time.Now().AddDate(years, 0, 0).Format("2006-01-02")
}

type raceDetailJSON struct {
	models.Race
	DisplayName string                 `json:"display_name"`
	DaysUntil   int                    `json:"days_until"`
	Progress    checklist.Progress     `json:"progress"`
	Tasks       []*models.Task         `json:"tasks"`
	Due         checklist.DuePartition `json:"due"`
}

func createRace(t *testing.T, h *Handler, travel bool) raceDetailJSON {
	t.Helper()
	body := `{"name":"Test Marathon","distance":"MARATHON","date":"` + futureDate(1) + `","is_travel_race":` + boolStr(travel) + `}`
	var detail raceDetailJSON
	rec := call(t, h.CreateRace, http.MethodPost, body, nil, &detail)
	require.Equal(t, http.StatusCreated, rec.Code)
	return detail
}

func boolStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func TestCreateRaceGeneratesChecklist(t *testing.T) {
	h := newTestHandler(t)

	home := createRace(t, h, false)
	assert.NotEmpty(t, home.ID)
	assert.Len(t, home.Tasks, 18)
	assert.Equal(t, 18, home.Progress.Total)
	assert.Equal(t, 0, home.Progress.Done)

	travel := createRace(t, h, true)
	assert.Len(t, travel.Tasks, 21)

	for _, task := range travel.Tasks {
		assert.Equal(t, travel.ID, task.RaceID)
		assert.True(t, task.IsDefault)
		assert.Equal(t, models.StatusNotStarted, task.Status)
	}
}

func TestCreateRaceValidation(t *testing.T) {
	h := newTestHandler(t)

	tests := []struct {
		name string
		body string
	}{
		{"missing name", `{"name":"","distance":"MARATHON","date":"2030-01-01"}`},
		{"bad distance", `{"name":"X","distance":"ULTRA","date":"2030-01-01"}`},
		{"bad date", `{"name":"X","distance":"HALF","date":"January 1st"}`},
	}
	for _, tt := range tests {
		rec := call(t, h.CreateRace, http.MethodPost, tt.body, nil, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, tt.name)
	}
}

func TestGetRaceNotFound(t *testing.T) {
	h := newTestHandler(t)
	rec := call(t, h.GetRace, http.MethodGet, "", map[string]string{"id": "nope"}, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProfileDefaultsInferredFromRace(t *testing.T) {
	h := newTestHandler(t)
	race := createRace(t, h, true)

	var profile models.PersonalizationProfile
	rec := call(t, h.GetProfile, http.MethodGet, "", map[string]string{"id": race.ID}, &profile)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, race.ID, profile.RaceID)
	assert.True(t, profile.InternationalTravel)
	assert.True(t, profile.StaysInHotel)
	assert.True(t, profile.UsesGels) // marathon, not a 10K
	assert.False(t, profile.HeatSensitive)
}

type applyProfileResponse struct {
	Profile  models.PersonalizationProfile `json:"profile"`
	Tasks    []*models.Task                `json:"tasks"`
	Progress checklist.Progress            `json:"progress"`
}

func TestApplyProfileAddsHidesAndRestores(t *testing.T) {
	h := newTestHandler(t)
	race := createRace(t, h, false)
	params := map[string]string{"id": race.ID}

	var resp applyProfileResponse
	rec := call(t, h.ApplyProfile, http.MethodPost, `{"uses_gels":true}`, params, &resp)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, resp.Tasks, 19)

	var gelTask *models.Task
	for _, task := range resp.Tasks {
		if !task.IsDefault {
			gelTask = task
		}
	}
	require.NotNil(t, gelTask)
	assert.False(t, gelTask.IsHidden)

	// Disable the flag: the task is hidden, not deleted, and drops out of
	// progress.
	rec = call(t, h.ApplyProfile, http.MethodPost, `{"uses_gels":false}`, params, &resp)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, resp.Tasks, 19)
	assert.Equal(t, 18, resp.Progress.Total)

	var hidden *models.Task
	for _, task := range resp.Tasks {
		if task.ID == gelTask.ID {
			hidden = task
		}
	}
	require.NotNil(t, hidden)
	assert.True(t, hidden.IsHidden)

	// Re-enable: same task id comes back visible.
	rec = call(t, h.ApplyProfile, http.MethodPost, `{"uses_gels":true}`, params, &resp)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, resp.Tasks, 19)
	for _, task := range resp.Tasks {
		if task.ID == gelTask.ID {
			assert.False(t, task.IsHidden)
		}
	}
}

func TestUserTaskLifecycle(t *testing.T) {
	h := newTestHandler(t)
	race := createRace(t, h, false)
	params := map[string]string{"id": race.ID}

	var task models.Task
	body := `{"title":"Buy throwaway layer","category":"Gear & Clothing","milestone":"D_7"}`
	rec := call(t, h.CreateTask, http.MethodPost, body, params, &task)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.False(t, task.IsDefault)
	assert.Equal(t, 18, task.SortOrder, "sorts after the generated checklist")

	body = `{"title":"Buy throwaway layer","category":"Gear & Clothing","milestone":"D_7","status":"DONE"}`
	rec = call(t, h.UpdateTask, http.MethodPut, body, map[string]string{"id": task.ID}, &task)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.StatusDone, task.Status)

	rec = call(t, h.DeleteTask, http.MethodDelete, "", map[string]string{"id": task.ID}, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = call(t, h.DeleteTask, http.MethodDelete, "", map[string]string{"id": task.ID}, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteRaceCascades(t *testing.T) {
	h := newTestHandler(t)
	race := createRace(t, h, false)
	params := map[string]string{"id": race.ID}

	var resp applyProfileResponse
	call(t, h.ApplyProfile, http.MethodPost, `{"uses_headphones":true}`, params, &resp)

	rec := call(t, h.DeleteRace, http.MethodDelete, "", params, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	ctx := context.Background()
	for model, label := range map[interface{}]string{
		(*models.Task)(nil):                   "tasks",
		(*models.PersonalizationProfile)(nil): "profile",
	} {
		exists, err := h.db.NewSelect().Model(model).
			Where("race_id = ?", race.ID).
			Exists(ctx)
		require.NoError(t, err)
		assert.False(t, exists, "%s should cascade", label)
	}

	rec = call(t, h.DeleteRace, http.MethodDelete, "", params, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDuplicateRaceEndpoint(t *testing.T) {
	h := newTestHandler(t)
	source := createRace(t, h, true)

	// Mark something done on the source first.
	done := source.Tasks[0]
	body := `{"title":"` + done.Title + `","category":"` + string(done.Category) + `","milestone":"` + string(done.Milestone) + `","status":"DONE"}`
	rec := call(t, h.UpdateTask, http.MethodPut, body, map[string]string{"id": done.ID}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var dup raceDetailJSON
	body = `{"name":"Same Race Next Year","date":"` + futureDate(2) + `"}`
	rec = call(t, h.DuplicateRace, http.MethodPost, body, map[string]string{"id": source.ID}, &dup)
	require.Equal(t, http.StatusCreated, rec.Code)

	assert.NotEqual(t, source.ID, dup.ID)
	require.NotNil(t, dup.CreatedFromRaceID)
	assert.Equal(t, source.ID, *dup.CreatedFromRaceID)
	require.Len(t, dup.Tasks, len(source.Tasks))
	for i, task := range dup.Tasks {
		assert.Equal(t, models.StatusNotStarted, task.Status)
		assert.Equal(t, i, task.SortOrder)
		assert.NotEqual(t, source.Tasks[i].ID, task.ID)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	src := newTestHandler(t)
	race := createRace(t, src, true)
	call(t, src.ApplyProfile, http.MethodPost, `{"heat_sensitive":true}`, map[string]string{"id": race.ID}, nil)
	call(t, src.SaveSettings, http.MethodPut, `{"notifications_enabled":true}`, nil, nil)

	var exported exportPayload
	rec := call(t, src.Export, http.MethodGet, "", nil, &exported)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, exported.Races, 1)
	assert.Len(t, exported.Profiles, 1)
	assert.NotEmpty(t, exported.ExportedAt)
	require.NotNil(t, exported.Settings)
	assert.True(t, exported.Settings.NotificationsEnabled)

	// Import the snapshot into a fresh store.
	dst := newTestHandler(t)
	payload, err := json.Marshal(exported)
	require.NoError(t, err)
	rec = call(t, dst.Import, http.MethodPost, string(payload), nil, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	var detail raceDetailJSON
	rec = call(t, dst.GetRace, http.MethodGet, "", map[string]string{"id": race.ID}, &detail)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, race.Name, detail.Name)
	assert.Len(t, detail.Tasks, len(exported.Tasks))
}

func TestSigninIssuesToken(t *testing.T) {
	h := newTestHandler(t)

	hash, err := HashPasswordForUser("runner", "s3cret")
	require.NoError(t, err)
	_, err = h.db.NewInsert().Model(&models.User{Username: "runner", Password: hash}).
		Exec(context.Background())
	require.NoError(t, err)

	var resp map[string]string
	rec := call(t, h.Signin, http.MethodPost, `{"username":"runner","password":"s3cret"}`, nil, &resp)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, resp["token"])

	rec = call(t, h.Signin, http.MethodPost, `{"username":"runner","password":"wrong"}`, nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
