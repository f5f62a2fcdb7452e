package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Fussballversager/data-pipeline-buddy/internal/api"
	"github.com/Fussballversager/data-pipeline-buddy/internal/domain"
	"github.com/Fussballversager/data-pipeline-buddy/internal/generation"
	"github.com/Fussballversager/data-pipeline-buddy/internal/repository/memory"
	"github.com/Fussballversager/data-pipeline-buddy/internal/service"
	"github.com/Fussballversager/data-pipeline-buddy/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

// parkedScheduler blocks every wait until the poll is cancelled.
type parkedScheduler struct{}

func (parkedScheduler) Wait(ctx context.Context, _ time.Duration) error {
	<-ctx.Done()
	return ctx.Err()
}

type stubDispatcher struct{ err error }

func (d stubDispatcher) Dispatch(context.Context, string, generation.Payload) error { return d.err }

type stubStorage struct{}

func (stubStorage) GeneratePresignedUploadURL(_ context.Context, key, _ string, _ time.Duration) (string, error) {
	return "https://upload.test/" + key, nil
}

func (stubStorage) GeneratePresignedDownloadURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://sketch.test/" + key, nil
}

type testServer struct {
	router *gin.Engine
	token  string
}

func newTestServer(t *testing.T, dispatcher generation.Dispatcher, fileStorage storage.FileStorage) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	stores := memory.NewStore().Bundle()
	authService := service.NewAuthService(stores.Users, testSecret, time.Hour)
	planService := service.NewPlanService(stores, 2)
	generationService := service.NewGenerationService(stores, dispatcher, generation.NewMemoryStatusStore(),
		generation.NewPoller(time.Second, 5, parkedScheduler{}), nil)
	t.Cleanup(generationService.Shutdown)

	router := gin.New()
	api.SetupRoutes(router, testSecret,
		authService,
		planService,
		service.NewNavigator(planService, stores, fileStorage),
		generationService,
		service.NewSectionService(stores, fileStorage),
		service.NewPreferencesService(stores, planService),
	)

	s := &testServer{router: router}
	rec := s.do(t, http.MethodPost, "/api/v1/auth/register", gin.H{"name": "Coach", "email": "Coach@Example.com", "password": "geheim123"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/api/v1/auth/login", gin.H{"email": "coach@example.com", "password": "geheim123"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var login api.LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))
	require.NotEmpty(t, login.Token)
	s.token = login.Token
	return s
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestPingAndAuth(t *testing.T) {
	s := newTestServer(t, stubDispatcher{}, nil)

	rec := s.do(t, http.MethodGet, "/ping", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	token := s.token
	s.token = ""
	rec = s.do(t, http.MethodGet, "/api/v1/overview", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	s.token = "not-a-jwt"
	rec = s.do(t, http.MethodGet, "/api/v1/overview", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	s.token = token
	rec = s.do(t, http.MethodPost, "/api/v1/auth/register", gin.H{"name": "Coach", "email": "coach@example.com", "password": "geheim123"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestPlanHierarchyRoutes(t *testing.T) {
	s := newTestServer(t, stubDispatcher{}, nil)

	rec := s.do(t, http.MethodPost, "/api/v1/months", gin.H{"period": "2025-13"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/months", gin.H{"period": "2025-09", "philosophy": "Pressing"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	month := decode[domain.MonthPlan](t, rec)
	require.NotNil(t, month.Philosophy)
	assert.Equal(t, "Pressing", *month.Philosophy)

	rec = s.do(t, http.MethodPost, "/api/v1/months", gin.H{"period": "2025-09"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	weeksPath := "/api/v1/months/" + month.ID.Hex() + "/weeks"
	rec = s.do(t, http.MethodPost, weeksPath, gin.H{"calendarWeek": 60})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, weeksPath, gin.H{"calendarWeek": 37, "trainingGoal": "Umschalten"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	week := decode[domain.WeekPlan](t, rec)
	assert.Equal(t, 37, week.CalendarWeek)
	assert.Equal(t, "Pressing", *week.Philosophy)

	rec = s.do(t, http.MethodPost, weeksPath, gin.H{"calendarWeek": 37})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/months/"+week.ID.Hex()+"/weeks", gin.H{"calendarWeek": 38})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	daysPath := "/api/v1/weeks/" + week.ID.Hex() + "/days"
	rec = s.do(t, http.MethodPost, daysPath, gin.H{"trainingDate": "09.09.2025"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, daysPath, gin.H{"trainingDate": "2025-09-09", "dayNumber": 2})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	day := decode[domain.DayPlan](t, rec)

	rec = s.do(t, http.MethodGet, weeksPath, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	tree := decode[service.MonthTree](t, rec)
	require.Len(t, tree.Weeks, 1)
	assert.Len(t, tree.Weeks[0].Days, 1)

	rec = s.do(t, http.MethodPatch, "/api/v1/days/"+day.ID.Hex(), gin.H{"trainingGoal": "Abschluss"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Abschluss", decode[domain.DayPlan](t, rec).TrainingGoal)

	rec = s.do(t, http.MethodGet, "/api/v1/overview", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	ov := decode[service.Overview](t, rec)
	require.Len(t, ov.Months, 1)
	assert.Equal(t, 1, ov.Months[0].WeekCount)
	assert.True(t, ov.CanCreateDay)

	monthPath := "/api/v1/months/" + month.ID.Hex()
	rec = s.do(t, http.MethodDelete, monthPath, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodDelete, monthPath+"?confirm=true", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/days/"+day.ID.Hex(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/weeks/not-an-id", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMonthQuotaRoute(t *testing.T) {
	s := newTestServer(t, stubDispatcher{}, nil)

	for _, period := range []string{"2025-09", "2025-10"} {
		rec := s.do(t, http.MethodPost, "/api/v1/months", gin.H{"period": period})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := s.do(t, http.MethodPost, "/api/v1/months", gin.H{"period": "2025-11"})
	require.Equal(t, http.StatusConflict, rec.Code)
	body := decode[struct {
		Error string              `json:"error"`
		Quota service.QuotaStatus `json:"quota"`
	}](t, rec)
	assert.Equal(t, 2, body.Quota.Count)
	assert.Equal(t, 2, body.Quota.Allowance)
	assert.False(t, body.Quota.CanCreate)
}

func TestGenerationRoutes(t *testing.T) {
	s := newTestServer(t, stubDispatcher{}, nil)

	rec := s.do(t, http.MethodPost, "/api/v1/months", gin.H{"period": "2025-09"})
	require.Equal(t, http.StatusCreated, rec.Code)
	month := decode[domain.MonthPlan](t, rec)

	rec = s.do(t, http.MethodPost, "/api/v1/plans/quarter/"+month.ID.Hex()+"/generate", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	generatePath := "/api/v1/plans/Monat/" + month.ID.Hex() + "/generate"
	rec = s.do(t, http.MethodPost, generatePath, gin.H{"ageGroup": "U13"})
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	run := decode[generation.RunStatus](t, rec)
	assert.Equal(t, generation.StateDispatched, run.State)
	assert.Equal(t, "U13", run.Payload["altersstufe"])

	rec = s.do(t, http.MethodPost, generatePath, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/plans/month/"+month.ID.Hex()+"/generation", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	view := decode[service.GenerationView](t, rec)
	assert.Equal(t, run.RunID, view.RunID)
	assert.False(t, view.Generated)
}

func TestGenerationDispatchFailureRoute(t *testing.T) {
	s := newTestServer(t, stubDispatcher{err: &generation.TransportError{StatusCode: http.StatusInternalServerError}}, nil)

	rec := s.do(t, http.MethodPost, "/api/v1/months", gin.H{"period": "2025-09"})
	require.Equal(t, http.StatusCreated, rec.Code)
	month := decode[domain.MonthPlan](t, rec)

	rec = s.do(t, http.MethodPost, "/api/v1/plans/month/"+month.ID.Hex()+"/generate", nil)
	require.Equal(t, http.StatusBadGateway, rec.Code)
	body := decode[struct {
		Status generation.RunStatus `json:"status"`
	}](t, rec)
	assert.Equal(t, generation.StateError, body.Status.State)
}

func TestSectionAndSketchRoutes(t *testing.T) {
	s := newTestServer(t, stubDispatcher{}, stubStorage{})

	rec := s.do(t, http.MethodPost, "/api/v1/months", gin.H{"period": "2025-09"})
	month := decode[domain.MonthPlan](t, rec)
	rec = s.do(t, http.MethodPost, "/api/v1/months/"+month.ID.Hex()+"/weeks", gin.H{"calendarWeek": 37})
	week := decode[domain.WeekPlan](t, rec)
	rec = s.do(t, http.MethodPost, "/api/v1/weeks/"+week.ID.Hex()+"/days", gin.H{"trainingDate": "2025-09-09"})
	day := decode[domain.DayPlan](t, rec)

	sectionPath := "/api/v1/days/" + day.ID.Hex() + "/sections/"
	rec = s.do(t, http.MethodPut, sectionPath+"9", gin.H{"phase": "Spiel"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPut, sectionPath+"3", gin.H{"phase": "Spielform", "organisation": "4 Tore; Leibchen"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, sectionPath+"0/sketch-upload", gin.H{"contentType": "image/png"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, sectionPath+"3/sketch-upload", gin.H{"contentType": "image/svg+xml"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	upload := decode[service.UploadURLResponse](t, rec)
	assert.Contains(t, upload.UploadURL, "https://upload.test/")

	rec = s.do(t, http.MethodPost, sectionPath+"3/sketch", gin.H{"objectKey": "sketches/someone-else/x.svg"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, sectionPath+"3/sketch", gin.H{"objectKey": upload.ObjectKey, "templateVersion": "v2"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/v1/days/"+day.ID.Hex(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	detail := decode[service.DayDetail](t, rec)
	require.Len(t, detail.Sections, 1)
	assert.Equal(t, []string{"4 Tore", "Leibchen"}, detail.Sections[0].OrganisationItems)
	require.NotNil(t, detail.Sections[0].SketchURL)
	assert.Equal(t, "https://sketch.test/"+upload.ObjectKey, *detail.Sections[0].SketchURL)
}

func TestSketchUploadWithoutStorage(t *testing.T) {
	s := newTestServer(t, stubDispatcher{}, nil)

	rec := s.do(t, http.MethodPost, "/api/v1/months", gin.H{"period": "2025-09"})
	month := decode[domain.MonthPlan](t, rec)
	rec = s.do(t, http.MethodPost, "/api/v1/months/"+month.ID.Hex()+"/weeks", gin.H{"calendarWeek": 37})
	week := decode[domain.WeekPlan](t, rec)
	rec = s.do(t, http.MethodPost, "/api/v1/weeks/"+week.ID.Hex()+"/days", gin.H{"trainingDate": "2025-09-09"})
	day := decode[domain.DayPlan](t, rec)

	rec = s.do(t, http.MethodPost, "/api/v1/days/"+day.ID.Hex()+"/sections/2/sketch-upload", gin.H{"contentType": "image/png"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestProfileRoutes(t *testing.T) {
	s := newTestServer(t, stubDispatcher{}, nil)

	rec := s.do(t, http.MethodPut, "/api/v1/preferences", gin.H{"rosterSize": 18, "ageGroup": "U13"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPut, "/api/v1/preferences", gin.H{"philosophy": "Ballbesitz"})
	require.Equal(t, http.StatusOK, rec.Code)
	prefs := decode[domain.TrainingPreferences](t, rec)
	require.NotNil(t, prefs.RosterSize)
	assert.Equal(t, 18, *prefs.RosterSize)
	assert.Equal(t, "Ballbesitz", *prefs.Philosophy)

	rec = s.do(t, http.MethodPut, "/api/v1/preferences", gin.H{"rosterSize": 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPatch, "/api/v1/me", gin.H{"club": "SV Musterstadt"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "SV Musterstadt", decode[api.UserResponse](t, rec).Club)

	rec = s.do(t, http.MethodGet, "/api/v1/me", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[api.MeResponse](t, rec)
	assert.Equal(t, "coach@example.com", me.User.Email)
	assert.Equal(t, 2, me.Quota.Allowance)
	assert.True(t, me.Quota.CanCreate)
}
