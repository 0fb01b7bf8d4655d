package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/juju/clock/testclock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/volunteer-portal/pkg/clients/portalclient"
	"github.com/jakechorley/volunteer-portal/pkg/core/achievements"
	"github.com/jakechorley/volunteer-portal/pkg/core/model"
	"github.com/jakechorley/volunteer-portal/pkg/core/services"
	"github.com/jakechorley/volunteer-portal/pkg/utils/metrics"
)

var serverNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

const employeeRecords = `[
	{"volunteerId": 1, "employeeId": "E1", "status": "N", "enableConf": "1", "eventName": "Food Drive", "addedOn": "2025-06-01T00:00:00"},
	{"volunteerId": 3, "employeeId": "E1", "status": "A", "rating": 0, "eventName": "Beach Cleanup", "eventDate": "2025-05-10T00:00:00", "addedOn": "2025-04-01T00:00:00"},
	{"volunteerId": 4, "employeeId": "E1", "status": "A", "rating": 3, "eventName": "Beach Cleanup", "addedOn": "2025-03-01T00:00:00"}
]`

const callerToken = "tok-E1"

var usersByToken = map[string]*model.User{
	"tok-E1": {EmployeeID: "E1", Name: "Ada", Email: "ada@example.com", Role: "Employee"},
	"tok-E2": {EmployeeID: "E2", Name: "Bo", Email: "bo@example.com", Role: "Employee"},
}

// fakePortal implements Portal
type fakePortal struct {
	mu           sync.Mutex
	rawCalls     int
	statusTokens []string
	statusErr    error
	gate         chan struct{}
	started      chan struct{}
}

// callerPortal is the fake seen through one caller's bearer token
type callerPortal struct {
	*fakePortal
	token string
}

func (p *callerPortal) GetUser(ctx context.Context) (*model.User, error) {
	user, ok := usersByToken[p.token]
	if !ok {
		return nil, &portalclient.APIError{Method: http.MethodGet, Endpoint: "Auth/GetUser", StatusCode: http.StatusUnauthorized}
	}
	return user, nil
}

func (p *callerPortal) UpdateVolunteerStatus(ctx context.Context, volunteerID int, status model.Status) error {
	p.mu.Lock()
	p.statusTokens = append(p.statusTokens, p.token)
	p.mu.Unlock()
	return p.fakePortal.UpdateVolunteerStatus(ctx, volunteerID, status)
}

type fakeSessions struct {
	portal *fakePortal
}

func (s fakeSessions) ForToken(token string) Portal {
	return &callerPortal{fakePortal: s.portal, token: token}
}

func (f *fakePortal) RequestLoginLink(ctx context.Context, email string) error {
	return nil
}

func (f *fakePortal) Logout(ctx context.Context) error {
	return nil
}

func (f *fakePortal) VolunteerRecordsByEmployeeRaw(ctx context.Context, employeeID string) ([]byte, error) {
	f.mu.Lock()
	f.rawCalls++
	f.mu.Unlock()
	if employeeID != "E1" {
		return []byte(`[]`), nil
	}
	return []byte(employeeRecords), nil
}

func (f *fakePortal) VolunteersByEvent(ctx context.Context, eventID int) ([]model.VolunteerRecord, error) {
	return nil, nil
}

func (f *fakePortal) GetEventsByYear(ctx context.Context, year int) ([]model.Event, error) {
	if year == 2025 {
		return []model.Event{{EventID: 7, Name: "Beach Cleanup"}}, nil
	}
	return nil, nil
}

func (f *fakePortal) GetFeedbackByVolunteerID(ctx context.Context, volunteerID int) (*model.FeedbackRecord, error) {
	return nil, nil
}

func (f *fakePortal) UpdateVolunteerStatus(ctx context.Context, volunteerID int, status model.Status) error {
	if f.gate != nil {
		f.started <- struct{}{}
		<-f.gate
	}
	return f.statusErr
}

func (f *fakePortal) UpdateRating(ctx context.Context, volunteerID, rating int) error {
	return nil
}

func (f *fakePortal) CreateFeedback(ctx context.Context, feedback model.FeedbackRecord, employeeID string) (*model.FeedbackRecord, error) {
	feedback.FeedbackID = 500
	return &feedback, nil
}

func (f *fakePortal) DownloadCertificate(ctx context.Context, volunteerID int) (*portalclient.Certificate, error) {
	if volunteerID != 4 {
		return nil, &portalclient.APIError{Method: http.MethodGet, Endpoint: "Volunteer/DownloadCertificate", StatusCode: http.StatusInternalServerError}
	}
	return &portalclient.Certificate{Content: []byte("%PDF-1.4\n%%EOF\n"), ContentType: "application/pdf"}, nil
}

func newTestServer(portal *fakePortal, guard *services.Guard, gatherer prometheus.Gatherer) *Server {
	return New(Options{
		Sessions:       fakeSessions{portal: portal},
		Guard:          guard,
		Clock:          testclock.NewClock(serverNow),
		Location:       time.UTC,
		Gatherer:       gatherer,
		AllowedOrigins: []string{"https://volunteer.example.com"},
	})
}

func newRequest(method, path, body, authHeader string) *http.Request {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	return req
}

// do sends the request as employee E1
func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	return doAs(t, s, "Bearer "+callerToken, method, path, body)
}

func doAs(t *testing.T, s *Server, authHeader, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, newRequest(method, path, body, authHeader))
	return rec
}

func decodeRecord(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var view map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	return view
}

func TestHealthz(t *testing.T) {
	s := newTestServer(&fakePortal{}, nil, nil)
	rec := do(t, s, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestGetAchievements(t *testing.T) {
	s := newTestServer(&fakePortal{}, nil, nil)

	rec := do(t, s, http.MethodGet, "/api/employees/E1/achievements", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var view achievementsView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))

	assert.Equal(t, "E1", view.EmployeeID)
	assert.Equal(t, "primary", view.Strategy)
	require.Len(t, view.Upcoming, 1)
	require.Len(t, view.Attended, 2)
	assert.Empty(t, view.Other)

	upcoming := view.Upcoming[0]
	assert.Equal(t, 1, upcoming.VolunteerID)
	assert.True(t, upcoming.CanConfirm)
	assert.Equal(t, "upcoming", upcoming.Bucket)

	// Attended is newest first
	assert.Equal(t, 3, view.Attended[0].VolunteerID)
	assert.True(t, view.Attended[0].CanRate)
	assert.Equal(t, "Sat, 10 May 2025", view.Attended[0].DisplayDate)
	assert.Equal(t, 7, view.Attended[0].EventID)
	assert.True(t, view.Attended[1].CanFeedback)
}

func TestGetAchievements_CachedUntilRefresh(t *testing.T) {
	portal := &fakePortal{}
	s := newTestServer(portal, nil, nil)

	do(t, s, http.MethodGet, "/api/employees/E1/achievements", "")
	do(t, s, http.MethodGet, "/api/employees/E1/achievements", "")
	assert.Equal(t, 1, portal.rawCalls)

	do(t, s, http.MethodGet, "/api/employees/E1/achievements?refresh=true", "")
	assert.Equal(t, 2, portal.rawCalls)
}

func TestConfirm(t *testing.T) {
	s := newTestServer(&fakePortal{}, nil, nil)

	rec := do(t, s, http.MethodPost, "/api/employees/E1/volunteers/1/confirm", "")
	require.Equal(t, http.StatusOK, rec.Code)
	view := decodeRecord(t, rec)
	assert.Equal(t, "C", view["status"])
	assert.Equal(t, false, view["canConfirm"])

	rec = do(t, s, http.MethodPost, "/api/employees/E1/volunteers/1/confirm", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/employees/E1/volunteers/99/confirm", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/employees/E1/volunteers/abc/confirm", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConfirm_ConcurrentRequestConflicts(t *testing.T) {
	portal := &fakePortal{gate: make(chan struct{}), started: make(chan struct{}, 1)}
	s := newTestServer(portal, nil, nil)

	// Load the board before racing
	do(t, s, http.MethodGet, "/api/employees/E1/achievements", "")

	first := make(chan int, 1)
	go func() {
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, newRequest(http.MethodPost, "/api/employees/E1/volunteers/1/confirm", "", "Bearer "+callerToken))
		first <- rec.Code
	}()

	select {
	case <-portal.started:
	case <-time.After(5 * time.Second):
		t.Fatal("first request never reached the portal")
	}

	rec := do(t, s, http.MethodPost, "/api/employees/E1/volunteers/1/confirm", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	close(portal.gate)
	select {
	case code := <-first:
		assert.Equal(t, http.StatusOK, code)
	case <-time.After(5 * time.Second):
		t.Fatal("first request never finished")
	}
}

func TestConfirm_UpstreamFailure(t *testing.T) {
	portal := &fakePortal{statusErr: &portalclient.APIError{Method: http.MethodPut, Endpoint: "Volunteer/UpdateVolunteerStatus", StatusCode: 503}}
	s := newTestServer(portal, nil, nil)

	rec := do(t, s, http.MethodPost, "/api/employees/E1/volunteers/1/confirm", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	// State is unchanged, the record can still be confirmed
	rec = do(t, s, http.MethodGet, "/api/employees/E1/achievements", "")
	var view achievementsView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Len(t, view.Upcoming, 1)
	assert.True(t, view.Upcoming[0].CanConfirm)
}

func TestReject(t *testing.T) {
	s := newTestServer(&fakePortal{}, nil, nil)

	rec := do(t, s, http.MethodPost, "/api/employees/E1/volunteers/1/reject", `{"confirmed": false}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/employees/E1/volunteers/1/reject", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/employees/E1/volunteers/1/reject", `{"confirmed": true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	view := decodeRecord(t, rec)
	assert.Equal(t, "R", view["status"])
}

func TestRating(t *testing.T) {
	s := newTestServer(&fakePortal{}, nil, nil)

	rec := do(t, s, http.MethodPut, "/api/employees/E1/volunteers/3/rating", `{"rating": 9}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(t, s, http.MethodPut, "/api/employees/E1/volunteers/3/rating", `{"rating": 5}`)
	require.Equal(t, http.StatusOK, rec.Code)
	view := decodeRecord(t, rec)
	assert.Equal(t, float64(5), view["rating"])
	assert.Equal(t, false, view["canRate"])
	assert.Equal(t, true, view["canFeedback"])

	rec = do(t, s, http.MethodPut, "/api/employees/E1/volunteers/3/rating", `{"rating": 4}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestFeedback(t *testing.T) {
	s := newTestServer(&fakePortal{}, nil, nil)

	rec := do(t, s, http.MethodPost, "/api/employees/E1/volunteers/4/feedback", `{"description": ""}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/employees/E1/volunteers/4/feedback", `{"description": "Loved it"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	view := decodeRecord(t, rec)
	feedback, ok := view["feedback"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Loved it", feedback["description"])
	assert.Equal(t, float64(7), feedback["eventId"])
	assert.Equal(t, false, view["canFeedback"])

	rec = do(t, s, http.MethodPost, "/api/employees/E1/volunteers/4/feedback", `{"description": "Again"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestCertificate(t *testing.T) {
	s := newTestServer(&fakePortal{}, nil, nil)

	rec := do(t, s, http.MethodGet, "/api/volunteers/4/certificate", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="Certificate_4.pdf"`, rec.Header().Get("Content-Disposition"))

	rec = do(t, s, http.MethodGet, "/api/volunteers/3/certificate", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	// Records outside the caller's board are not served
	rec = do(t, s, http.MethodGet, "/api/volunteers/5/certificate", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doAs(t, s, "Bearer tok-E2", http.MethodGet, "/api/volunteers/4/certificate", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAuth_RequiresBearerToken(t *testing.T) {
	portal := &fakePortal{}
	s := newTestServer(portal, nil, nil)

	tests := []struct {
		name       string
		authHeader string
	}{
		{"missing header", ""},
		{"basic scheme", "Basic c3ZjOnB3"},
		{"empty bearer", "Bearer "},
		{"unknown token", "Bearer expired"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doAs(t, s, tt.authHeader, http.MethodGet, "/api/employees/E1/achievements", "")
			assert.Equal(t, http.StatusUnauthorized, rec.Code)

			rec = doAs(t, s, tt.authHeader, http.MethodGet, "/api/volunteers/4/certificate", "")
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
	assert.Equal(t, 0, portal.rawCalls)

	rec := doAs(t, s, "", http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuth_OtherEmployeeForbidden(t *testing.T) {
	portal := &fakePortal{}
	s := newTestServer(portal, nil, nil)

	rec := do(t, s, http.MethodGet, "/api/employees/E2/achievements", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/employees/E2/volunteers/1/confirm", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doAs(t, s, "Bearer tok-E2", http.MethodPost, "/api/employees/E1/volunteers/1/confirm", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doAs(t, s, "Bearer tok-E2", http.MethodPut, "/api/employees/E1/volunteers/3/rating", `{"rating": 5}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	assert.Equal(t, 0, portal.rawCalls)
	assert.Empty(t, portal.statusTokens)
}

func TestConfirm_ForwardsCallerToken(t *testing.T) {
	portal := &fakePortal{}
	s := newTestServer(portal, nil, nil)

	rec := do(t, s, http.MethodPost, "/api/employees/E1/volunteers/1/confirm", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{callerToken}, portal.statusTokens)
}

func TestGetAchievements_RefreshKeepsBoardWithTransitionInFlight(t *testing.T) {
	portal := &fakePortal{gate: make(chan struct{}), started: make(chan struct{}, 1)}
	s := newTestServer(portal, nil, nil)

	do(t, s, http.MethodGet, "/api/employees/E1/achievements", "")
	require.Equal(t, 1, portal.rawCalls)

	first := make(chan int, 1)
	go func() {
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, newRequest(http.MethodPost, "/api/employees/E1/volunteers/1/confirm", "", "Bearer "+callerToken))
		first <- rec.Code
	}()

	select {
	case <-portal.started:
	case <-time.After(5 * time.Second):
		t.Fatal("confirm never reached the portal")
	}

	rec := do(t, s, http.MethodGet, "/api/employees/E1/achievements?refresh=true", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, portal.rawCalls)

	// The guard still holds across the refresh
	rec = do(t, s, http.MethodPost, "/api/employees/E1/volunteers/1/confirm", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	close(portal.gate)
	select {
	case code := <-first:
		require.Equal(t, http.StatusOK, code)
	case <-time.After(5 * time.Second):
		t.Fatal("confirm never finished")
	}

	rec = do(t, s, http.MethodGet, "/api/employees/E1/achievements", "")
	var view achievementsView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	found := false
	for _, bucket := range [][]recordView{view.Upcoming, view.Attended, view.Other} {
		for _, r := range bucket {
			if r.VolunteerID == 1 {
				found = true
				assert.Equal(t, model.StatusConfirmed, r.Status)
			}
		}
	}
	assert.True(t, found)

	// Nothing in flight, so a refresh reloads again
	do(t, s, http.MethodGet, "/api/employees/E1/achievements?refresh=true", "")
	assert.Equal(t, 2, portal.rawCalls)
}

func TestMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector()
	registry.MustRegister(collector)
	s := newTestServer(&fakePortal{}, &services.Guard{Metrics: collector}, registry)

	do(t, s, http.MethodPost, "/api/employees/E1/volunteers/1/confirm", "")

	rec := do(t, s, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `volunteer_portal_transitions_total{kind="status",outcome="applied"} 1`)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(&fakePortal{}, nil, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/employees/E1/achievements", nil)
	req.Header.Set("Origin", "https://volunteer.example.com")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://volunteer.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err      error
		expected int
	}{
		{achievements.ErrTransitionInFlight, http.StatusConflict},
		{fmt.Errorf("%w: pending", services.ErrTransitionClaimed), http.StatusConflict},
		{achievements.ErrUnknownVolunteer, http.StatusNotFound},
		{achievements.ErrAlreadyRated, http.StatusUnprocessableEntity},
		{fmt.Errorf("%w: Description (required)", services.ErrValidation), http.StatusUnprocessableEntity},
		{services.ErrNoEventContext, http.StatusUnprocessableEntity},
		{fmt.Errorf("failed: %w", &portalclient.APIError{StatusCode: 500}), http.StatusBadGateway},
		{fmt.Errorf("failed: %w", context.DeadlineExceeded), http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, statusFor(tt.err), tt.err.Error())
	}
}
