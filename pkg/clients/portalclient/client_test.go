package portalclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/jakechorley/volunteer-portal/pkg/core/model"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Auth   string
	Body   string
	Type   string
}

type fakePortal struct {
	t        *testing.T
	mu       sync.Mutex
	requests []recordedRequest
	handlers map[string]http.HandlerFunc
}

func newFakePortal(t *testing.T) (*fakePortal, *httptest.Server) {
	fp := &fakePortal{t: t, handlers: map[string]http.HandlerFunc{}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		fp.mu.Lock()
		fp.requests = append(fp.requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Auth:   r.Header.Get("Authorization"),
			Body:   string(body),
			Type:   r.Header.Get("Content-Type"),
		})
		h, ok := fp.handlers[r.URL.Path]
		fp.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	return fp, srv
}

func (fp *fakePortal) handle(path string, h http.HandlerFunc) {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	fp.handlers[path] = h
}

func (fp *fakePortal) last() recordedRequest {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	require.NotEmpty(fp.t, fp.requests)
	return fp.requests[len(fp.requests)-1]
}

func jsonHandler(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}
}

func newTestClient(t *testing.T, srv *httptest.Server, opts Options) *Client {
	opts.BaseURL = srv.URL + "/api"
	if opts.Username == "" {
		opts.Username = "svc"
		opts.Password = "pw"
	}
	c, err := NewClient(opts)
	require.NoError(t, err)
	return c
}

type observation struct {
	endpoint string
	status   int
	err      error
}

type fakeObserver struct {
	mu  sync.Mutex
	obs []observation
}

func (f *fakeObserver) ObserveRequest(endpoint string, statusCode int, _ time.Duration, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.obs = append(f.obs, observation{endpoint, statusCode, err})
}

func TestNewClient_RequiresBaseURL(t *testing.T) {
	_, err := NewClient(Options{})
	assert.Error(t, err)
}

func TestClient_BasicAuthWithoutToken(t *testing.T) {
	fp, srv := newFakePortal(t)
	fp.handle("/api/Location/GetLocations", jsonHandler(200, `[{"locationId":1,"name":"HQ","city":"Pune"}]`))

	c := newTestClient(t, srv, Options{})
	locations, err := c.GetLocations(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []model.Location{{LocationID: 1, Name: "HQ", City: "Pune"}}, locations)
	assert.Equal(t, "Basic c3ZjOnB3", fp.last().Auth)
}

func TestClient_BearerPreferredWhenTokenValid(t *testing.T) {
	fp, srv := newFakePortal(t)
	fp.handle("/api/Auth/GetUser", jsonHandler(200, `{"employeeId":"E1","name":"Ada","email":"ada@example.com","role":"Admin"}`))

	token := &oauth2.Token{AccessToken: "tok-1", TokenType: "Bearer", Expiry: time.Now().Add(time.Hour)}
	c := newTestClient(t, srv, Options{TokenSource: oauth2.StaticTokenSource(token)})

	user, err := c.GetUser(context.Background())
	require.NoError(t, err)
	assert.True(t, user.IsAdmin())
	assert.Equal(t, "Bearer tok-1", fp.last().Auth)
}

func TestClient_WithBearerDropsBasicCredentials(t *testing.T) {
	fp, srv := newFakePortal(t)
	fp.handle("/api/Auth/GetUser", jsonHandler(200, `{"employeeId":"E2","name":"Bo","email":"bo@example.com","role":"Employee"}`))

	base := newTestClient(t, srv, Options{})
	c := base.WithBearer("caller-tok")

	user, err := c.GetUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "E2", user.EmployeeID)
	assert.Equal(t, "Bearer caller-tok", fp.last().Auth)

	// An empty token sends no credentials rather than the service account's
	_, err = base.WithBearer("").GetUser(context.Background())
	require.NoError(t, err)
	assert.Empty(t, fp.last().Auth)

	// The original client is untouched
	_, err = base.GetUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Basic c3ZjOnB3", fp.last().Auth)
}

type failingSource struct{}

func (failingSource) Token() (*oauth2.Token, error) {
	return nil, errors.New("refresh token is not set")
}

func TestClient_FallsBackToBasicWhenTokenUnavailable(t *testing.T) {
	fp, srv := newFakePortal(t)
	fp.handle("/api/Auth/Logout", jsonHandler(204, ``))

	c := newTestClient(t, srv, Options{TokenSource: failingSource{}})
	require.NoError(t, c.Logout(context.Background()))

	last := fp.last()
	assert.Equal(t, http.MethodPost, last.Method)
	assert.Equal(t, "Basic c3ZjOnB3", last.Auth)
}

func TestClient_APIErrorAndObserver(t *testing.T) {
	fp, srv := newFakePortal(t)
	fp.handle("/api/Volunteer/UpdateRating", jsonHandler(409, `{"message":"already rated"}`))

	obs := &fakeObserver{}
	c := newTestClient(t, srv, Options{Observer: obs})

	err := c.UpdateRating(context.Background(), 7, 4)
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 409, apiErr.StatusCode)
	assert.Equal(t, "Volunteer/UpdateRating", apiErr.Endpoint)
	assert.True(t, IsStatus(err, http.StatusConflict))
	assert.Contains(t, err.Error(), "already rated")

	assert.Equal(t, http.MethodPut, fp.last().Method)
	assert.JSONEq(t, `{"volunteerId":7,"rating":4}`, fp.last().Body)

	require.Len(t, obs.obs, 1)
	assert.Equal(t, "Volunteer/UpdateRating", obs.obs[0].endpoint)
	assert.Equal(t, 409, obs.obs[0].status)
	assert.Error(t, obs.obs[0].err)
}

func TestClient_Timeout(t *testing.T) {
	fp, srv := newFakePortal(t)
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	fp.handle("/api/Location/GetLocations", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})

	c := newTestClient(t, srv, Options{Timeout: 50 * time.Millisecond})
	_, err := c.GetLocations(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Location/GetLocations")
}

func TestClient_EnvelopeUnwrapping(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bare", `[{"eventId":1,"name":"Clean-up"}]`},
		{"data", `{"success":true,"data":[{"eventId":1,"name":"Clean-up"}]}`},
		{"result", `{"result":[{"eventId":1,"name":"Clean-up"}]}`},
		{"items", `{"items":[{"eventId":1,"name":"Clean-up"}],"total":1}`},
		{"value", `{"value":[{"eventId":1,"name":"Clean-up"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fp, srv := newFakePortal(t)
			fp.handle("/api/Event/GetEventsByYear", jsonHandler(200, tt.body))

			c := newTestClient(t, srv, Options{})
			events, err := c.GetEventsByYear(context.Background(), 2025)
			require.NoError(t, err)
			require.Len(t, events, 1)
			assert.Equal(t, "Clean-up", events[0].Name)
			assert.Equal(t, "year=2025", fp.last().Query)
		})
	}
}

func TestClient_DownloadCertificate(t *testing.T) {
	fp, srv := newFakePortal(t)
	fp.handle("/api/Volunteer/DownloadCertificateByVId", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF-1.4 fake"))
	})

	c := newTestClient(t, srv, Options{})
	cert, err := c.DownloadCertificate(context.Background(), 99)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", cert.ContentType)
	assert.Equal(t, []byte("%PDF-1.4 fake"), cert.Content)
	assert.Equal(t, "vId=99", fp.last().Query)
}

func TestClient_CreateActivityImage_Multipart(t *testing.T) {
	fp, srv := newFakePortal(t)
	fp.handle("/api/ActivityImage/CreateActivityImage", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "5", r.FormValue("activityId"))
		file, header, err := r.FormFile("image")
		require.NoError(t, err)
		defer file.Close()
		content, _ := io.ReadAll(file)
		assert.Equal(t, "banner.png", header.Filename)
		assert.Equal(t, "png-bytes", string(content))
		jsonHandler(200, `{"imageId":12,"activityId":5,"fileName":"banner.png","url":"https://cdn/banner.png"}`)(w, r)
	})

	c := newTestClient(t, srv, Options{})
	image, err := c.CreateActivityImage(context.Background(), 5, "banner.png", stringsReader("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, 12, image.ImageID)
	assert.Equal(t, "https://cdn/banner.png", image.URL)
	assert.Contains(t, fp.last().Type, "multipart/form-data")
}

func TestClient_ActivityAndSuggestionEndpoints(t *testing.T) {
	fp, srv := newFakePortal(t)
	fp.handle("/api/Activity/CreateActivity", jsonHandler(200, `{"data":{"activityId":3}}`))
	fp.handle("/api/Activity/UpdateActivityStatus", jsonHandler(200, `{}`))
	fp.handle("/api/Suggestion/ApproveSuggestion", jsonHandler(200, ``))
	fp.handle("/api/Suggestion/GetSuggestionByEventId", jsonHandler(200, `[{"suggestionId":8,"eventId":4,"type":"Suggestion","description":"More trees"}]`))

	c := newTestClient(t, srv, Options{})
	ctx := context.Background()

	created, err := c.CreateActivity(ctx, model.Activity{Name: "Plant", Description: "d", LocationID: 1, StartDate: "2025-07-01"})
	require.NoError(t, err)
	assert.Equal(t, 3, created.ActivityID)
	assert.Equal(t, "Plant", created.Name)

	require.NoError(t, c.UpdateActivityStatus(ctx, 3, "Closed"))
	assert.JSONEq(t, `{"activityId":3,"status":"Closed"}`, fp.last().Body)

	require.NoError(t, c.ApproveSuggestion(ctx, 8))
	assert.JSONEq(t, `{"suggestionId":8}`, fp.last().Body)

	suggestions, err := c.GetSuggestionsByEventID(ctx, 4)
	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	assert.Equal(t, "More trees", suggestions[0].Description)
	assert.Equal(t, "eventId=4", fp.last().Query)
}

func TestClient_Feedback(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected *model.FeedbackRecord
	}{
		{"object", `{"feedbackId":2,"description":"Great","rating":5}`, &model.FeedbackRecord{FeedbackID: 2, VolunteerID: 10, Description: "Great", Rating: 5}},
		{"list", `[{"feedbackId":2,"volunteerId":10,"description":"Great"}]`, &model.FeedbackRecord{FeedbackID: 2, VolunteerID: 10, Description: "Great"}},
		{"empty list", `[]`, nil},
		{"null", `null`, nil},
		{"empty body", ``, nil},
		{"empty object", `{}`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fp, srv := newFakePortal(t)
			fp.handle("/api/Feedback/GetFeedbackByVolunteerId", jsonHandler(200, tt.body))

			c := newTestClient(t, srv, Options{})
			feedback, err := c.GetFeedbackByVolunteerID(context.Background(), 10)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, feedback)
		})
	}
}

func TestClient_CreateFeedbackPostsFeedbackSuggestion(t *testing.T) {
	fp, srv := newFakePortal(t)
	fp.handle("/api/Suggestion/CreateSuggestion", jsonHandler(200, `{"suggestionId":31,"addedOn":"2025-06-15T10:00:00"}`))

	c := newTestClient(t, srv, Options{})
	stored, err := c.CreateFeedback(context.Background(), model.FeedbackRecord{VolunteerID: 10, EventID: 4, Description: "Loved it", Rating: 5}, "E1")
	require.NoError(t, err)

	assert.Equal(t, 31, stored.FeedbackID)
	assert.Equal(t, "2025-06-15T10:00:00", stored.AddedOn)

	var sent map[string]any
	require.NoError(t, json.Unmarshal([]byte(fp.last().Body), &sent))
	assert.Equal(t, "Feedback", sent["type"])
	assert.Equal(t, float64(4), sent["eventId"])
	assert.Equal(t, "E1", sent["employeeId"])
}
