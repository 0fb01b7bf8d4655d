package services

import (
	"context"
	"fmt"
	"io"
	"sync"

	"golang.org/x/oauth2"

	"github.com/jakechorley/volunteer-portal/pkg/clients/portalclient"
	"github.com/jakechorley/volunteer-portal/pkg/clients/sheetsclient"
	"github.com/jakechorley/volunteer-portal/pkg/core/model"
)

// mockPortal implements every portal client interface used by the services
type mockPortal struct {
	mu    sync.Mutex
	calls map[string]int

	// records
	employeeRaw    []byte
	employeeRawErr error
	eventRecords   map[int][]model.VolunteerRecord
	eventErr       error
	events         map[int][]model.Event
	eventsErr      error
	feedback       map[int]*model.FeedbackRecord
	feedbackErr    error
	employees      map[string]*model.Employee

	// mutations
	statusErr   error
	ratingErr   error
	createFbErr error
	// sendGate, when set, blocks status and rating updates until it is closed
	sendGate chan struct{}
	// sendStarted receives once per blocked update
	sendStarted chan struct{}

	statusUpdates  map[int]model.Status
	ratingUpdates  map[int]int
	createdFb      []model.FeedbackRecord
	createdFbOwner string

	// admin
	activities     []model.Activity
	createdAct     []model.Activity
	activityStatus map[int]string
	uploadedImage  []byte
	locations      []model.Location
	suggestions    []model.Suggestion
	approved       []int

	// auth
	user      *model.User
	logoutErr error
	loginTo   string

	// certificates
	certificate *portalclient.Certificate
}

func newMockPortal() *mockPortal {
	return &mockPortal{
		calls:          make(map[string]int),
		eventRecords:   make(map[int][]model.VolunteerRecord),
		events:         make(map[int][]model.Event),
		feedback:       make(map[int]*model.FeedbackRecord),
		employees:      make(map[string]*model.Employee),
		statusUpdates:  make(map[int]model.Status),
		ratingUpdates:  make(map[int]int),
		activityStatus: make(map[int]string),
	}
}

func (m *mockPortal) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[name]++
}

func (m *mockPortal) count(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[name]
}

func (m *mockPortal) wait(ctx context.Context) error {
	if m.sendGate == nil {
		return nil
	}
	if m.sendStarted != nil {
		m.sendStarted <- struct{}{}
	}
	select {
	case <-m.sendGate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *mockPortal) VolunteerRecordsByEmployeeRaw(ctx context.Context, employeeID string) ([]byte, error) {
	m.record("VolunteerRecordsByEmployeeRaw")
	if m.employeeRawErr != nil {
		return nil, m.employeeRawErr
	}
	return m.employeeRaw, nil
}

func (m *mockPortal) VolunteersByEvent(ctx context.Context, eventID int) ([]model.VolunteerRecord, error) {
	m.record("VolunteersByEvent")
	if m.eventErr != nil {
		return nil, m.eventErr
	}
	return m.eventRecords[eventID], nil
}

func (m *mockPortal) GetEventsByYear(ctx context.Context, year int) ([]model.Event, error) {
	m.record("GetEventsByYear")
	if m.eventsErr != nil {
		return nil, m.eventsErr
	}
	return m.events[year], nil
}

func (m *mockPortal) GetFeedbackByVolunteerID(ctx context.Context, volunteerID int) (*model.FeedbackRecord, error) {
	m.record("GetFeedbackByVolunteerID")
	if m.feedbackErr != nil {
		return nil, m.feedbackErr
	}
	return m.feedback[volunteerID], nil
}

func (m *mockPortal) GetEmployee(ctx context.Context, employeeID string) (*model.Employee, error) {
	m.record("GetEmployee")
	emp, ok := m.employees[employeeID]
	if !ok {
		return nil, fmt.Errorf("employee %s not found", employeeID)
	}
	return emp, nil
}

func (m *mockPortal) UpdateVolunteerStatus(ctx context.Context, volunteerID int, status model.Status) error {
	m.record("UpdateVolunteerStatus")
	if err := m.wait(ctx); err != nil {
		return err
	}
	if m.statusErr != nil {
		return m.statusErr
	}
	m.mu.Lock()
	m.statusUpdates[volunteerID] = status
	m.mu.Unlock()
	return nil
}

func (m *mockPortal) UpdateRating(ctx context.Context, volunteerID, rating int) error {
	m.record("UpdateRating")
	if err := m.wait(ctx); err != nil {
		return err
	}
	if m.ratingErr != nil {
		return m.ratingErr
	}
	m.mu.Lock()
	m.ratingUpdates[volunteerID] = rating
	m.mu.Unlock()
	return nil
}

func (m *mockPortal) CreateFeedback(ctx context.Context, feedback model.FeedbackRecord, employeeID string) (*model.FeedbackRecord, error) {
	m.record("CreateFeedback")
	if m.createFbErr != nil {
		return nil, m.createFbErr
	}
	m.createdFb = append(m.createdFb, feedback)
	m.createdFbOwner = employeeID
	feedback.FeedbackID = 900 + len(m.createdFb)
	return &feedback, nil
}

func (m *mockPortal) DownloadCertificate(ctx context.Context, volunteerID int) (*portalclient.Certificate, error) {
	m.record("DownloadCertificate")
	if m.certificate == nil {
		return nil, &portalclient.APIError{Method: "GET", Endpoint: "Volunteer/DownloadCertificate", StatusCode: 404}
	}
	return m.certificate, nil
}

func (m *mockPortal) ListActivities(ctx context.Context) ([]model.Activity, error) {
	m.record("ListActivities")
	return m.activities, nil
}

func (m *mockPortal) CreateActivity(ctx context.Context, activity model.Activity) (*model.Activity, error) {
	m.record("CreateActivity")
	m.createdAct = append(m.createdAct, activity)
	activity.ActivityID = 100 + len(m.createdAct)
	return &activity, nil
}

func (m *mockPortal) UpdateActivity(ctx context.Context, activity model.Activity) (*model.Activity, error) {
	m.record("UpdateActivity")
	return &activity, nil
}

func (m *mockPortal) UpdateActivityStatus(ctx context.Context, activityID int, status string) error {
	m.record("UpdateActivityStatus")
	m.activityStatus[activityID] = status
	return nil
}

func (m *mockPortal) CreateActivityImage(ctx context.Context, activityID int, fileName string, content io.Reader) (*model.ActivityImage, error) {
	m.record("CreateActivityImage")
	data, err := io.ReadAll(content)
	if err != nil {
		return nil, err
	}
	m.uploadedImage = data
	return &model.ActivityImage{ImageID: 1, ActivityID: activityID, FileName: fileName}, nil
}

func (m *mockPortal) GetLocations(ctx context.Context) ([]model.Location, error) {
	m.record("GetLocations")
	return m.locations, nil
}

func (m *mockPortal) GetSuggestionsByEventID(ctx context.Context, eventID int) ([]model.Suggestion, error) {
	m.record("GetSuggestionsByEventID")
	var result []model.Suggestion
	for _, s := range m.suggestions {
		if s.EventID == eventID {
			result = append(result, s)
		}
	}
	return result, nil
}

func (m *mockPortal) ApproveSuggestion(ctx context.Context, suggestionID int) error {
	m.record("ApproveSuggestion")
	m.approved = append(m.approved, suggestionID)
	return nil
}

func (m *mockPortal) RequestLoginLink(ctx context.Context, email string) error {
	m.record("RequestLoginLink")
	m.loginTo = email
	return nil
}

func (m *mockPortal) GetUser(ctx context.Context) (*model.User, error) {
	m.record("GetUser")
	if m.user == nil {
		return nil, &portalclient.APIError{Method: "GET", Endpoint: "Auth/GetUser", StatusCode: 401}
	}
	return m.user, nil
}

func (m *mockPortal) Logout(ctx context.Context) error {
	m.record("Logout")
	return m.logoutErr
}

// mockPrompter answers every confirmation with answer
type mockPrompter struct {
	answer   bool
	err      error
	messages []string
}

func (p *mockPrompter) Confirm(ctx context.Context, message string) (bool, error) {
	p.messages = append(p.messages, message)
	return p.answer, p.err
}

// mockRecorder collects transition outcomes
type mockRecorder struct {
	mu       sync.Mutex
	outcomes []string
}

func (r *mockRecorder) ObserveTransition(kind, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, kind+":"+outcome)
}

func (r *mockRecorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.outcomes...)
}

// mockPublisher records published rosters
type mockPublisher struct {
	spreadsheetID string
	roster        *sheetsclient.Roster
	err           error
}

func (p *mockPublisher) PublishRoster(ctx context.Context, spreadsheetID string, roster *sheetsclient.Roster) error {
	if p.err != nil {
		return p.err
	}
	p.spreadsheetID = spreadsheetID
	p.roster = roster
	return nil
}

// mockMailer records sent emails
type mockMailer struct {
	sent    []string
	failFor map[string]bool
}

func (m *mockMailer) SendEmail(ctx context.Context, to, subject, body string) error {
	if m.failFor[to] {
		return fmt.Errorf("smtp rejected %s", to)
	}
	m.sent = append(m.sent, to)
	return nil
}

// mockTokenStore records saved and deleted tokens
type mockTokenStore struct {
	saved   map[string]*oauth2.Token
	deleted []string
}

func (s *mockTokenStore) Save(name, env string, token *oauth2.Token) error {
	if s.saved == nil {
		s.saved = make(map[string]*oauth2.Token)
	}
	s.saved[name+"-"+env] = token
	return nil
}

func (s *mockTokenStore) Delete(name, env string) error {
	s.deleted = append(s.deleted, name+"-"+env)
	return nil
}
