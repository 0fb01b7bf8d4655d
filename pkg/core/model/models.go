package model

// Status is a volunteer's participation status for one event location
type Status string

const (
	StatusNoAction    Status = "N"
	StatusConfirmed   Status = "C"
	StatusAttended    Status = "A"
	StatusRejected    Status = "R"
	StatusNotAttended Status = "X"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusNoAction, StatusConfirmed, StatusAttended, StatusRejected, StatusNotAttended:
		return true
	}
	return false
}

// Label returns the human-readable name of the status
func (s Status) Label() string {
	switch s {
	case StatusNoAction:
		return "No action"
	case StatusConfirmed:
		return "Confirmed"
	case StatusAttended:
		return "Attended"
	case StatusRejected:
		return "Rejected"
	case StatusNotAttended:
		return "Not attended"
	}
	return "Unknown"
}

// VolunteerRecord is an employee's registration against one event location.
// Event fields are denormalized copies taken when the record is fetched.
type VolunteerRecord struct {
	VolunteerID       int    `json:"volunteerId"`
	EmployeeID        string `json:"employeeId"`
	EventLocationID   int    `json:"eventLocationId"`
	EventLocationName string `json:"eventLocationName"`
	Status            Status `json:"status"`
	Rating            int    `json:"rating"`
	AddedOn           string `json:"addedOn"`

	EventName      string     `json:"eventName"`
	EventSubName   string     `json:"eventSubName"`
	TentativeMonth FlexString `json:"tentativeMonth"`
	TentativeYear  FlexString `json:"tentativeYear"`
	EventDate      string     `json:"eventDate"`
	EventStime     string     `json:"eventStime"`
	EventEtime     string     `json:"eventEtime"`
	StartTime      string     `json:"startTime"`
	EndTime        string     `json:"endTime"`
	Venue          string     `json:"venue"`
	EnableConf     FlexString `json:"enableConf"`
	EnableComp     FlexString `json:"enableComp"`
}

// FeedbackRecord is the one-time free-text feedback for a rated volunteer record
type FeedbackRecord struct {
	FeedbackID  int    `json:"feedbackId,omitempty"`
	VolunteerID int    `json:"volunteerId"`
	EventID     int    `json:"eventId,omitempty"`
	Description string `json:"description"`
	Rating      int    `json:"rating"`
	AddedOn     string `json:"addedOn,omitempty"`
}

type EventType string

const (
	EventTypeAnnual    EventType = "annual"
	EventTypeYearRound EventType = "year-round"
)

// Event is a volunteering event as listed by year
type Event struct {
	EventID        int        `json:"eventId"`
	Name           string     `json:"name"`
	SubName        string     `json:"subName"`
	TentativeMonth FlexString `json:"tentativeMonth"`
	TentativeYear  FlexString `json:"tentativeYear"`
	Type           EventType  `json:"type"`
}

// Activity is an administrator-managed volunteering activity
type Activity struct {
	ActivityID  int    `json:"activityId,omitempty"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description" validate:"required"`
	LocationID  int    `json:"locationId" validate:"required,gt=0"`
	StartDate   string `json:"startDate" validate:"required"`
	EndDate     string `json:"endDate,omitempty"`
	Capacity    int    `json:"capacity,omitempty" validate:"omitempty,gt=0"`
	Status      string `json:"status,omitempty"`
}

// ActivityImage is an image attached to an activity
type ActivityImage struct {
	ImageID    int    `json:"imageId,omitempty"`
	ActivityID int    `json:"activityId"`
	FileName   string `json:"fileName"`
	URL        string `json:"url,omitempty"`
}

// Location is a place where activities and events run
type Location struct {
	LocationID int    `json:"locationId"`
	Name       string `json:"name"`
	City       string `json:"city"`
	Address    string `json:"address,omitempty"`
}

type SuggestionType string

const (
	SuggestionTypeIdea     SuggestionType = "Suggestion"
	SuggestionTypeFeedback SuggestionType = "Feedback"
)

// Suggestion is an employee-submitted idea or feedback entry awaiting review
type Suggestion struct {
	SuggestionID int            `json:"suggestionId,omitempty"`
	EventID      int            `json:"eventId"`
	VolunteerID  int            `json:"volunteerId,omitempty"`
	EmployeeID   string         `json:"employeeId,omitempty"`
	Type         SuggestionType `json:"type"`
	Description  string         `json:"description"`
	Rating       int            `json:"rating,omitempty"`
	Approved     bool           `json:"approved"`
	AddedOn      string         `json:"addedOn,omitempty"`
}

// Employee is the owner of volunteer records
type Employee struct {
	EmployeeID string `json:"employeeId"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Email      string `json:"email"`
	Department string `json:"department,omitempty"`
}

// FullName returns "First Last", or whichever part is present
func (e Employee) FullName() string {
	switch {
	case e.FirstName == "":
		return e.LastName
	case e.LastName == "":
		return e.FirstName
	}
	return e.FirstName + " " + e.LastName
}

// User is the authenticated portal user
type User struct {
	EmployeeID string `json:"employeeId"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Role       string `json:"role"`
}

// IsAdmin reports whether the user may use the back office
func (u User) IsAdmin() bool {
	return u.Role == "Admin"
}
