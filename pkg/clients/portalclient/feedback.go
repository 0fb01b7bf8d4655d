package portalclient

import (
	"context"
	"net/url"
	"strconv"

	"github.com/jakechorley/volunteer-portal/pkg/core/model"
)

const feedbackEndpoint = "Feedback/GetFeedbackByVolunteerId"

// GetFeedbackByVolunteerID returns the feedback for a volunteer record, or nil if none exists
func (c *Client) GetFeedbackByVolunteerID(ctx context.Context, volunteerID int) (*model.FeedbackRecord, error) {
	query := url.Values{"volunteerId": {strconv.Itoa(volunteerID)}}
	raw, err := c.getRaw(ctx, feedbackEndpoint, query)
	if err != nil {
		return nil, err
	}

	// The endpoint answers with a single object, a one-element list, or nothing
	payload := unwrapEnvelope(raw)
	if len(payload) == 0 || string(payload) == "null" {
		return nil, nil
	}

	if payload[0] == '[' {
		var list []model.FeedbackRecord
		if err := decodeResponse(feedbackEndpoint, payload, &list); err != nil {
			return nil, err
		}
		if len(list) == 0 {
			return nil, nil
		}
		return &list[0], nil
	}

	var feedback model.FeedbackRecord
	if err := decodeResponse(feedbackEndpoint, payload, &feedback); err != nil {
		return nil, err
	}
	if feedback.Description == "" && feedback.FeedbackID == 0 {
		return nil, nil
	}
	if feedback.VolunteerID == 0 {
		feedback.VolunteerID = volunteerID
	}
	return &feedback, nil
}

// CreateFeedback stores feedback as a feedback-typed suggestion against the event
func (c *Client) CreateFeedback(ctx context.Context, feedback model.FeedbackRecord, employeeID string) (*model.FeedbackRecord, error) {
	created, err := c.CreateSuggestion(ctx, model.Suggestion{
		EventID:     feedback.EventID,
		VolunteerID: feedback.VolunteerID,
		EmployeeID:  employeeID,
		Type:        model.SuggestionTypeFeedback,
		Description: feedback.Description,
		Rating:      feedback.Rating,
	})
	if err != nil {
		return nil, err
	}

	stored := feedback
	stored.FeedbackID = created.SuggestionID
	stored.AddedOn = created.AddedOn
	return &stored, nil
}
