package portalclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/jakechorley/volunteer-portal/pkg/core/model"
)

// VolunteerRecordsByEmployeeRaw returns the undecoded volunteer records of an employee.
// Decoding is left to the caller because older deployments use different field names.
func (c *Client) VolunteerRecordsByEmployeeRaw(ctx context.Context, employeeID string) ([]byte, error) {
	query := url.Values{"employeeId": {employeeID}}
	return c.getRaw(ctx, "Volunteer/GetVolunteerByEmployeeId", query)
}

// VolunteersByEvent returns every volunteer record registered against an event
func (c *Client) VolunteersByEvent(ctx context.Context, eventID int) ([]model.VolunteerRecord, error) {
	query := url.Values{"eventId": {strconv.Itoa(eventID)}}
	raw, err := c.getRaw(ctx, "Volunteer/GetVolunteersByEventId", query)
	if err != nil {
		return nil, err
	}

	records, err := DecodeVolunteerRecords(raw)
	if err != nil || len(records) > 0 {
		return records, err
	}
	return DecodeLegacyVolunteerRecords(raw)
}

func (c *Client) UpdateVolunteerStatus(ctx context.Context, volunteerID int, status model.Status) error {
	body := struct {
		VolunteerID int          `json:"volunteerId"`
		Status      model.Status `json:"status"`
	}{volunteerID, status}
	return c.sendJSON(ctx, http.MethodPut, "Volunteer/UpdateVolunteerStatus", body, nil)
}

func (c *Client) UpdateRating(ctx context.Context, volunteerID, rating int) error {
	body := struct {
		VolunteerID int `json:"volunteerId"`
		Rating      int `json:"rating"`
	}{volunteerID, rating}
	return c.sendJSON(ctx, http.MethodPut, "Volunteer/UpdateRating", body, nil)
}

// DecodeVolunteerRecords decodes the current record shape. The payload may be
// a list, a single record, or either inside an envelope. Records without a
// volunteer id are dropped.
func DecodeVolunteerRecords(raw []byte) ([]model.VolunteerRecord, error) {
	var records []model.VolunteerRecord
	if err := decodeList(raw, &records); err != nil {
		return nil, fmt.Errorf("failed to decode volunteer records: %w", err)
	}

	kept := records[:0]
	for _, r := range records {
		if r.VolunteerID != 0 {
			kept = append(kept, r)
		}
	}
	return kept, nil
}

// legacyVolunteerRecord is the snake_case shape served by older deployments
type legacyVolunteerRecord struct {
	VolunteerID       model.FlexString `json:"volunteer_id"`
	VID               model.FlexString `json:"vId"`
	EmployeeID        model.FlexString `json:"employee_id"`
	EmpID             model.FlexString `json:"empId"`
	EventLocationID   model.FlexString `json:"event_location_id"`
	EventLocationName string           `json:"event_location_name"`
	Status            string           `json:"volunteer_status"`
	Rating            model.FlexString `json:"event_rating"`
	AddedOn           string           `json:"added_on"`
	EventName         string           `json:"event_name"`
	EventSubName      string           `json:"event_sub_name"`
	TentativeMonth    model.FlexString `json:"tentative_month"`
	TentativeYear     model.FlexString `json:"tentative_year"`
	EventDate         string           `json:"event_date"`
	EventStime        string           `json:"event_stime"`
	EventEtime        string           `json:"event_etime"`
	StartTime         string           `json:"start_time"`
	EndTime           string           `json:"end_time"`
	Venue             string           `json:"venue"`
	EnableConf        model.FlexString `json:"enable_conf"`
	EnableComp        model.FlexString `json:"enable_comp"`
}

// DecodeLegacyVolunteerRecords decodes the snake_case record shape
func DecodeLegacyVolunteerRecords(raw []byte) ([]model.VolunteerRecord, error) {
	var legacy []legacyVolunteerRecord
	if err := decodeList(raw, &legacy); err != nil {
		return nil, fmt.Errorf("failed to decode legacy volunteer records: %w", err)
	}

	records := make([]model.VolunteerRecord, 0, len(legacy))
	for _, l := range legacy {
		id := atoi(firstFlex(l.VolunteerID, l.VID))
		if id == 0 {
			continue
		}
		records = append(records, model.VolunteerRecord{
			VolunteerID:       id,
			EmployeeID:        firstFlex(l.EmployeeID, l.EmpID),
			EventLocationID:   atoi(l.EventLocationID.String()),
			EventLocationName: l.EventLocationName,
			Status:            model.Status(strings.ToUpper(strings.TrimSpace(l.Status))),
			Rating:            atoi(l.Rating.String()),
			AddedOn:           l.AddedOn,
			EventName:         l.EventName,
			EventSubName:      l.EventSubName,
			TentativeMonth:    l.TentativeMonth,
			TentativeYear:     l.TentativeYear,
			EventDate:         l.EventDate,
			EventStime:        l.EventStime,
			EventEtime:        l.EventEtime,
			StartTime:         l.StartTime,
			EndTime:           l.EndTime,
			Venue:             l.Venue,
			EnableConf:        l.EnableConf,
			EnableComp:        l.EnableComp,
		})
	}
	return records, nil
}

// decodeList decodes an enveloped list, or a single object as a one-element list
func decodeList[T any](raw []byte, out *[]T) error {
	payload := bytes.TrimSpace(unwrapEnvelope(raw))
	if len(payload) == 0 || string(payload) == "null" {
		*out = nil
		return nil
	}
	if payload[0] == '{' {
		var single T
		if err := json.Unmarshal(payload, &single); err != nil {
			return err
		}
		*out = []T{single}
		return nil
	}
	return json.Unmarshal(payload, out)
}

func firstFlex(values ...model.FlexString) string {
	for _, v := range values {
		if s := strings.TrimSpace(v.String()); s != "" {
			return s
		}
	}
	return ""
}

func atoi(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}
