package achievements

import (
	"errors"
	"strings"

	"github.com/jakechorley/volunteer-portal/pkg/core/model"
)

const (
	MinRating = 1
	MaxRating = 5
)

var (
	ErrUnknownVolunteer       = errors.New("volunteer record not found")
	ErrNotConfirmable         = errors.New("participation cannot be confirmed or rejected for this record")
	ErrTransitionInFlight     = errors.New("an update for this volunteer record is already in progress")
	ErrNotAttended            = errors.New("only attended events can be rated")
	ErrAlreadyRated           = errors.New("event has already been rated")
	ErrInvalidRating          = errors.New("rating must be between 1 and 5")
	ErrFeedbackExists         = errors.New("feedback has already been submitted")
	ErrFeedbackRequiresRating = errors.New("event must be rated before feedback can be submitted")
)

// Eligibility holds the per-record action flags shown next to a volunteer record
type Eligibility struct {
	CanConfirm  bool `json:"canConfirm"`
	CanRate     bool `json:"canRate"`
	CanFeedback bool `json:"canFeedback"`
}

// IsTruthy reports whether a backend flag is set ('true' or '1')
func IsTruthy(flag model.FlexString) bool {
	v := strings.ToLower(strings.TrimSpace(string(flag)))
	return v == "true" || v == "1"
}

// CanConfirm reports whether the owner may confirm or reject participation
func CanConfirm(rec model.VolunteerRecord, inFlight bool) bool {
	if inFlight || !IsTruthy(rec.EnableConf) {
		return false
	}
	return rec.Status == model.StatusNoAction || rec.Status == ""
}

// CanRate reports whether the record may still receive its one rating.
// Only attended records are rated; feedback is loaded for those alone.
func CanRate(rec model.VolunteerRecord, hasFeedback bool) bool {
	return rec.Status == model.StatusAttended && rec.Rating == 0 && !hasFeedback
}

// CanFeedback reports whether feedback may be submitted for the record
func CanFeedback(rec model.VolunteerRecord, hasFeedback bool) bool {
	return rec.Rating > 0 && !hasFeedback
}

// CheckRating returns the reason a rating update must not be sent, or nil
func CheckRating(rec model.VolunteerRecord, hasFeedback bool, rating int) error {
	if rec.Status != model.StatusAttended {
		return ErrNotAttended
	}
	if hasFeedback {
		return ErrFeedbackExists
	}
	if rec.Rating > 0 {
		return ErrAlreadyRated
	}
	if rating < MinRating || rating > MaxRating {
		return ErrInvalidRating
	}
	return nil
}

// CheckFeedback returns the reason a feedback submission must not be sent, or nil
func CheckFeedback(rec model.VolunteerRecord, hasFeedback bool) error {
	if hasFeedback {
		return ErrFeedbackExists
	}
	if rec.Rating == 0 {
		return ErrFeedbackRequiresRating
	}
	return nil
}

// EligibilityFor derives all action flags for a record
func EligibilityFor(rec model.VolunteerRecord, inFlight, hasFeedback bool) Eligibility {
	return Eligibility{
		CanConfirm:  CanConfirm(rec, inFlight),
		CanRate:     !inFlight && CanRate(rec, hasFeedback),
		CanFeedback: CanFeedback(rec, hasFeedback),
	}
}
