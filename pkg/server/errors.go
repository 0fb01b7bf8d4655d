package server

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/jakechorley/volunteer-portal/pkg/clients/portalclient"
	"github.com/jakechorley/volunteer-portal/pkg/core/achievements"
	"github.com/jakechorley/volunteer-portal/pkg/core/services"
)

// unprocessable are rule and form failures; nothing was sent upstream
var unprocessable = []error{
	services.ErrValidation,
	services.ErrRejectCancelled,
	services.ErrNoEventContext,
	achievements.ErrNotConfirmable,
	achievements.ErrNotAttended,
	achievements.ErrAlreadyRated,
	achievements.ErrInvalidRating,
	achievements.ErrFeedbackExists,
	achievements.ErrFeedbackRequiresRating,
}

// statusFor maps a service error to the response status
func statusFor(err error) int {
	if errors.Is(err, achievements.ErrTransitionInFlight) || errors.Is(err, services.ErrTransitionClaimed) {
		return http.StatusConflict
	}
	if errors.Is(err, achievements.ErrUnknownVolunteer) {
		return http.StatusNotFound
	}
	for _, target := range unprocessable {
		if errors.Is(err, target) {
			return http.StatusUnprocessableEntity
		}
	}

	var apiErr *portalclient.APIError
	var netErr net.Error
	if errors.As(err, &apiErr) || errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
