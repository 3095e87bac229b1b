package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"photon/internal/domain"
	"photon/internal/middleware"
	"photon/internal/service"
	"photon/pkg/response"

	"go.uber.org/zap"
)

// writeError maps service errors onto HTTP statuses. Anything unrecognised is
// logged and reported as a 500 without leaking the cause.
func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		response.BadRequest(w, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Unauthorized(w, "Invalid username or password")
	case errors.Is(err, service.ErrInvalidToken):
		response.BadRequest(w, err.Error())
	case errors.Is(err, service.ErrForbidden):
		response.Forbidden(w, err.Error())
	case errors.Is(err, service.ErrNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, service.ErrConflict):
		response.Conflict(w, err.Error())
	default:
		logger.Error("request failed", zap.Error(err))
		response.InternalError(w, "Internal server error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		response.BadRequest(w, "Invalid request body")
		return false
	}
	return true
}

func actorFrom(r *http.Request) domain.Actor {
	return domain.Actor{
		UserID:   middleware.GetUserID(r),
		DeviceID: middleware.GetDeviceID(r),
	}
}
