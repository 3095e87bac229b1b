package handler

import (
	"net/http"

	"photon/internal/domain"
	"photon/internal/middleware"
	"photon/internal/service"
	"photon/pkg/response"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type ProfileHandler struct {
	profileService *service.ProfileService
	followService  *service.FollowService
	logger         *zap.Logger
}

func NewProfileHandler(profileService *service.ProfileService, followService *service.FollowService, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
		followService:  followService,
		logger:         logger.Named("profile"),
	}
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]

	profile, err := h.profileService.Get(r.Context(), middleware.GetUserID(r), username)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	response.Success(w, profile)
}

// Update applies a partial update; absent fields are left untouched.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]

	var req domain.UpdateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	profile, err := h.profileService.Update(r.Context(), actorFrom(r), username, &req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	response.Success(w, profile)
}

func (h *ProfileHandler) Follow(w http.ResponseWriter, r *http.Request) {
	res, err := h.followService.Follow(r.Context(), actorFrom(r), mux.Vars(r)["userid"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.Success(w, res)
}

func (h *ProfileHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	res, err := h.followService.Unfollow(r.Context(), actorFrom(r), mux.Vars(r)["userid"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.Success(w, res)
}
