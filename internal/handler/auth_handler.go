package handler

import (
	"errors"
	"net/http"

	"photon/internal/domain"
	"photon/internal/service"
	"photon/pkg/response"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const refreshCookie = "refresh_token"

type AuthHandler struct {
	authService  *service.AuthService
	validator    *validator.Validate
	secureCookie bool
	logger       *zap.Logger
}

// NewAuthHandler builds the auth endpoints. secureCookie marks the refresh
// cookie Secure and should be set whenever the server sits behind TLS.
func NewAuthHandler(authService *service.AuthService, secureCookie bool, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		validator:    domain.NewValidator(),
		secureCookie: secureCookie,
		logger:       logger.Named("auth"),
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.validator.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	user, err := h.authService.Register(r.Context(), &req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.logger.Info("user registered", zap.String("user_id", user.ID), zap.String("username", user.Username))
	response.Created(w, domain.RegisterResponse{
		Msg:  "User registered successfully",
		User: user,
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.validator.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	session, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.setRefreshCookie(w, session.RefreshToken, int(h.authService.RefreshExpiration().Seconds()))
	response.Success(w, session)
}

// Refresh trades the refresh cookie for a new access token.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(refreshCookie)
	if err != nil || cookie.Value == "" {
		response.Forbidden(w, "Refresh token missing")
		return
	}

	session, err := h.authService.Refresh(r.Context(), cookie.Value)
	if err != nil {
		if errors.Is(err, service.ErrInvalidToken) {
			h.setRefreshCookie(w, "", -1)
		}
		writeError(w, h.logger, err)
		return
	}

	response.Success(w, session)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.setRefreshCookie(w, "", -1)
	response.Success(w, map[string]string{
		"msg": "Logged out successfully",
	})
}

func (h *AuthHandler) setRefreshCookie(w http.ResponseWriter, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookie,
		Value:    value,
		Path:     "/api/auth",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}
