package handler

import (
	"net/http"

	"photon/internal/domain"
	"photon/internal/service"
	"photon/pkg/response"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type CommentHandler struct {
	commentService *service.CommentService
	logger         *zap.Logger
}

func NewCommentHandler(commentService *service.CommentService, logger *zap.Logger) *CommentHandler {
	return &CommentHandler{
		commentService: commentService,
		logger:         logger.Named("comments"),
	}
}

func (h *CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	comments, err := h.commentService.List(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.Success(w, comments)
}

func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateCommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	comment, err := h.commentService.Create(r.Context(), actorFrom(r), mux.Vars(r)["id"], &req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.Created(w, comment)
}

func (h *CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateCommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	comment, err := h.commentService.Update(r.Context(), actorFrom(r), mux.Vars(r)["id"], &req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.Success(w, comment)
}

func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.commentService.Delete(r.Context(), actorFrom(r), mux.Vars(r)["id"]); err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.NoContent(w)
}
