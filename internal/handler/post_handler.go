package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"photon/internal/domain"
	"photon/internal/middleware"
	"photon/internal/service"
	"photon/pkg/response"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const (
	defaultPostLimit = 50
	maxPostLimit     = 200
	multipartMemory  = 8 << 20
)

type PostHandler struct {
	postService *service.PostService
	validator   *validator.Validate
	maxUpload   int64
	logger      *zap.Logger
}

// NewPostHandler builds the post endpoints. maxUpload bounds a whole
// multipart request body.
func NewPostHandler(postService *service.PostService, maxUpload int64, logger *zap.Logger) *PostHandler {
	return &PostHandler{
		postService: postService,
		validator:   domain.NewValidator(),
		maxUpload:   maxUpload,
		logger:      logger.Named("posts"),
	}
}

func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := defaultPostLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			response.BadRequest(w, "limit must be a positive integer")
			return
		}
		limit = min(n, maxPostLimit)
	}

	posts, err := h.postService.List(r.Context(), middleware.GetUserID(r), limit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.Success(w, posts)
}

// Create accepts multipart/form-data with title, description, a
// comma-separated tags field and an optional image file.
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h.maxUpload > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			response.Error(w, http.StatusRequestEntityTooLarge, "too_large", "Upload too large")
			return
		}
		response.BadRequest(w, "Invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	req := domain.CreatePostRequest{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
	}
	if tags := r.FormValue("tags"); tags != "" {
		req.Tags = strings.Split(tags, ",")
	}

	var upload *service.Upload
	file, header, err := r.FormFile("image")
	switch {
	case err == nil:
		defer file.Close()
		upload = &service.Upload{
			Name:        header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Body:        file,
		}
	case !errors.Is(err, http.ErrMissingFile):
		response.BadRequest(w, "Invalid image")
		return
	}

	post, err := h.postService.Create(r.Context(), actorFrom(r), &req, upload)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.Created(w, post)
}

func (h *PostHandler) ByUser(w http.ResponseWriter, r *http.Request) {
	posts, err := h.postService.ByUser(r.Context(), middleware.GetUserID(r), mux.Vars(r)["username"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.Success(w, domain.PostsResponse{Posts: posts})
}

func (h *PostHandler) Like(w http.ResponseWriter, r *http.Request) {
	res, err := h.postService.ToggleLike(r.Context(), actorFrom(r), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.Success(w, res)
}

func (h *PostHandler) Saved(w http.ResponseWriter, r *http.Request) {
	posts, err := h.postService.Saved(r.Context(), middleware.GetUserID(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.Success(w, domain.PostsResponse{Posts: posts})
}

// ToggleSave flips the saved state of a post and reports the new state.
func (h *PostHandler) ToggleSave(w http.ResponseWriter, r *http.Request) {
	var req domain.SavePostRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.validator.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	res, err := h.postService.ToggleSave(r.Context(), actorFrom(r), req.PostID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.Success(w, res)
}
