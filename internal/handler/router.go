package handler

import (
	"net/http"

	"photon/internal/middleware"
	"photon/pkg/response"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type CORSConfig struct {
	AllowedOrigins string
	AllowedMethods string
	AllowedHeaders string
}

// Routes bundles every handler the API serves. Media may be nil when images
// live in S3.
type Routes struct {
	Auth      *AuthHandler
	Profile   *ProfileHandler
	Post      *PostHandler
	Comment   *CommentHandler
	WebSocket *WebSocketHandler
	Media     *MediaHandler

	JWTSecret string
	CORS      CORSConfig
	Logger    *zap.Logger
	Registry  *prometheus.Registry
}

func NewRouter(rt Routes) *mux.Router {
	r := mux.NewRouter()

	r.Use(middleware.LoggerMiddleware(rt.Logger))
	r.Use(middleware.CORSMiddleware(
		rt.CORS.AllowedOrigins,
		rt.CORS.AllowedMethods,
		rt.CORS.AllowedHeaders,
	))
	if rt.Registry != nil {
		r.Use(middleware.MetricsMiddleware(rt.Registry))
		r.Handle("/metrics", promhttp.HandlerFor(rt.Registry, promhttp.HandlerOpts{})).Methods("GET")
	}

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/auth/register", rt.Auth.Register).Methods("POST", "OPTIONS")
	api.HandleFunc("/auth/login", rt.Auth.Login).Methods("POST", "OPTIONS")
	api.HandleFunc("/auth/refresh", rt.Auth.Refresh).Methods("POST", "OPTIONS")
	api.HandleFunc("/auth/logout", rt.Auth.Logout).Methods("POST", "OPTIONS")

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.AuthMiddleware(rt.JWTSecret))

	protected.HandleFunc("/users/profile/{username}", rt.Profile.Get).Methods("GET", "OPTIONS")
	protected.HandleFunc("/users/profile/{username}", rt.Profile.Update).Methods("PUT", "OPTIONS")
	protected.HandleFunc("/users/follow/{userid}", rt.Profile.Follow).Methods("POST", "OPTIONS")
	protected.HandleFunc("/users/unfollow/{userid}", rt.Profile.Unfollow).Methods("POST", "OPTIONS")

	protected.HandleFunc("/posts", rt.Post.List).Methods("GET", "OPTIONS")
	protected.HandleFunc("/posts", rt.Post.Create).Methods("POST", "OPTIONS")
	protected.HandleFunc("/posts/saved/", rt.Post.Saved).Methods("GET", "OPTIONS")
	protected.HandleFunc("/posts/saved/", rt.Post.ToggleSave).Methods("POST", "OPTIONS")
	protected.HandleFunc("/posts/user/{username}", rt.Post.ByUser).Methods("GET", "OPTIONS")
	protected.HandleFunc("/posts/{id}/like", rt.Post.Like).Methods("POST", "OPTIONS")
	protected.HandleFunc("/posts/{id}/comments", rt.Comment.List).Methods("GET", "OPTIONS")
	protected.HandleFunc("/posts/{id}/comments", rt.Comment.Create).Methods("POST", "OPTIONS")

	protected.HandleFunc("/comments/{id}", rt.Comment.Update).Methods("PUT", "OPTIONS")
	protected.HandleFunc("/comments/{id}", rt.Comment.Delete).Methods("DELETE", "OPTIONS")

	if rt.WebSocket != nil {
		r.HandleFunc("/ws", rt.WebSocket.HandleConnection)
	}
	if rt.Media != nil {
		r.HandleFunc("/media/{key}", rt.Media.Serve).Methods("GET")
	}

	r.HandleFunc("/health", healthHandler).Methods("GET")

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	response.Success(w, map[string]string{
		"status":  "healthy",
		"service": "photon",
	})
}
