package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"photon/internal/domain"
	"photon/internal/repository"
	"photon/internal/service"
	"photon/internal/storage"
	"photon/internal/websocket"
	"photon/pkg/hash"

	ws "github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "handler-test-secret"

func TestMain(m *testing.M) {
	hash.Cost = bcrypt.MinCost
	os.Exit(m.Run())
}

type testServer struct {
	*httptest.Server
	manager *websocket.Manager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := zap.NewNop()
	store := repository.NewMemoryStore()
	images := storage.NewMemoryStore("/media", 1<<20)

	manager := websocket.NewManager(websocket.Options{
		MaxConnPerUser: 5,
		WriteWait:      time.Second,
		PongWait:       time.Minute,
		PingPeriod:     30 * time.Second,
	}, logger)
	ctx, cancel := context.WithCancel(context.Background())
	go manager.Run(ctx)

	authService := service.NewAuthService(store.Users(), store.Profiles(), testSecret, 15*time.Minute, time.Hour)
	profileService := service.NewProfileService(store.Users(), store.Profiles(), store.Posts(), store.Follows(), manager)
	followService := service.NewFollowService(store.Follows(), store.Users(), manager)
	postService := service.NewPostService(store.Posts(), store.SavedPosts(), store.Users(), images, manager)
	commentService := service.NewCommentService(store.Comments(), store.Posts(), store.Users(), manager)

	router := NewRouter(Routes{
		Auth:      NewAuthHandler(authService, false, logger),
		Profile:   NewProfileHandler(profileService, followService, logger),
		Post:      NewPostHandler(postService, 2<<20, logger),
		Comment:   NewCommentHandler(commentService, logger),
		WebSocket: NewWebSocketHandler(manager, testSecret, 1024, 1024, logger),
		Media:     NewMediaHandler(images),
		JWTSecret: testSecret,
		CORS:      CORSConfig{AllowedOrigins: "*", AllowedMethods: "GET,POST,PUT,DELETE,OPTIONS", AllowedHeaders: "Content-Type,Authorization,X-Device-ID"},
		Logger:    logger,
		Registry:  prometheus.NewRegistry(),
	})

	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return &testServer{Server: srv, manager: manager}
}

type call struct {
	method, path, token, device string
	body                        interface{}
	cookies                     []*http.Cookie
}

func (s *testServer) do(t *testing.T, c call) *http.Response {
	t.Helper()
	var body io.Reader
	if c.body != nil {
		data, err := json.Marshal(c.body)
		require.NoError(t, err)
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequest(c.method, s.URL+c.path, body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.device != "" {
		req.Header.Set("X-Device-ID", c.device)
	}
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	resp, err := s.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

type account struct {
	id, token string
	cookie    *http.Cookie
}

func (s *testServer) signUp(t *testing.T, username string) account {
	t.Helper()
	resp := s.do(t, call{method: http.MethodPost, path: "/api/auth/register", body: domain.RegisterRequest{
		Username: username, Email: username + "@example.com", Password: "Password123!", FirstName: "First", LastName: "Last",
	}})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = s.do(t, call{method: http.MethodPost, path: "/api/auth/login", body: domain.LoginRequest{Username: username, Password: "Password123!"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	session := decode[domain.Session](t, resp)

	acc := account{id: session.User.ID, token: session.Access}
	for _, ck := range resp.Cookies() {
		if ck.Name == refreshCookie {
			acc.cookie = ck
		}
	}
	return acc
}

func (s *testServer) createPost(t *testing.T, acc account, title string, image []byte) domain.PostResponse {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("title", title))
	require.NoError(t, mw.WriteField("tags", "sea,sky"))
	if image != nil {
		fw, err := mw.CreateFormFile("image", "photo.png")
		require.NoError(t, err)
		_, err = fw.Write(image)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, s.URL+"/api/posts", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+acc.token)
	resp, err := s.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[domain.PostResponse](t, resp)
}

func TestRegister(t *testing.T) {
	s := newTestServer(t)
	s.signUp(t, "existing")

	tests := []struct {
		name       string
		body       interface{}
		wantStatus int
	}{
		{
			name:       "created",
			body:       domain.RegisterRequest{Username: "fresh", Email: "fresh@example.com", Password: "Password123!", FirstName: "F", LastName: "L"},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "missing fields",
			body:       map[string]string{"username": "nobody"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "duplicate username",
			body:       domain.RegisterRequest{Username: "existing", Email: "other@example.com", Password: "Password123!", FirstName: "F", LastName: "L"},
			wantStatus: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := s.do(t, call{method: http.MethodPost, path: "/api/auth/register", body: tt.body})
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.wantStatus == http.StatusCreated {
				got := decode[domain.RegisterResponse](t, resp)
				assert.NotEmpty(t, got.Msg)
				assert.Equal(t, "fresh", got.User.Username)
			}
		})
	}
}

func TestLoginRefreshLogout(t *testing.T) {
	s := newTestServer(t)
	acc := s.signUp(t, "ana")
	require.NotNil(t, acc.cookie)
	assert.True(t, acc.cookie.HttpOnly)

	resp := s.do(t, call{method: http.MethodPost, path: "/api/auth/login", body: domain.LoginRequest{Username: "ana", Password: "wrong-pass"}})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = s.do(t, call{method: http.MethodPost, path: "/api/auth/refresh"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, "no cookie")

	resp = s.do(t, call{method: http.MethodPost, path: "/api/auth/refresh", cookies: []*http.Cookie{{Name: refreshCookie, Value: "garbage"}}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = s.do(t, call{method: http.MethodPost, path: "/api/auth/refresh", cookies: []*http.Cookie{acc.cookie}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	session := decode[domain.Session](t, resp)
	assert.NotEmpty(t, session.Access)
	assert.Equal(t, "ana", session.User.Username)

	resp = s.do(t, call{method: http.MethodPost, path: "/api/auth/logout"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var cleared bool
	for _, ck := range resp.Cookies() {
		if ck.Name == refreshCookie && ck.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)
	resp := s.do(t, call{method: http.MethodGet, path: "/api/posts"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestProfileEndpoints(t *testing.T) {
	s := newTestServer(t)
	ana := s.signUp(t, "ana")
	ben := s.signUp(t, "ben")

	resp := s.do(t, call{method: http.MethodGet, path: "/api/users/profile/ghost", token: ana.token})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	bio := "hello"
	resp = s.do(t, call{method: http.MethodPut, path: "/api/users/profile/ana", token: ben.token, body: domain.UpdateProfileRequest{Bio: &bio}})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = s.do(t, call{method: http.MethodPut, path: "/api/users/profile/ana", token: ana.token, body: map[string]string{"gender": "Robot"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = s.do(t, call{method: http.MethodPut, path: "/api/users/profile/ana", token: ana.token, body: domain.UpdateProfileRequest{Bio: &bio}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "hello", decode[domain.ProfileResponse](t, resp).Bio)

	resp = s.do(t, call{method: http.MethodPost, path: "/api/users/follow/" + ana.id, token: ben.token})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, domain.FollowResponse{UserID: ana.id, IsFollowing: true, FollowersCount: 1}, decode[domain.FollowResponse](t, resp))

	resp = s.do(t, call{method: http.MethodGet, path: "/api/users/profile/ana", token: ben.token})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	profile := decode[domain.ProfileResponse](t, resp)
	assert.True(t, profile.IsFollowing)
	assert.Equal(t, 1, profile.FollowersCount)

	resp = s.do(t, call{method: http.MethodPost, path: "/api/users/unfollow/" + ana.id, token: ben.token})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, decode[domain.FollowResponse](t, resp).IsFollowing)

	resp = s.do(t, call{method: http.MethodPost, path: "/api/users/follow/" + ana.id, token: ana.token})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "self follow")
}

func TestPostEndpoints(t *testing.T) {
	s := newTestServer(t)
	ana := s.signUp(t, "ana")
	ben := s.signUp(t, "ben")

	png := []byte("\x89PNG\r\n\x1a\nfake")
	post := s.createPost(t, ana, "sunset", png)
	assert.Equal(t, []string{"sea", "sky"}, post.Tags)
	require.True(t, strings.HasPrefix(post.Image, "/media/"))

	media, err := s.Client().Get(s.URL + post.Image)
	require.NoError(t, err)
	defer media.Body.Close()
	assert.Equal(t, http.StatusOK, media.StatusCode)
	got, err := io.ReadAll(media.Body)
	require.NoError(t, err)
	assert.Equal(t, png, got)

	resp := s.do(t, call{method: http.MethodGet, path: "/api/posts/user/ana", token: ben.token})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	byUser := decode[domain.PostsResponse](t, resp)
	require.Len(t, byUser.Posts, 1)
	assert.Equal(t, "ana", byUser.Posts[0].Username)

	resp = s.do(t, call{method: http.MethodPost, path: "/api/posts/saved/", token: ben.token, body: domain.SavePostRequest{PostID: post.ID}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, decode[domain.SaveResponse](t, resp).Saved)

	resp = s.do(t, call{method: http.MethodGet, path: "/api/posts/saved/", token: ben.token})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[domain.PostsResponse](t, resp).Posts, 1)

	resp = s.do(t, call{method: http.MethodPost, path: "/api/posts/saved/", token: ben.token, body: map[string]string{}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = s.do(t, call{method: http.MethodPost, path: "/api/posts/" + post.ID + "/like", token: ben.token})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, domain.LikeResponse{Liked: true, LikesCount: 1}, decode[domain.LikeResponse](t, resp))

	resp = s.do(t, call{method: http.MethodGet, path: "/api/posts?limit=abc", token: ben.token})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = s.do(t, call{method: http.MethodGet, path: "/api/posts", token: ben.token})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	all := decode[[]domain.PostResponse](t, resp)
	require.Len(t, all, 1)
	assert.True(t, all[0].IsLiked)
	assert.True(t, all[0].IsSaved)
}

func TestCommentEndpoints(t *testing.T) {
	s := newTestServer(t)
	owner := s.signUp(t, "owner")
	author := s.signUp(t, "author")
	post := s.createPost(t, owner, "sunset", nil)
	path := "/api/posts/" + post.ID + "/comments"

	resp := s.do(t, call{method: http.MethodPost, path: path, token: author.token, body: domain.CreateCommentRequest{Body: ""}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = s.do(t, call{method: http.MethodPost, path: path, token: author.token, body: domain.CreateCommentRequest{Body: "nice"}})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	top := decode[domain.CommentResponse](t, resp)

	resp = s.do(t, call{method: http.MethodPost, path: path, token: owner.token, body: domain.CreateCommentRequest{Body: "thanks", Parent: top.ID}})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = s.do(t, call{method: http.MethodPut, path: "/api/comments/" + top.ID, token: author.token, body: map[string]bool{"pinned": true}})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = s.do(t, call{method: http.MethodPut, path: "/api/comments/" + top.ID, token: owner.token, body: map[string]bool{"pinned": true}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	pinned := decode[domain.CommentResponse](t, resp)
	assert.True(t, pinned.Pinned)
	assert.Equal(t, 1, pinned.RepliesCount)

	resp = s.do(t, call{method: http.MethodGet, path: path, token: author.token})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]domain.CommentResponse](t, resp), 2)

	resp = s.do(t, call{method: http.MethodDelete, path: "/api/comments/" + top.ID, token: owner.token})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = s.do(t, call{method: http.MethodGet, path: path, token: author.token})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decode[[]domain.CommentResponse](t, resp))

	resp = s.do(t, call{method: http.MethodDelete, path: "/api/comments/" + top.ID, token: owner.token})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, call{method: http.MethodGet, path: "/health"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = s.do(t, call{method: http.MethodGet, path: "/metrics"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `photon_http_requests_total{method="GET",route="/health",status="200"} 1`)
}

func TestPushSkipsOriginatingDevice(t *testing.T) {
	s := newTestServer(t)
	ana := s.signUp(t, "ana")
	ben := s.signUp(t, "ben")
	post := s.createPost(t, ben, "sunset", nil)

	wsURL := "ws" + strings.TrimPrefix(s.URL, "http") + "/ws?token=" + ana.token + "&device_id="
	phone, _, err := ws.DefaultDialer.Dial(wsURL+"phone", nil)
	require.NoError(t, err)
	defer phone.Close()
	laptop, _, err := ws.DefaultDialer.Dial(wsURL+"laptop", nil)
	require.NoError(t, err)
	defer laptop.Close()

	require.Eventually(t, func() bool { return s.manager.GetUserConnections(ana.id) == 2 }, time.Second, 5*time.Millisecond)

	resp := s.do(t, call{method: http.MethodPost, path: "/api/posts/saved/", token: ana.token, device: "phone", body: domain.SavePostRequest{PostID: post.ID}})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, laptop.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := laptop.ReadMessage()
	require.NoError(t, err)
	var msg websocket.Message
	require.NoError(t, json.Unmarshal(bytes.Split(data, []byte("\n"))[0], &msg))
	assert.Equal(t, websocket.TypePostSaved, msg.Type)
	var payload domain.PostSaved
	require.NoError(t, msg.UnmarshalPayload(&payload))
	assert.Equal(t, domain.PostSaved{PostID: post.ID, Saved: true}, payload)

	require.NoError(t, phone.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, _, err = phone.ReadMessage()
	assert.Error(t, err, "originating device gets no echo")
}

func TestWebSocketRejectsBadToken(t *testing.T) {
	s := newTestServer(t)
	_, resp, err := ws.DefaultDialer.Dial("ws"+strings.TrimPrefix(s.URL, "http")+"/ws?token=nope", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
