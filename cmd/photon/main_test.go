package main

import (
	"bytes"
	"net/http/httptest"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"photon/internal/handler"
	"photon/internal/repository"
	"photon/internal/service"
	"photon/internal/storage"
	"photon/pkg/client"
	"photon/pkg/hash"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func TestConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, defaultServer, cfg.Server)
	require.NotEmpty(t, cfg.DeviceID)
	assert.True(t, cfg.identity().Anonymous())

	cfg.Policy = "keep"
	cfg.Timeout = 5 * time.Second
	cfg.signIn("tok", client.User{ID: "u1", Username: "ana"})
	require.NoError(t, saveConfig(path, cfg))

	again, err := loadConfig(path)
	require.NoError(t, err)
	if diff := cmp.Diff(cfg, again); diff != "" {
		t.Errorf("config mismatch (-saved +loaded):\n%s", diff)
	}
	assert.Equal(t, "ana", again.identity().Username)

	again.signOut()
	assert.Empty(t, again.Token)
	assert.True(t, again.identity().Anonymous())
}

func newServer(t *testing.T) string {
	t.Helper()
	hash.Cost = bcrypt.MinCost
	logger := zap.NewNop()
	store := repository.NewMemoryStore()
	images := storage.NewMemoryStore("/media", 1<<20)
	secret := "cli-test-secret"

	authService := service.NewAuthService(store.Users(), store.Profiles(), secret, time.Hour, time.Hour)
	router := handler.NewRouter(handler.Routes{
		Auth: handler.NewAuthHandler(authService, false, logger),
		Profile: handler.NewProfileHandler(
			service.NewProfileService(store.Users(), store.Profiles(), store.Posts(), store.Follows(), nil),
			service.NewFollowService(store.Follows(), store.Users(), nil),
			logger),
		Post:      handler.NewPostHandler(service.NewPostService(store.Posts(), store.SavedPosts(), store.Users(), images, nil), 2<<20, logger),
		Comment:   handler.NewCommentHandler(service.NewCommentService(store.Comments(), store.Posts(), store.Users(), nil), logger),
		Media:     handler.NewMediaHandler(images),
		JWTSecret: secret,
		CORS:      handler.CORSConfig{AllowedOrigins: "*"},
		Logger:    logger,
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestCommandsAgainstServer(t *testing.T) {
	server := newServer(t)
	t.Setenv("PHOTON_CONFIG", filepath.Join(t.TempDir(), "config.yaml"))
	t.Setenv("PHOTON_PASSWORD", "")

	run := func(args ...string) string {
		t.Helper()
		var out bytes.Buffer
		cmd := newRootCmd()
		cmd.SetOut(&out)
		cmd.SetErr(&out)
		cmd.SetArgs(append([]string{"--server", server}, args...))
		require.NoError(t, cmd.Execute(), out.String())
		return out.String()
	}

	for _, name := range []string{"ana", "ben"} {
		out := run("register", name, "--email", name+"@example.com", "--first-name", "F", "--last-name", "L", "--password", "Password123!")
		assert.Contains(t, out, "Registered "+name)
	}

	assert.Contains(t, run("login", "ana", "--password", "Password123!"), "Logged in as ana")
	out := run("post", "--title", "sunset", "--tag", "sea")
	m := regexp.MustCompile(`- (\S+)  sunset`).FindStringSubmatch(out)
	require.Len(t, m, 2, out)
	postID := m[1]

	out = run("profile", "edit", "--bio", "golden hour", "--account-type", "Photographer")
	assert.Contains(t, out, "golden hour")
	assert.Contains(t, out, "Photographer")
	assert.Contains(t, run("profile", "edit"), "Nothing to change")

	run("login", "ben", "--password", "Password123!")
	assert.Contains(t, run("save", postID), "Saved "+postID)
	assert.Contains(t, run("posts", "ana"), "[saved]")
	assert.Contains(t, run("save", postID), "Removed "+postID)
	assert.Contains(t, run("follow", "ana"), "Following ana (1 followers)")

	out = run("comment", postID, "lovely light")
	m = regexp.MustCompile(`Commented (\S+)`).FindStringSubmatch(out)
	require.Len(t, m, 2, out)
	commentID := m[1]

	out = run("comments", postID)
	assert.Contains(t, out, "ben: lovely light  <delete>")

	run("login", "ana", "--password", "Password123!")
	out = run("comments", postID)
	assert.Contains(t, out, "<pin delete report>")

	assert.Contains(t, run("pin", postID, commentID), "[pinned]")
	assert.Contains(t, run("delete-comment", postID, commentID), "No comments")

	assert.Contains(t, run("profile", "show", "ghost"), "No such user: ghost")
	assert.Contains(t, run("logout"), "Logged out")
}
