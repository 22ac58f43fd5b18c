package handlers_test

import (
	"bytes"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"vidvault/internal/handlers"
	"vidvault/internal/middleware"
	"vidvault/internal/models"
	"vidvault/internal/repositories"
	"vidvault/internal/services"
	"vidvault/internal/storage"
	"vidvault/internal/views"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// testEnv bundles the app under test with direct access to its stores.
type testEnv struct {
	app       *fiber.App
	store     *storage.DiskStore
	userRepo  repositories.UserRepository
	videoRepo repositories.VideoRepository
	db        *gorm.DB
}

// setupEnv builds the full route surface against a temp SQLite database and a
// temp upload directory, mirroring the wiring in main.
func setupEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Video{}))

	store := storage.NewDiskStore(t.TempDir())
	require.NoError(t, store.EnsureDir())

	userRepo := repositories.NewGORMUserRepository(db)
	videoRepo := repositories.NewGORMVideoRepository(db)

	authService := services.NewAuthService(userRepo, "test_session_secret")
	videoService := services.NewVideoService(videoRepo, store, nil)

	authHandler := handlers.NewAuthHandler(authService)
	videoHandler := handlers.NewVideoHandler(videoService)

	app := fiber.New(fiber.Config{Views: views.Engine()})
	authHandler.RegisterRoutes(app)
	protected := app.Group("", middleware.SessionRequired(authService, userRepo))
	videoHandler.RegisterRoutes(protected)
	protected.Get("/logout", authHandler.HandleLogout)

	return &testEnv{app: app, store: store, userRepo: userRepo, videoRepo: videoRepo, db: db}
}

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

// postForm submits an urlencoded form, optionally with a session cookie.
func (e *testEnv) postForm(t *testing.T, path string, form url.Values, session string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if session != "" {
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: session})
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func (e *testEnv) get(t *testing.T, path, session string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if session != "" {
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: session})
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func (e *testEnv) register(t *testing.T, username, email, password, confirm string) *http.Response {
	t.Helper()
	return e.postForm(t, "/register", url.Values{
		"username":         {username},
		"email":            {email},
		"password":         {password},
		"confirm_password": {confirm},
	}, "")
}

// login authenticates and returns the session cookie value.
func (e *testEnv) login(t *testing.T, email, password string) string {
	t.Helper()
	resp := e.postForm(t, "/login", url.Values{
		"email":    {email},
		"password": {password},
	}, "")
	defer resp.Body.Close()
	require.Equal(t, "/dashboard", resp.Header.Get("Location"))
	for _, c := range resp.Cookies() {
		if c.Name == middleware.SessionCookie && c.Value != "" {
			return c.Value
		}
	}
	t.Fatal("login did not set a session cookie")
	return ""
}

// upload submits a multipart video upload.
func (e *testEnv) upload(t *testing.T, session, filename, title, content string) *http.Response {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("video", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.WriteField("title", title))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: session})
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func (e *testEnv) userCount(t *testing.T, email string) int64 {
	t.Helper()
	var count int64
	require.NoError(t, e.db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error)
	return count
}

func flashMessage(resp *http.Response) string {
	for _, c := range resp.Cookies() {
		if c.Name == "vidvault_flash" {
			message, _ := url.QueryUnescape(c.Value)
			return message
		}
	}
	return ""
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func TestRegisterMismatchedPasswords(t *testing.T) {
	env := setupEnv(t)

	resp := env.register(t, "alice", "alice@x.com", "password1", "password2")
	defer resp.Body.Close()

	assert.Equal(t, "/register", resp.Header.Get("Location"))
	assert.Equal(t, "Passwords do not match.", flashMessage(resp))
	assert.Zero(t, env.userCount(t, "alice@x.com"))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := setupEnv(t)

	resp := env.register(t, "alice", "alice@x.com", "password1", "password1")
	resp.Body.Close()
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	resp = env.register(t, "alice2", "alice@x.com", "password1", "password1")
	defer resp.Body.Close()
	assert.Equal(t, "/register", resp.Header.Get("Location"))
	assert.Equal(t, "Email already taken.", flashMessage(resp))

	// Exactly one user persists for that email
	assert.Equal(t, int64(1), env.userCount(t, "alice@x.com"))
}

func TestRegisterPasswordLengthBoundary(t *testing.T) {
	env := setupEnv(t)

	// 7 characters is rejected
	resp := env.register(t, "alice", "alice@x.com", "short12", "short12")
	resp.Body.Close()
	assert.Equal(t, "/register", resp.Header.Get("Location"))
	assert.Zero(t, env.userCount(t, "alice@x.com"))

	// 8 characters exactly is accepted
	resp = env.register(t, "alice", "alice@x.com", "8chars!!", "8chars!!")
	resp.Body.Close()
	assert.Equal(t, "/login", resp.Header.Get("Location"))
	assert.Equal(t, int64(1), env.userCount(t, "alice@x.com"))
}

func TestLoginGrantsAndDeniesDashboard(t *testing.T) {
	env := setupEnv(t)
	env.register(t, "alice", "alice@x.com", "password1", "password1").Body.Close()

	// Wrong password does not grant access
	resp := env.postForm(t, "/login", url.Values{
		"email":    {"alice@x.com"},
		"password": {"wrongpass1"},
	}, "")
	resp.Body.Close()
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	// Correct credentials grant access to the dashboard
	session := env.login(t, "alice@x.com", "password1")
	resp = env.get(t, "/dashboard", session)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "alice")
}

func TestUnauthenticatedRoutesRedirectToLogin(t *testing.T) {
	env := setupEnv(t)

	for _, route := range []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/dashboard"},
		{http.MethodPost, "/upload"},
		{http.MethodPost, "/delete/1"},
		{http.MethodGet, "/download/1"},
		{http.MethodGet, "/logout"},
	} {
		var resp *http.Response
		if route.method == http.MethodPost {
			resp = env.postForm(t, route.path, url.Values{}, "")
		} else {
			resp = env.get(t, route.path, "")
		}
		resp.Body.Close()
		assert.Equal(t, "/login", resp.Header.Get("Location"), "%s %s", route.method, route.path)
	}
}

func TestUploadListDeleteEndToEnd(t *testing.T) {
	env := setupEnv(t)

	env.register(t, "alice", "alice@x.com", "password1", "password1").Body.Close()
	session := env.login(t, "alice@x.com", "password1")

	resp := env.upload(t, session, "a.mp4", "Trip", "frames")
	resp.Body.Close()
	assert.Equal(t, "/dashboard", resp.Header.Get("Location"))

	// Dashboard shows one video titled "Trip"
	body := readBody(t, env.get(t, "/dashboard", session))
	assert.Contains(t, body, "Trip")
	assert.True(t, env.store.Exists("a.mp4"))

	user, err := env.userRepo.GetByEmail("alice@x.com")
	require.NoError(t, err)
	videos, err := env.videoRepo.ListByUser(user.ID)
	require.NoError(t, err)
	require.Len(t, videos, 1)

	resp = env.postForm(t, "/delete/"+strconv.Itoa(int(videos[0].ID)), url.Values{}, session)
	resp.Body.Close()
	assert.Equal(t, "/dashboard", resp.Header.Get("Location"))

	// Dashboard shows zero videos and the file no longer exists
	body = readBody(t, env.get(t, "/dashboard", session))
	assert.Contains(t, body, "No videos yet")
	assert.False(t, env.store.Exists("a.mp4"))

	videos, err = env.videoRepo.ListByUser(user.ID)
	require.NoError(t, err)
	assert.Empty(t, videos)
}

func TestUploadWithoutFileIsSilentlyIgnored(t *testing.T) {
	env := setupEnv(t)

	env.register(t, "alice", "alice@x.com", "password1", "password1").Body.Close()
	session := env.login(t, "alice@x.com", "password1")

	resp := env.postForm(t, "/upload", url.Values{"title": {"Trip"}}, session)
	defer resp.Body.Close()
	assert.Equal(t, "/dashboard", resp.Header.Get("Location"))
	assert.Empty(t, flashMessage(resp))

	user, err := env.userRepo.GetByEmail("alice@x.com")
	require.NoError(t, err)
	videos, err := env.videoRepo.ListByUser(user.ID)
	require.NoError(t, err)
	assert.Empty(t, videos)
}

func TestOwnershipIsolation(t *testing.T) {
	env := setupEnv(t)

	env.register(t, "alice", "alice@x.com", "password1", "password1").Body.Close()
	env.register(t, "bob", "bob@x.com", "password1", "password1").Body.Close()

	aliceSession := env.login(t, "alice@x.com", "password1")
	env.upload(t, aliceSession, "a.mp4", "Trip", "frames").Body.Close()

	alice, err := env.userRepo.GetByEmail("alice@x.com")
	require.NoError(t, err)
	videos, err := env.videoRepo.ListByUser(alice.ID)
	require.NoError(t, err)
	require.Len(t, videos, 1)
	videoID := strconv.Itoa(int(videos[0].ID))

	// Alice's video is invisible on Bob's dashboard
	bobSession := env.login(t, "bob@x.com", "password1")
	body := readBody(t, env.get(t, "/dashboard", bobSession))
	assert.NotContains(t, body, "Trip")

	// Bob cannot delete it
	resp := env.postForm(t, "/delete/"+videoID, url.Values{}, bobSession)
	resp.Body.Close()
	assert.Equal(t, "/dashboard", resp.Header.Get("Location"))
	assert.Equal(t, "You cannot delete this video!", flashMessage(resp))

	// Bob cannot download it
	resp = env.get(t, "/download/"+videoID, bobSession)
	resp.Body.Close()
	assert.Equal(t, "/dashboard", resp.Header.Get("Location"))
	assert.Equal(t, "You cannot download this video!", flashMessage(resp))

	// Record and file are untouched
	videos, err = env.videoRepo.ListByUser(alice.ID)
	require.NoError(t, err)
	assert.Len(t, videos, 1)
	assert.True(t, env.store.Exists("a.mp4"))
}

func TestDownloadServesAttachment(t *testing.T) {
	env := setupEnv(t)

	env.register(t, "alice", "alice@x.com", "password1", "password1").Body.Close()
	session := env.login(t, "alice@x.com", "password1")
	env.upload(t, session, "a.mp4", "Trip", "frames").Body.Close()

	user, err := env.userRepo.GetByEmail("alice@x.com")
	require.NoError(t, err)
	videos, err := env.videoRepo.ListByUser(user.ID)
	require.NoError(t, err)
	require.Len(t, videos, 1)

	resp := env.get(t, "/download/"+strconv.Itoa(int(videos[0].ID)), session)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "attachment")
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "a.mp4")
	assert.Equal(t, "frames", readBody(t, resp))
}

func TestUploadSameFilenameKeepsBothRecords(t *testing.T) {
	env := setupEnv(t)

	env.register(t, "alice", "alice@x.com", "password1", "password1").Body.Close()
	session := env.login(t, "alice@x.com", "password1")

	env.upload(t, session, "a.mp4", "first", "one").Body.Close()
	env.upload(t, session, "a.mp4", "second", "two").Body.Close()

	user, err := env.userRepo.GetByEmail("alice@x.com")
	require.NoError(t, err)
	videos, err := env.videoRepo.ListByUser(user.ID)
	require.NoError(t, err)
	assert.Len(t, videos, 2)

	// The second upload overwrote the on-disk content of the first
	content, err := os.ReadFile(env.store.Path("a.mp4"))
	require.NoError(t, err)
	assert.Equal(t, "two", string(content))
}

func TestDeleteUnknownVideoFlashesNotFound(t *testing.T) {
	env := setupEnv(t)

	env.register(t, "alice", "alice@x.com", "password1", "password1").Body.Close()
	session := env.login(t, "alice@x.com", "password1")

	resp := env.postForm(t, "/delete/999", url.Values{}, session)
	defer resp.Body.Close()
	assert.Equal(t, "/dashboard", resp.Header.Get("Location"))
	assert.Equal(t, "Video not found.", flashMessage(resp))
}

func TestLogoutClearsSession(t *testing.T) {
	env := setupEnv(t)

	env.register(t, "alice", "alice@x.com", "password1", "password1").Body.Close()
	session := env.login(t, "alice@x.com", "password1")

	resp := env.get(t, "/logout", session)
	defer resp.Body.Close()
	assert.Equal(t, "/", resp.Header.Get("Location"))

	for _, c := range resp.Cookies() {
		if c.Name == middleware.SessionCookie {
			assert.Empty(t, c.Value)
			return
		}
	}
	t.Fatal("logout did not clear the session cookie")
}

func TestHomePageIsPublic(t *testing.T) {
	env := setupEnv(t)

	resp := env.get(t, "/", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "VidVault")
}
