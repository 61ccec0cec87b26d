package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"github.com/voxlane/voxlane/config"
	"github.com/voxlane/voxlane/middleware/ratelimit"
	"github.com/voxlane/voxlane/services/auth"
	"github.com/voxlane/voxlane/services/oauth"
	"github.com/voxlane/voxlane/services/storage"
	"github.com/voxlane/voxlane/services/token"
	"github.com/voxlane/voxlane/services/transcribe"
	"github.com/voxlane/voxlane/services/user"
	"github.com/voxlane/voxlane/services/waitlist"
	"github.com/voxlane/voxlane/testutils"
	"gorm.io/gorm"
)

type fakeObjectStore struct {
	objects map[string][]byte
}

func (f *fakeObjectStore) PresignPut(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://bucket.example.com/" + key + "?signature=abc", nil
}

func (f *fakeObjectStore) GetObject(_ context.Context, key string) ([]byte, error) {
	data, ok := f.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return data, nil
}

type fakeJobRunner struct {
	jobs    map[string]string
	started []string
}

func (f *fakeJobRunner) GetJob(_ context.Context, name string) (string, error) {
	status, ok := f.jobs[name]
	if !ok {
		return "", transcribe.ErrJobNotFound
	}
	return status, nil
}

func (f *fakeJobRunner) StartJob(_ context.Context, filename string) (string, error) {
	f.started = append(f.started, filename)
	return transcribe.StatusInProgress, nil
}

type testApp struct {
	e       *echo.Echo
	db      *gorm.DB
	cfg     *config.Config
	users   *user.Service
	tokens  *token.Service
	authSvc *auth.Service
	objects *fakeObjectStore
	runner  *fakeJobRunner
}

func setupApp(t *testing.T) *testApp {
	t.Helper()

	cfg := testutils.GetTestConfig()
	db := testutils.SetupTestDB(t,
		&user.User{},
		&token.RefreshToken{},
		&auth.PasswordResetToken{},
		&waitlist.Entry{},
	)

	authSvc := auth.NewService(cfg, db, nil)
	users := user.NewService(db, authSvc, nil)
	tokens := token.NewService(db, cfg, nil)
	oauthSvc := oauth.NewService(cfg, nil)
	waitlistSvc := waitlist.NewService(db, nil)

	objects := &fakeObjectStore{objects: map[string][]byte{}}
	storageSvc := storage.NewService(objects, &cfg.Storage, nil)
	runner := &fakeJobRunner{jobs: map[string]string{}}
	transcribeSvc := transcribe.NewService(runner, storageSvc, nil)

	e := echo.New()
	RegisterRoutes(e,
		NewAuthHandler(users, tokens, oauthSvc, cfg, nil),
		NewPasswordHandler(authSvc, users, tokens, cfg, nil),
		NewVideoHandler(storageSvc, transcribeSvc, nil),
		NewWaitlistHandler(waitlistSvc, nil),
		NewHealthHandler(db, nil),
		tokens, users, ratelimit.NewMemoryStore(), cfg, nil,
	)

	return &testApp{
		e:       e,
		db:      db,
		cfg:     cfg,
		users:   users,
		tokens:  tokens,
		authSvc: authSvc,
		objects: objects,
		runner:  runner,
	}
}

func (app *testApp) request(t *testing.T, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}

	rec := httptest.NewRecorder()
	app.e.ServeHTTP(rec, req)
	return rec
}

// registerUser creates an account through the HTTP surface and returns
// the session cookies.
func (app *testApp) registerUser(t *testing.T, email string) (accessCookie, refreshCookie *http.Cookie) {
	t.Helper()

	rec := app.request(t, http.MethodPost, "/auth/register", echo.Map{
		"email":    email,
		"password": testutils.TestPasswords.Valid,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	return findCookie(t, rec, "accessToken"), findCookie(t, rec, "refreshToken")
}

func findCookie(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()

	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	t.Fatalf("cookie %q not set", name)
	return nil
}

func parseEnvelope(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}
