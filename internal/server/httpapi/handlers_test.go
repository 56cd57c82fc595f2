package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/r-scheele/authgate/internal/logging"
	"github.com/r-scheele/authgate/internal/server/password"
	"github.com/r-scheele/authgate/internal/server/repositories/repomanager"
	"github.com/r-scheele/authgate/internal/server/services"
	"github.com/r-scheele/authgate/internal/server/tasks"
	"github.com/r-scheele/authgate/internal/server/token"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	m.Run()
}

type recordedMail struct {
	To      string
	Subject string
	Body    string
}

type recordSender struct {
	mu   sync.Mutex
	sent []recordedMail
}

func (r *recordSender) Send(ctx context.Context, to, subject, body string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, recordedMail{To: to, Subject: subject, Body: body})
	return nil
}

func (r *recordSender) all() []recordedMail {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]recordedMail(nil), r.sent...)
}

type fixture struct {
	router     *gin.Engine
	repos      *repomanager.MemoryRepositoryManager
	codec      *token.Codec
	sender     *recordSender
	dispatcher *tasks.Dispatcher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	repos := repomanager.NewMemoryRepositoryManager()
	hasher := password.NewHasher(bcrypt.MinCost)
	codec, err := token.NewCodec([]byte("test-secret"), "HS256")
	if err != nil {
		t.Fatalf("creating codec: %v", err)
	}
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

	codes := services.NewVerificationCodeService(repos.VerificationCodes(nil))
	auth := services.NewAuthService(nil, repos, hasher, codec, codes, time.Minute, time.Hour, logger)

	sender := &recordSender{}
	dispatcher := tasks.NewDispatcher(1, 16, logger)
	t.Cleanup(dispatcher.Close)

	srv := NewServer(auth, codes, codec, sender, dispatcher, logger, false)
	return &fixture{
		router:     srv.Router(),
		repos:      repos,
		codec:      codec,
		sender:     sender,
		dispatcher: dispatcher,
	}
}

func (f *fixture) doJSON(t *testing.T, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshalling body: %v", err)
		}
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *fixture) registerAlice(t *testing.T) {
	t.Helper()
	w := f.doJSON(t, http.MethodPost, "/api/register", gin.H{
		"email":    "alice@example.com",
		"password": "s3cret-pass",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", w.Code, w.Body.String())
	}
}

func (f *fixture) verificationCode(t *testing.T, email string) int {
	t.Helper()
	code, err := f.repos.VerificationCodes(nil).FindByEmail(context.Background(), email)
	if err != nil {
		t.Fatalf("finding verification code: %v", err)
	}
	return code.Code
}

func cookieNamed(t *testing.T, w *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("response has no %q cookie", name)
	return nil
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &m); err != nil {
		t.Fatalf("decoding response %q: %v", w.Body.String(), err)
	}
	return m
}

func TestRegisterEndpoint(t *testing.T) {
	f := newFixture(t)

	w := f.doJSON(t, http.MethodPost, "/api/register", gin.H{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "s3cret-pass",
		"role":     "INSTRUCTOR",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["email"] != "alice@example.com" || body["role"] != "INSTRUCTOR" {
		t.Errorf("unexpected profile payload: %v", body)
	}
	if body["is_verified"] != false {
		t.Error("new profile must start unverified")
	}
	if strings.Contains(w.Body.String(), "password") {
		t.Error("response must not mention the password")
	}
}

func TestRegisterEndpoint_Conflicts(t *testing.T) {
	f := newFixture(t)
	f.registerAlice(t)

	w := f.doJSON(t, http.MethodPost, "/api/register", gin.H{
		"email":    "alice@example.com",
		"password": "other-pass",
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["code"] != "email_taken" || body["field"] != "email" {
		t.Errorf("unexpected conflict payload: %v", body)
	}
}

func TestRegisterEndpoint_InvalidUsername(t *testing.T) {
	f := newFixture(t)

	w := f.doJSON(t, http.MethodPost, "/api/register", gin.H{
		"username": "has space",
		"email":    "bob@example.com",
		"password": "s3cret-pass",
	})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", w.Code, w.Body.String())
	}
}

func TestRegisterEndpoint_BadPayload(t *testing.T) {
	f := newFixture(t)

	w := f.doJSON(t, http.MethodPost, "/api/register", gin.H{
		"email":    "not-an-email",
		"password": "s3cret-pass",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestRegisterEndpoint_SendsVerificationMail(t *testing.T) {
	f := newFixture(t)
	f.registerAlice(t)

	// Mail goes out on the background dispatcher; drain it first.
	f.dispatcher.Close()

	sent := f.sender.all()
	if len(sent) != 1 {
		t.Fatalf("expected 1 mail, got %d", len(sent))
	}
	code := f.verificationCode(t, "alice@example.com")
	if !strings.Contains(sent[0].Body, fmt.Sprintf("%06d", code)) {
		t.Errorf("mail body %q does not carry code %06d", sent[0].Body, code)
	}
}

func TestLoginEndpoint_VerificationPending(t *testing.T) {
	f := newFixture(t)
	f.registerAlice(t)

	w := f.doJSON(t, http.MethodPost, "/api/login", gin.H{
		"email":    "alice@example.com",
		"password": "s3cret-pass",
	})
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 while unverified, got %d: %s", w.Code, w.Body.String())
	}
}

func TestLoginEndpoint_BadCredentials(t *testing.T) {
	f := newFixture(t)
	f.registerAlice(t)

	w := f.doJSON(t, http.MethodPost, "/api/login", gin.H{
		"email":    "alice@example.com",
		"password": "wrong",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestVerifyEndpoint_UnknownCode(t *testing.T) {
	f := newFixture(t)

	w := f.doJSON(t, http.MethodGet, "/api/verify?code=123456", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}

	w = f.doJSON(t, http.MethodGet, "/api/verify?code=junk", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for a non-numeric code, got %d", w.Code)
	}
}

func TestRefreshEndpoint_NoCookie(t *testing.T) {
	f := newFixture(t)

	w := f.doJSON(t, http.MethodPost, "/api/refresh", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestProfileEndpoint_NoToken(t *testing.T) {
	f := newFixture(t)

	w := f.doJSON(t, http.MethodGet, "/api/profile", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

// TestEndToEnd walks the full signup, verification, login and rotation flow
// for one account.
func TestEndToEnd(t *testing.T) {
	f := newFixture(t)

	// Sign up; the account starts unverified and login is gated.
	f.registerAlice(t)
	w := f.doJSON(t, http.MethodPost, "/api/login", gin.H{
		"email": "alice@example.com", "password": "s3cret-pass",
	})
	if w.Code != http.StatusForbidden {
		t.Fatalf("login before verification: expected 403, got %d", w.Code)
	}

	// Verify with the emailed code.
	code := f.verificationCode(t, "alice@example.com")
	w = f.doJSON(t, http.MethodGet, fmt.Sprintf("/api/verify?code=%d", code), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("verify: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// Login now succeeds and sets both cookies.
	w = f.doJSON(t, http.MethodPost, "/api/login", gin.H{
		"email": "alice@example.com", "password": "s3cret-pass",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	accessCookie := cookieNamed(t, w, accessCookieName)
	refreshCookie := cookieNamed(t, w, refreshCookieName)
	if !refreshCookie.HttpOnly {
		t.Error("refresh cookie must be HttpOnly")
	}

	// The access token answers /api/profile without any storage read.
	w = f.doJSON(t, http.MethodGet, "/api/profile", nil, accessCookie)
	if w.Code != http.StatusOK {
		t.Fatalf("profile: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	profile := decodeBody(t, w)
	if profile["email"] != "alice@example.com" || profile["is_verified"] != true {
		t.Errorf("unexpected identity snapshot: %v", profile)
	}

	// Rotation: the refresh succeeds once and replaces the cookie.
	w = f.doJSON(t, http.MethodPost, "/api/refresh", nil, refreshCookie)
	if w.Code != http.StatusOK {
		t.Fatalf("refresh: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	rotated := cookieNamed(t, w, refreshCookieName)
	if rotated.Value == refreshCookie.Value {
		t.Fatal("refresh must rotate the cookie value")
	}

	// Replaying the rotated-away cookie is rejected and clears cookies.
	w = f.doJSON(t, http.MethodPost, "/api/refresh", nil, refreshCookie)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("replay: expected 401, got %d", w.Code)
	}
	cleared := cookieNamed(t, w, refreshCookieName)
	if cleared.Value != "" || cleared.MaxAge >= 0 {
		t.Error("replay must delete the refresh cookie")
	}

	// The current cookie chain keeps working.
	w = f.doJSON(t, http.MethodPost, "/api/refresh", nil, rotated)
	if w.Code != http.StatusOK {
		t.Fatalf("second rotation: expected 200, got %d", w.Code)
	}

	// The earlier access token stays valid until it expires on its own.
	w = f.doJSON(t, http.MethodGet, "/api/profile", nil, accessCookie)
	if w.Code != http.StatusOK {
		t.Fatalf("profile with original access token: expected 200, got %d", w.Code)
	}
}
