package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/connect-gateway/internal/domain/auth"
	"github.com/yanqian/connect-gateway/internal/domain/session"
	"github.com/yanqian/connect-gateway/internal/infra/backend"
	"github.com/yanqian/connect-gateway/internal/infra/config"
	"github.com/yanqian/connect-gateway/internal/infra/sessionstore"
)

// fakeBackend stands in for the external document API.
type fakeBackend struct {
	mu          sync.Mutex
	refreshN    int
	signoutN    int
	signoutFail bool
	uploadN     int
	uploadLen   int
}

func (f *fakeBackend) handler() http.Handler {
	// Go 1.21's ServeMux has no method or wildcard patterns; enforce the
	// method by hand and dispatch the {id} routes on their path suffix.
	method := func(m string, h http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Method != m {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			h(w, r)
		}
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/signin", method(http.MethodPost, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		if body["password"] != "secret1" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"detail": "Invalid login credentials"})
			return
		}
		json.NewEncoder(w).Encode(map[string]string{
			"access_token":  "access-1",
			"refresh_token": "refresh-ok",
			"user_id":       "user-1",
			"email":         body["email"],
		})
	}))
	mux.HandleFunc("/auth/signup", method(http.MethodPost, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		switch body["email"] {
		case "dup@x.com":
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"detail": "User already exists"})
		case "pending@x.com":
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"detail": "Sign up failed. Please check your email for confirmation."})
		default:
			json.NewEncoder(w).Encode(map[string]string{
				"access_token":  "access-1",
				"refresh_token": "refresh-ok",
				"user_id":       "user-2",
				"email":         body["email"],
			})
		}
	}))
	mux.HandleFunc("/auth/refresh", method(http.MethodPost, func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.refreshN++
		f.mu.Unlock()
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		if body["refresh_token"] != "refresh-ok" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"detail": "Invalid refresh token"})
			return
		}
		json.NewEncoder(w).Encode(map[string]string{
			"access_token":  "access-2",
			"refresh_token": "refresh-ok-2",
		})
	}))
	mux.HandleFunc("/auth/signout", method(http.MethodPost, func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.signoutN++
		fail := f.signoutFail
		f.mu.Unlock()
		if fail {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	mux.HandleFunc("/collections", method(http.MethodGet, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"uuid":"c1","name":"Docs"}]`))
	}))
	uploadDocuments := func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.uploadN++
		f.uploadLen = len(body)
		f.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"added_chunk_ids":["chunk-1"]}`))
	}
	searchDocuments := func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), "query") {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"detail":"query is required"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":"chunk-1","score":0.9}]`))
	}
	mux.HandleFunc("/collections/", method(http.MethodPost, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/documents/search"):
			searchDocuments(w, r)
		case strings.HasSuffix(r.URL.Path, "/documents"):
			uploadDocuments(w, r)
		default:
			http.NotFound(w, r)
		}
	}))
	return mux
}

func (f *fakeBackend) refreshCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refreshN
}

type testEnv struct {
	router  http.Handler
	backend *fakeBackend
	codec   *session.Codec
	cfg     *config.Config
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	fake := &fakeBackend{}
	backendSrv := httptest.NewServer(fake.handler())
	t.Cleanup(backendSrv.Close)

	cfg := &config.Config{
		HTTP: config.HTTPConfig{Address: ":0"},
		Backend: config.BackendConfig{
			BaseURL: backendSrv.URL,
			Timeout: 5 * time.Second,
		},
		Session: config.SessionConfig{
			Secret:         "test-secret",
			CookieName:     "connect_session",
			AccessTokenTTL: time.Hour,
			MaxAge:         24 * time.Hour,
			Store:          config.StoreCookie,
		},
	}

	codec, err := session.NewCodec(cfg.Session.Secret, cfg.Session.MaxAge)
	require.NoError(t, err)
	store := sessionstore.NewCookieStore(codec, cfg.Session.CookieName)

	client := backend.NewClient(cfg.Backend, logger)
	authCfg := auth.Config{AccessTokenTTL: cfg.Session.AccessTokenTTL}
	manager := session.NewManager(store, auth.NewTokenRefresher(authCfg, client, logger), logger)
	handler := NewHandler(cfg, auth.NewService(authCfg, client, logger), manager, client, nil, logger)
	server := NewRouter(cfg, handler, NewGuard(manager, logger))

	return &testEnv{router: server.Handler, backend: fake, codec: codec, cfg: cfg}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// signIn runs the credential flow and returns the session cookie it set.
func (e *testEnv) signIn(t *testing.T) *http.Cookie {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/signin", strings.NewReader(`{"email":"a@x.com","password":"secret1"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := e.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	cookie := sessionCookie(t, rec, e.cfg.Session.CookieName)
	require.NotNil(t, cookie)
	return cookie
}

// sealCookie crafts a session cookie directly, bypassing the sign-in flow.
func (e *testEnv) sealCookie(t *testing.T, s session.Session) *http.Cookie {
	t.Helper()
	artifact, err := e.codec.Seal(s, time.Now().UTC())
	require.NoError(t, err)
	return &http.Cookie{Name: e.cfg.Session.CookieName, Value: artifact}
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}

func decodeErrorBody(t *testing.T, body []byte) map[string]map[string]string {
	t.Helper()
	var decoded map[string]map[string]string
	require.NoError(t, json.Unmarshal(body, &decoded))
	return decoded
}

func TestRouter_Health(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_UnknownAPIRouteStaysJSON(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/unknown", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Empty(t, rec.Header().Get("Location"), "api consumers never get redirected")
	require.Equal(t, "not_found", decodeErrorBody(t, rec.Body.Bytes())["error"]["code"])
}

func TestRouter_SignInEstablishesSession(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.signIn(t)
	require.True(t, cookie.HttpOnly)
	require.Positive(t, cookie.MaxAge)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/session", nil)
	req.AddCookie(cookie)
	rec := env.do(req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Authenticated bool         `json:"authenticated"`
		Session       session.View `json:"session"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.True(t, body.Authenticated)
	require.Equal(t, "user-1", body.Session.UserID)
	require.Equal(t, "a@x.com", body.Session.Email)
	require.NotContains(t, rec.Body.String(), "refresh-ok", "refresh token never reaches the client")
}

func TestRouter_SignInBadCredentials(t *testing.T) {
	env := newTestEnv(t)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/signin", strings.NewReader(`{"email":"a@x.com","password":"wrong"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := env.do(req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	errBody := decodeErrorBody(t, rec.Body.Bytes())
	require.Equal(t, "authentication_failed", errBody["error"]["code"])
	require.Nil(t, sessionCookie(t, rec, env.cfg.Session.CookieName))
}

func TestRouter_SignUpVerificationRequiredIsSoftSuccess(t *testing.T) {
	env := newTestEnv(t)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/signup", strings.NewReader(`{"email":"pending@x.com","password":"secret1"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := env.do(req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, true, body["verificationRequired"])
	require.Nil(t, sessionCookie(t, rec, env.cfg.Session.CookieName), "no usable session is produced")
}

func TestRouter_SignUpDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/signup", strings.NewReader(`{"email":"dup@x.com","password":"secret1"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := env.do(req)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "user_already_exists", decodeErrorBody(t, rec.Body.Bytes())["error"]["code"])
}

func TestRouter_SignOutClearsSessionEvenWhenNotifyFails(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.signIn(t)
	env.backend.signoutFail = true

	req := httptest.NewRequest(http.MethodPost, "/api/auth/signout", nil)
	req.AddCookie(cookie)
	rec := env.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, env.backend.signoutN)

	cleared := sessionCookie(t, rec, env.cfg.Session.CookieName)
	require.NotNil(t, cleared)
	require.Negative(t, cleared.MaxAge)
}

func TestRouter_CollectionsRequireSession(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/collections", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "unauthorized", decodeErrorBody(t, rec.Body.Bytes())["error"]["code"])
}

func TestRouter_CollectionsProxyAttachesBearer(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.signIn(t)

	req := httptest.NewRequest(http.MethodGet, "/api/collections", nil)
	req.AddCookie(cookie)
	rec := env.do(req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.True(t, body.Success)
	require.JSONEq(t, `[{"uuid":"c1","name":"Docs"}]`, string(body.Data))
}

func TestRouter_UploadForwardedByteForByte(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.signIn(t)

	payload := bytes.Repeat([]byte("0123456789abcdef"), 1<<16) // 1 MiB
	req := httptest.NewRequest(http.MethodPost, "/api/collections/c1/documents", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=xyz")
	req.AddCookie(cookie)
	rec := env.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, env.backend.uploadN)
	require.Equal(t, len(payload), env.backend.uploadLen, "upload must arrive intact")
}

func TestRouter_UploadOverLimitRejectedNotTruncated(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.signIn(t)

	payload := make([]byte, proxyBodyLimit+1000)
	req := httptest.NewRequest(http.MethodPost, "/api/collections/c1/documents", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=xyz")
	req.AddCookie(cookie)
	rec := env.do(req)
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	require.Equal(t, "payload_too_large", decodeErrorBody(t, rec.Body.Bytes())["error"]["code"])
	require.Zero(t, env.backend.uploadN, "a partial body must never reach the backend")
}

func TestRouter_SearchProxyForwardsBodyAndWrapsErrors(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.signIn(t)

	req := httptest.NewRequest(http.MethodPost, "/api/collections/c1/documents/search", strings.NewReader(`{"query":"hello","limit":5}`))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(cookie)
	rec := env.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "chunk-1")

	bad := httptest.NewRequest(http.MethodPost, "/api/collections/c1/documents/search", strings.NewReader(`{}`))
	bad.Header.Set("Content-Type", "application/json")
	bad.AddCookie(cookie)
	rec = env.do(bad)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, false, body["success"])
	require.Equal(t, "query is required", body["message"])
}
