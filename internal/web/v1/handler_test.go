package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/duynhne/poker-service/internal/core"
	"github.com/duynhne/poker-service/internal/core/domain"
	"github.com/duynhne/poker-service/internal/core/repository"
	logicv1 "github.com/duynhne/poker-service/internal/logic/v1"
	"github.com/duynhne/poker-service/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type nopMailer struct{}

func (nopMailer) Send(context.Context, domain.Message) error { return nil }

type fakeProvider struct {
	identity *domain.ExternalIdentity
}

func (p *fakeProvider) AuthCodeURL(state string) string {
	return "https://accounts.example/auth?state=" + url.QueryEscape(state)
}

func (p *fakeProvider) Exchange(_ context.Context, code string) (*domain.ExternalIdentity, error) {
	if code != "good-code" {
		return nil, assert.AnError
	}
	return p.identity, nil
}

func newRouter(t *testing.T, provider domain.IdentityProvider) *gin.Engine {
	t.Helper()
	db, err := core.OpenSQLite(":memory:", repository.GormModels()...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = core.CloseSQLite(db) })

	tokens := logicv1.NewTokenIssuer("test-secret", time.Hour, "poker-service")
	auth := logicv1.NewAuthService(repository.NewGormUserRepository(db), tokens, nopMailer{}, logicv1.AuthOptions{
		BcryptCost:  bcrypt.MinCost,
		FrontendURL: "https://poker.example",
	})
	sessionSvc := logicv1.NewSessionService(repository.NewGormSessionRepository(db))

	h := NewHandler(auth, sessionSvc, Options{
		Google:      provider,
		Cookies:     sessions.NewCookieStore([]byte("0123456789abcdef0123456789abcdef")),
		FrontendURL: "https://poker.example",
	})

	r := gin.New()
	r.Use(middleware.LoggingMiddleware())
	h.RegisterRoutes(r.Group("/api/v1"))
	return r
}

func do(r http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func register(t *testing.T, r http.Handler, email string) string {
	t.Helper()
	w := do(r, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"username": "player", "email": email, "password": "secret1",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[domain.AuthResponse](t, w).Token
}

type sessionBody struct {
	ID            string   `json:"id"`
	BuyIn         float64  `json:"buyIn"`
	CashOut       *float64 `json:"cashOut"`
	Duration      int      `json:"duration"`
	IsActive      bool     `json:"isActive"`
	GameType      string   `json:"gameType"`
	Stakes        string   `json:"stakes"`
	Profit        *float64 `json:"profit"`
	ProfitPerHour *float64 `json:"profitPerHour"`
}

func TestRegisterAndLogin(t *testing.T) {
	r := newRouter(t, nil)
	register(t, r, "a@b.com")

	w := do(r, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"username": "other", "email": "a@b.com", "password": "secret1",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(r, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"username": "other", "email": "not-an-email", "password": "secret1",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "email", decode[map[string]string](t, w)["field"])

	w = do(r, http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "a@b.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, w.Code)
	token := decode[domain.AuthResponse](t, w).Token

	wrong := do(r, http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "a@b.com", "password": "wrong-pw"})
	unknown := do(r, http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "x@b.com", "password": "wrong-pw"})
	assert.Equal(t, http.StatusUnauthorized, wrong.Code)
	assert.Equal(t, wrong.Code, unknown.Code)
	assert.JSONEq(t, wrong.Body.String(), unknown.Body.String())

	w = do(r, http.MethodGet, "/api/v1/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "a@b.com", decode[domain.User](t, w).Email)
	assert.NotContains(t, w.Body.String(), "password")
}

func TestAuthRequired(t *testing.T) {
	r := newRouter(t, nil)
	token := register(t, r, "a@b.com")

	w := do(r, http.MethodGet, "/api/v1/sessions", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Not authorized"}`, w.Body.String())

	w = do(r, http.MethodGet, "/api/v1/sessions", "forged.token.value", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions", nil)
	req.Header.Set(middleware.LegacyTokenHeader, token)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestLiveSessionFlow(t *testing.T) {
	r := newRouter(t, nil)
	token := register(t, r, "a@b.com")

	w := do(r, http.MethodPost, "/api/v1/sessions", token, gin.H{
		"buyIn":    100,
		"gameType": gin.H{"custom": "Short Deck"},
		"stakes":   gin.H{"sb": "1", "bb": "3", "straddle": "6"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[sessionBody](t, w)
	assert.True(t, created.IsActive)
	assert.Nil(t, created.CashOut)
	assert.Nil(t, created.Profit)
	assert.Equal(t, "Short Deck", created.GameType)
	assert.Equal(t, "1/3 (Straddle: 6)", created.Stakes)

	base := "/api/v1/sessions/" + created.ID

	w = do(r, http.MethodGet, "/api/v1/sessions/active", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]sessionBody](t, w), 1)

	w = do(r, http.MethodPost, base+"/buy-ins", token, gin.H{"amount": 50})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 150.0, decode[sessionBody](t, w).BuyIn)

	w = do(r, http.MethodPost, base+"/pause", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = do(r, http.MethodPost, base+"/resume", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodPost, base+"/finish", token, gin.H{"elapsedSeconds": 5400})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, base+"/finish", token, gin.H{"cashOut": 200, "elapsedSeconds": 5400})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	done := decode[sessionBody](t, w)
	assert.False(t, done.IsActive)
	assert.Equal(t, 90, done.Duration)
	require.NotNil(t, done.Profit)
	assert.Equal(t, 50.0, *done.Profit)
	assert.Equal(t, 33.33, *done.ProfitPerHour)

	w = do(r, http.MethodPost, base+"/finish", token, gin.H{"cashOut": 10})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(r, http.MethodPost, base+"/discard", token, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(r, http.MethodGet, "/api/v1/sessions/stats", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode[logicv1.Stats](t, w)
	assert.Equal(t, 50.0, stats.Summary.TotalProfit)
	assert.Equal(t, 1.5, stats.Summary.TotalHours)
	require.Len(t, stats.Series, 1)
}

func TestCreateValidation(t *testing.T) {
	r := newRouter(t, nil)
	token := register(t, r, "a@b.com")

	w := do(r, http.MethodPost, "/api/v1/sessions", token, gin.H{"buyIn": "abc"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/api/v1/sessions", token, gin.H{"buyIn": -5})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "buyIn", decode[map[string]string](t, w)["field"])

	w = do(r, http.MethodPost, "/api/v1/sessions", token, gin.H{"buyIn": 10, "gameType": "Custom"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodGet, "/api/v1/sessions?subtractTip=maybe", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCompletedSessionAndFilter(t *testing.T) {
	r := newRouter(t, nil)
	token := register(t, r, "a@b.com")

	for i, cashOut := range []float64{80, 100, 135} {
		w := do(r, http.MethodPost, "/api/v1/sessions", token, gin.H{
			"buyIn":     100,
			"cashOut":   cashOut,
			"startTime": time.Date(2024, 5, i+1, 20, 0, 0, 0, time.UTC),
			"duration":  60,
			"isActive":  false,
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w := do(r, http.MethodGet, "/api/v1/sessions/filter?profitMin=0&sortBy=profit&order=asc", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := decode[[]sessionBody](t, w)
	require.Len(t, got, 2)
	assert.Equal(t, 0.0, *got[0].Profit)
	assert.Equal(t, 35.0, *got[1].Profit)

	w = do(r, http.MethodGet, "/api/v1/sessions/filter?profitMin=lots", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "profitMin", decode[map[string]string](t, w)["field"])

	w = do(r, http.MethodGet, "/api/v1/sessions/filter?startDate=2024-05-02&endDate=2024-05-02", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]sessionBody](t, w), 1)
}

func TestUpdateSession(t *testing.T) {
	r := newRouter(t, nil)
	token := register(t, r, "a@b.com")

	w := do(r, http.MethodPost, "/api/v1/sessions", token, gin.H{
		"buyIn": 100, "cashOut": 150, "startTime": "2024-05-01T20:00:00Z", "duration": 90, "notes": "keep",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := decode[sessionBody](t, w).ID

	w = do(r, http.MethodPut, "/api/v1/sessions/"+id, token, gin.H{"cashOut": 0})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[sessionBody](t, w)
	require.NotNil(t, updated.CashOut)
	assert.Equal(t, 0.0, *updated.CashOut)
	assert.Equal(t, 90, updated.Duration)
	assert.Equal(t, -100.0, *updated.Profit)
}

func TestSessionOwnership(t *testing.T) {
	r := newRouter(t, nil)
	owner := register(t, r, "owner@b.com")
	other := register(t, r, "other@b.com")

	w := do(r, http.MethodPost, "/api/v1/sessions", owner, gin.H{"buyIn": 100})
	require.Equal(t, http.StatusCreated, w.Code)
	path := "/api/v1/sessions/" + decode[sessionBody](t, w).ID

	assert.Equal(t, http.StatusForbidden, do(r, http.MethodGet, path, other, nil).Code)
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodPut, path, other, gin.H{"notes": "x"}).Code)
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodDelete, path, other, nil).Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/api/v1/sessions/does-not-exist", owner, nil).Code)

	assert.Equal(t, http.StatusOK, do(r, http.MethodDelete, path, owner, nil).Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, path, owner, nil).Code)
}

func TestDeleteAccountRevokesAccess(t *testing.T) {
	r := newRouter(t, nil)
	token := register(t, r, "a@b.com")

	w := do(r, http.MethodPost, "/api/v1/sessions", token, gin.H{"buyIn": 100})
	require.Equal(t, http.StatusCreated, w.Code)

	w = do(r, http.MethodDelete, "/api/v1/auth/account", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodGet, "/api/v1/sessions", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPasswordEndpoints(t *testing.T) {
	r := newRouter(t, nil)
	token := register(t, r, "a@b.com")

	known := do(r, http.MethodPost, "/api/v1/auth/forgot-password", "", gin.H{"email": "a@b.com"})
	unknown := do(r, http.MethodPost, "/api/v1/auth/forgot-password", "", gin.H{"email": "nobody@b.com"})
	assert.Equal(t, http.StatusOK, known.Code)
	assert.Equal(t, known.Body.String(), unknown.Body.String())

	w := do(r, http.MethodPost, "/api/v1/auth/reset-password/bogus", "", gin.H{"password": "newpass1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/api/v1/auth/change-password", token, gin.H{"currentPassword": "bad", "newPassword": "newpass1"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodPost, "/api/v1/auth/change-password", token, gin.H{"currentPassword": "secret1", "newPassword": "newpass1"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGoogleOAuth(t *testing.T) {
	provider := &fakeProvider{identity: &domain.ExternalIdentity{
		Subject: "g-42", Email: "g@b.com", EmailVerified: true, Name: "Gee",
	}}
	r := newRouter(t, provider)

	w := do(r, http.MethodGet, "/api/v1/auth/google", "", nil)
	require.Equal(t, http.StatusFound, w.Code)
	location, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	state := location.Query().Get("state")
	require.NotEmpty(t, state)
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)

	callback := func(query string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/callback?"+query, nil)
		for _, c := range cookies {
			req.AddCookie(c)
		}
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusBadRequest, callback("state=wrong&code=good-code").Code)

	w = callback("state=" + url.QueryEscape(state) + "&code=good-code")
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())
	redirect, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "poker.example", redirect.Host)
	assert.Equal(t, "/auth/google/callback", redirect.Path)
	token := redirect.Query().Get("token")
	require.NotEmpty(t, token)

	me := do(r, http.MethodGet, "/api/v1/auth/me", token, nil)
	require.Equal(t, http.StatusOK, me.Code)
	assert.Equal(t, "g@b.com", decode[domain.User](t, me).Email)
}

func TestGoogleOAuthDisabled(t *testing.T) {
	r := newRouter(t, nil)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/api/v1/auth/google", "", nil).Code)
}
