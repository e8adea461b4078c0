package v1

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/duynhne/poker-service/internal/core"
	"github.com/duynhne/poker-service/internal/core/domain"
	"github.com/duynhne/poker-service/internal/core/repository"
)

type fakeMailer struct {
	mu   sync.Mutex
	sent []domain.Message
	err  error
}

func (m *fakeMailer) Send(_ context.Context, msg domain.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

type fixture struct {
	auth     *AuthService
	sessions *SessionService
	tokens   *TokenIssuer
	users    domain.UserRepository
	mailer   *fakeMailer
	clock    *clock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := core.OpenSQLite(":memory:", repository.GormModels()...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = core.CloseSQLite(db) })

	clk := &clock{t: time.Date(2024, 3, 1, 18, 0, 0, 0, time.UTC)}
	users := repository.NewGormUserRepository(db)
	tokens := NewTokenIssuer("test-secret", time.Hour, "poker-service")
	tokens.now = clk.now
	mailer := &fakeMailer{}

	auth := NewAuthService(users, tokens, mailer, AuthOptions{
		BcryptCost:    bcrypt.MinCost,
		ResetTokenTTL: time.Hour,
		FrontendURL:   "https://poker.example",
	})
	auth.now = clk.now

	sessions := NewSessionService(repository.NewGormSessionRepository(db))
	sessions.now = clk.now

	return &fixture{auth: auth, sessions: sessions, tokens: tokens, users: users, mailer: mailer, clock: clk}
}

func (f *fixture) register(t *testing.T, email string) *domain.AuthResponse {
	t.Helper()
	resp, err := f.auth.Register(context.Background(), domain.RegisterRequest{
		Username: "player",
		Email:    email,
		Password: "secret1",
	})
	require.NoError(t, err)
	return resp
}

func f64(v float64) *float64 { return &v }
func i64(v int64) *int64     { return &v }
func intp(v int) *int        { return &v }
func boolp(v bool) *bool     { return &v }
func strp(v string) *string  { return &v }

func TestSessionScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	userID := f.register(t, "a@b.com").User.ID

	started, err := f.sessions.Start(ctx, userID, domain.SessionInput{BuyIn: f64(100)})
	require.NoError(t, err)
	assert.True(t, started.IsActive)
	assert.Nil(t, started.EndTime)
	assert.Nil(t, started.CashOut)

	f.clock.advance(30 * time.Minute)
	_, err = f.sessions.AddBuyIn(ctx, userID, started.ID, f64(50))
	require.NoError(t, err)

	finished, err := f.sessions.Finish(ctx, userID, started.ID, domain.FinishRequest{
		CashOut:        f64(200),
		ElapsedSeconds: i64(5400),
	})
	require.NoError(t, err)

	stored, err := f.sessions.Get(ctx, userID, started.ID)
	require.NoError(t, err)
	assert.Equal(t, 150.0, stored.BuyIn)
	assert.Len(t, stored.BuyIns, 2)
	assert.Equal(t, 90, stored.Duration)
	assert.False(t, stored.IsActive)
	require.NotNil(t, stored.EndTime)
	assert.Equal(t, finished.EndTime.Unix(), stored.EndTime.Unix())

	view := NewSessionView(*stored, MetricOptions{})
	require.NotNil(t, view.Profit)
	assert.Equal(t, 50.0, *view.Profit)
	assert.Equal(t, 33.33, *view.ProfitPerHour)
}

func TestFinishRules(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	userID := f.register(t, "a@b.com").User.ID

	s, err := f.sessions.Start(ctx, userID, domain.SessionInput{BuyIn: f64(100)})
	require.NoError(t, err)

	_, err = f.sessions.Finish(ctx, userID, s.ID, domain.FinishRequest{})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "cashOut", verr.Field)

	f.clock.advance(61 * time.Second)
	finished, err := f.sessions.Finish(ctx, userID, s.ID, domain.FinishRequest{CashOut: f64(0)})
	require.NoError(t, err)
	assert.Equal(t, 2, finished.Duration, "server clock rounds up to whole minutes")
	assert.Equal(t, 0.0, finished.CashOutValue())

	_, err = f.sessions.Finish(ctx, userID, s.ID, domain.FinishRequest{CashOut: f64(10)})
	assert.ErrorIs(t, err, ErrSessionFinished)

	_, err = f.sessions.AddBuyIn(ctx, userID, s.ID, f64(10))
	assert.ErrorIs(t, err, ErrSessionNotActive)

	assert.ErrorIs(t, f.sessions.Discard(ctx, userID, s.ID), ErrSessionNotActive)
}

func TestStartValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	userID := f.register(t, "a@b.com").User.ID

	tests := []struct {
		name  string
		in    domain.SessionInput
		field string
	}{
		{name: "missing buy-in", in: domain.SessionInput{}, field: "buyIn"},
		{name: "negative buy-in", in: domain.SessionInput{BuyIn: f64(-1)}, field: "buyIn"},
		{name: "unknown setting", in: domain.SessionInput{BuyIn: f64(1), Setting: strp("Casino")}, field: "setting"},
		{name: "unknown session type", in: domain.SessionInput{BuyIn: f64(1), SessionType: strp("Sit")}, field: "sessionType"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.sessions.Start(ctx, userID, tt.in)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestPauseResume(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	userID := f.register(t, "a@b.com").User.ID

	s, err := f.sessions.Start(ctx, userID, domain.SessionInput{BuyIn: f64(100)})
	require.NoError(t, err)

	f.clock.advance(10 * time.Minute)
	paused, err := f.sessions.Pause(ctx, userID, s.ID)
	require.NoError(t, err)
	assert.False(t, paused.IsRunning)
	assert.Equal(t, int64(600), paused.ElapsedSeconds)

	f.clock.advance(time.Hour)
	again, err := f.sessions.Pause(ctx, userID, s.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(600), again.ElapsedSeconds)

	_, err = f.sessions.Resume(ctx, userID, s.ID)
	require.NoError(t, err)
	f.clock.advance(5 * time.Minute)

	finished, err := f.sessions.Finish(ctx, userID, s.ID, domain.FinishRequest{CashOut: f64(120)})
	require.NoError(t, err)
	assert.Equal(t, int64(900), finished.ElapsedSeconds)
	assert.Equal(t, 15, finished.Duration)
}

func TestCreateCompletedAndRoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	userID := f.register(t, "a@b.com").User.ID

	start := time.Date(2024, 2, 10, 20, 0, 0, 0, time.UTC)
	gt, err := domain.CustomGameType("Short Deck")
	require.NoError(t, err)
	st, err := domain.StakesFromBlinds("1", "3", "", "6")
	require.NoError(t, err)

	created, err := f.sessions.Create(ctx, userID, domain.SessionInput{
		BuyIn:       f64(300),
		CashOut:     f64(410.5),
		Tip:         f64(10),
		StartTime:   &start,
		Duration:    intp(125),
		GameType:    &gt,
		Stakes:      &st,
		Setting:     strp("online"),
		SessionType: strp("Tournament"),
		SessionName: strp("Friday game"),
		Notes:       strp("deep run"),
		Photos:      &[]string{"p1.jpg"},
	})
	require.NoError(t, err)
	assert.False(t, created.IsActive)

	got, err := f.sessions.Get(ctx, userID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 300.0, got.BuyIn)
	assert.Equal(t, 410.5, got.CashOutValue())
	assert.Equal(t, 10.0, got.Tip)
	assert.True(t, start.Equal(got.StartTime))
	assert.Equal(t, 125, got.Duration)
	require.NotNil(t, got.EndTime)
	assert.True(t, start.Add(125*time.Minute).Equal(*got.EndTime))
	assert.Equal(t, "Short Deck", got.GameType.String())
	assert.True(t, got.GameType.IsCustom())
	assert.Equal(t, "1/3 (Straddle: 6)", got.Stakes.String())
	assert.Equal(t, domain.SettingOnline, got.Setting)
	assert.Equal(t, domain.SessionTypeTournament, got.SessionType)
	assert.Equal(t, "Friday game", got.SessionName)
	assert.Equal(t, "deep run", got.Notes)
	assert.Equal(t, []string{"p1.jpg"}, got.Photos)

	end := start.Add(-time.Minute)
	_, err = f.sessions.Create(ctx, userID, domain.SessionInput{
		BuyIn: f64(1), CashOut: f64(1), StartTime: &start, EndTime: &end,
	})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.sessions.Create(ctx, userID, domain.SessionInput{
		BuyIn: f64(1), CashOut: f64(1), StartTime: &start,
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUpdatePartial(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	userID := f.register(t, "a@b.com").User.ID

	start := time.Date(2024, 2, 10, 20, 0, 0, 0, time.UTC)
	s, err := f.sessions.Create(ctx, userID, domain.SessionInput{
		BuyIn: f64(100), CashOut: f64(150), Tip: f64(5), StartTime: &start, Duration: intp(60),
		SessionName: strp("home"), Notes: strp("note"),
	})
	require.NoError(t, err)

	updated, err := f.sessions.Update(ctx, userID, s.ID, domain.SessionInput{
		Tip:   f64(0),
		Notes: strp(""),
	})
	require.NoError(t, err)
	assert.Equal(t, 0.0, updated.Tip, "explicit zero applies")
	assert.Equal(t, "", updated.Notes, "explicit empty string applies")
	assert.Equal(t, "home", updated.SessionName, "absent field is kept")
	assert.Equal(t, 150.0, updated.CashOutValue())
	assert.Equal(t, 60, updated.Duration)

	_, err = f.sessions.Update(ctx, userID, s.ID, domain.SessionInput{IsActive: boolp(true)})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUpdateFinishesActiveSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	userID := f.register(t, "a@b.com").User.ID

	s, err := f.sessions.Start(ctx, userID, domain.SessionInput{BuyIn: f64(100)})
	require.NoError(t, err)

	_, err = f.sessions.Update(ctx, userID, s.ID, domain.SessionInput{CashOut: f64(10)})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.sessions.Update(ctx, userID, s.ID, domain.SessionInput{IsActive: boolp(false)})
	assert.ErrorIs(t, err, ErrValidation)

	finished, err := f.sessions.Update(ctx, userID, s.ID, domain.SessionInput{
		IsActive:       boolp(false),
		CashOut:        f64(180),
		ElapsedSeconds: i64(3601),
	})
	require.NoError(t, err)
	assert.False(t, finished.IsActive)
	assert.Equal(t, 61, finished.Duration)
	assert.Equal(t, 80.0, Profit(finished, MetricOptions{}))
}

func TestUpdateFinishRejectsEarlyEndTime(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	userID := f.register(t, "a@b.com").User.ID

	s, err := f.sessions.Start(ctx, userID, domain.SessionInput{BuyIn: f64(100)})
	require.NoError(t, err)

	early := s.StartTime.Add(-time.Hour)
	_, err = f.sessions.Update(ctx, userID, s.ID, domain.SessionInput{
		IsActive: boolp(false),
		CashOut:  f64(120),
		EndTime:  &early,
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "endTime", verr.Field)

	stored, err := f.sessions.Get(ctx, userID, s.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsActive)
}

func TestFilterSkipsLiveSessionsForProfit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	userID := f.register(t, "a@b.com").User.ID

	_, err := f.sessions.Start(ctx, userID, domain.SessionInput{BuyIn: f64(100)})
	require.NoError(t, err)

	views, err := f.sessions.Filter(ctx, userID, domain.FilterQuery{ProfitMax: "-50"})
	require.NoError(t, err)
	assert.Empty(t, views)

	views, err = f.sessions.Filter(ctx, userID, domain.FilterQuery{})
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Nil(t, views[0].Profit)
}

func TestOwnership(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.register(t, "owner@b.com").User.ID
	other := f.register(t, "other@b.com").User.ID

	s, err := f.sessions.Start(ctx, owner, domain.SessionInput{BuyIn: f64(100)})
	require.NoError(t, err)

	_, err = f.sessions.Get(ctx, other, s.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.sessions.Update(ctx, other, s.ID, domain.SessionInput{Notes: strp("x")})
	assert.ErrorIs(t, err, ErrForbidden)
	assert.ErrorIs(t, f.sessions.Delete(ctx, other, s.ID), ErrForbidden)
	_, err = f.sessions.Finish(ctx, other, s.ID, domain.FinishRequest{CashOut: f64(1)})
	assert.ErrorIs(t, err, ErrForbidden)

	list, err := f.sessions.List(ctx, other)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = f.sessions.Get(ctx, owner, "not-a-uuid")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestDiscardAndDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	userID := f.register(t, "a@b.com").User.ID

	live, err := f.sessions.Start(ctx, userID, domain.SessionInput{BuyIn: f64(20)})
	require.NoError(t, err)
	require.NoError(t, f.sessions.Discard(ctx, userID, live.ID))
	_, err = f.sessions.Get(ctx, userID, live.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	start := f.clock.t.Add(-time.Hour)
	done, err := f.sessions.Create(ctx, userID, domain.SessionInput{
		BuyIn: f64(20), CashOut: f64(40), StartTime: &start, Duration: intp(30),
	})
	require.NoError(t, err)
	require.NoError(t, f.sessions.Delete(ctx, userID, done.ID))
	assert.ErrorIs(t, f.sessions.Delete(ctx, userID, done.ID), ErrSessionNotFound)
}

func TestListActiveAndStats(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	userID := f.register(t, "a@b.com").User.ID

	day := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	for i, p := range []struct{ buyIn, cashOut float64 }{{100, 80}, {100, 160}} {
		start := day.AddDate(0, 0, i)
		_, err := f.sessions.Create(ctx, userID, domain.SessionInput{
			BuyIn: f64(p.buyIn), CashOut: f64(p.cashOut), StartTime: &start, Duration: intp(60),
		})
		require.NoError(t, err)
	}
	_, err := f.sessions.Start(ctx, userID, domain.SessionInput{BuyIn: f64(500)})
	require.NoError(t, err)

	active, err := f.sessions.ListActive(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	stats, err := f.sessions.Stats(ctx, userID, MetricOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Summary.Sessions)
	assert.Equal(t, 40.0, stats.Summary.TotalProfit)
	assert.Equal(t, 2.0, stats.Summary.TotalHours)
	assert.Equal(t, 20.0, stats.Summary.HourlyRate)
	require.Len(t, stats.Series, 2)
	assert.Equal(t, -20.0, stats.Series[0].Cumulative)
	assert.Equal(t, 40.0, stats.Series[1].Cumulative)
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	resp := f.register(t, "a@b.com")
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, f.clock.t.Add(time.Hour), resp.ExpiresAt)

	_, err := f.auth.Register(ctx, domain.RegisterRequest{Username: "x", Email: "A@B.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrUserExists)

	login, err := f.auth.Login(ctx, domain.LoginRequest{Email: " A@b.COM ", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, login.User.ID)

	_, wrongPassword := f.auth.Login(ctx, domain.LoginRequest{Email: "a@b.com", Password: "nope"})
	_, unknownUser := f.auth.Login(ctx, domain.LoginRequest{Email: "z@b.com", Password: "nope"})
	assert.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	assert.ErrorIs(t, unknownUser, ErrInvalidCredentials)

	// Unknown emails pay the same bcrypt cost as known ones.
	cost, err := bcrypt.Cost(f.auth.dummyHash())
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)

	user, err := f.auth.Authenticate(ctx, login.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, user.ID)
}

func TestAuthenticateRejectsBadTokens(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	resp := f.register(t, "a@b.com")

	_, err := f.auth.Authenticate(ctx, "")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = f.auth.Authenticate(ctx, "garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)

	forged := NewTokenIssuer("other-secret", time.Hour, "poker-service")
	token, _, err := forged.Issue(resp.User.ID)
	require.NoError(t, err)
	_, err = f.auth.Authenticate(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	f.clock.advance(2 * time.Hour)
	_, err = f.auth.Authenticate(ctx, resp.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswordReset(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.register(t, "a@b.com")

	require.NoError(t, f.auth.ForgotPassword(ctx, domain.ForgotPasswordRequest{Email: "nobody@b.com"}))
	assert.Empty(t, f.mailer.sent)

	require.NoError(t, f.auth.ForgotPassword(ctx, domain.ForgotPasswordRequest{Email: "a@b.com"}))
	require.Len(t, f.mailer.sent, 1)
	msg := f.mailer.sent[0]
	assert.Equal(t, "a@b.com", msg.To)

	const prefix = "https://poker.example/reset-password/"
	require.Contains(t, msg.Text, prefix)
	start := len(prefix) + strings.Index(msg.Text, prefix)
	token := msg.Text[start : start+2*resetTokenBytes]

	stored, err := f.users.GetByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, hashResetToken(token), stored.ResetTokenHash)
	assert.NotContains(t, stored.ResetTokenHash, token)

	err = f.auth.ResetPassword(ctx, "wrong", domain.ResetPasswordRequest{Password: "newpass1"})
	assert.ErrorIs(t, err, ErrInvalidResetToken)

	require.NoError(t, f.auth.ResetPassword(ctx, token, domain.ResetPasswordRequest{Password: "newpass1"}))
	err = f.auth.ResetPassword(ctx, token, domain.ResetPasswordRequest{Password: "newpass2"})
	assert.ErrorIs(t, err, ErrInvalidResetToken, "token is single use")

	_, err = f.auth.Login(ctx, domain.LoginRequest{Email: "a@b.com", Password: "newpass1"})
	require.NoError(t, err)
}

func TestPasswordResetExpired(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.register(t, "a@b.com")

	require.NoError(t, f.auth.ForgotPassword(ctx, domain.ForgotPasswordRequest{Email: "a@b.com"}))
	msg := f.mailer.sent[0].Text
	const prefix = "/reset-password/"
	start := strings.Index(msg, prefix) + len(prefix)
	token := msg[start : start+2*resetTokenBytes]

	f.clock.advance(61 * time.Minute)
	err := f.auth.ResetPassword(ctx, token, domain.ResetPasswordRequest{Password: "newpass1"})
	assert.ErrorIs(t, err, ErrInvalidResetToken)
}

func TestForgotPasswordHidesMailFailure(t *testing.T) {
	f := newFixture(t)
	f.register(t, "a@b.com")
	f.mailer.err = errors.New("smtp down")

	assert.NoError(t, f.auth.ForgotPassword(context.Background(), domain.ForgotPasswordRequest{Email: "a@b.com"}))
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	userID := f.register(t, "a@b.com").User.ID

	err := f.auth.ChangePassword(ctx, userID, domain.ChangePasswordRequest{CurrentPassword: "wrong", NewPassword: "newpass1"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	err = f.auth.ChangePassword(ctx, userID, domain.ChangePasswordRequest{CurrentPassword: "secret1", NewPassword: "x"})
	assert.ErrorIs(t, err, ErrValidation)

	require.NoError(t, f.auth.ChangePassword(ctx, userID, domain.ChangePasswordRequest{CurrentPassword: "secret1", NewPassword: "newpass1"}))
	_, err = f.auth.Login(ctx, domain.LoginRequest{Email: "a@b.com", Password: "newpass1"})
	assert.NoError(t, err)
}

func TestOAuthLogin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	existing := f.register(t, "a@b.com").User.ID

	linked, err := f.auth.OAuthLogin(ctx, &domain.ExternalIdentity{Subject: "g-1", Email: "A@b.com", EmailVerified: true})
	require.NoError(t, err)
	assert.Equal(t, existing, linked.User.ID)

	again, err := f.auth.OAuthLogin(ctx, &domain.ExternalIdentity{Subject: "g-1", Email: "changed@b.com"})
	require.NoError(t, err)
	assert.Equal(t, existing, again.User.ID)

	created, err := f.auth.OAuthLogin(ctx, &domain.ExternalIdentity{Subject: "g-2", Email: "new@b.com", EmailVerified: true, Name: "New Player"})
	require.NoError(t, err)
	assert.NotEqual(t, existing, created.User.ID)
	assert.Equal(t, "New Player", created.User.Username)

	_, err = f.auth.Login(ctx, domain.LoginRequest{Email: "new@b.com", Password: "anything"})
	assert.ErrorIs(t, err, ErrInvalidCredentials, "oauth-only accounts have no password")

	_, err = f.auth.OAuthLogin(ctx, &domain.ExternalIdentity{})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDeleteAccountCascade(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	resp := f.register(t, "a@b.com")
	userID := resp.User.ID

	for i := 0; i < 3; i++ {
		_, err := f.sessions.Start(ctx, userID, domain.SessionInput{BuyIn: f64(10)})
		require.NoError(t, err)
	}

	require.NoError(t, f.auth.DeleteAccount(ctx, userID))

	sessions, err := f.sessions.List(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, sessions)

	_, err = f.auth.Authenticate(ctx, resp.Token)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	assert.ErrorIs(t, f.auth.DeleteAccount(ctx, userID), ErrUserNotFound)
}
