package auth_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/contactbook/backend/internal/adapters/transport/http/dto"
	appauth "github.com/contactbook/backend/internal/app/auth"
	"github.com/contactbook/backend/internal/app/token"
	customErrors "github.com/contactbook/backend/internal/domain/errors"
	"github.com/contactbook/backend/internal/domain/model"
	"github.com/contactbook/backend/internal/infra/config"
	"github.com/contactbook/backend/internal/infra/validation"
)

/* ─────────────────────────────── stubs ─────────────────────────────── */

type userRepoStub struct {
	mu     sync.Mutex
	nextID uint
	users  map[string]*model.User // by username
}

func newUserRepoStub() *userRepoStub {
	return &userRepoStub{users: make(map[string]*model.User)}
}

func (s *userRepoStub) CreateUser(_ context.Context, u model.User) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.users {
		if v.Username == u.Username || v.Email == u.Email {
			return model.User{}, customErrors.ErrAlreadyExists
		}
	}
	s.nextID++
	u.ID = s.nextID
	s.users[u.Username] = &u
	return u, nil
}

func (s *userRepoStub) GetUserByID(_ context.Context, id uint) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.users {
		if v.ID == id {
			return *v, nil
		}
	}
	return model.User{}, customErrors.ErrNotFound
}

func (s *userRepoStub) GetUserByUsername(_ context.Context, username string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.users[username]; ok {
		return *v, nil
	}
	return model.User{}, customErrors.ErrNotFound
}

func (s *userRepoStub) GetUserByEmail(_ context.Context, email string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.users {
		if v.Email == email {
			return *v, nil
		}
	}
	return model.User{}, customErrors.ErrNotFound
}

func (s *userRepoStub) SetRefreshToken(_ context.Context, id uint, tok string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.users {
		if v.ID == id {
			v.RefreshToken = tok
			return nil
		}
	}
	return customErrors.ErrNotFound
}

func (s *userRepoStub) SetPasswordHash(_ context.Context, id uint, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.users {
		if v.ID == id {
			v.PasswordHash = hash
			return nil
		}
	}
	return customErrors.ErrNotFound
}

func (s *userRepoStub) ConfirmEmail(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.users {
		if v.Email == email {
			v.Confirmed = true
			return nil
		}
	}
	return customErrors.ErrNotFound
}

func (s *userRepoStub) SetAvatar(_ context.Context, email, url string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.users {
		if v.Email == email {
			v.Avatar = url
			return *v, nil
		}
	}
	return model.User{}, customErrors.ErrNotFound
}

func (s *userRepoStub) UpdateIdentity(_ context.Context, id uint, username, email string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for oldUsername, v := range s.users {
		if v.ID != id {
			continue
		}
		if email != "" {
			for _, other := range s.users {
				if other.ID != id && other.Email == email {
					return model.User{}, customErrors.ErrAlreadyExists
				}
			}
			v.Email = email
		}
		if username != "" {
			if other, taken := s.users[username]; taken && other.ID != id {
				return model.User{}, customErrors.ErrAlreadyExists
			}
			delete(s.users, oldUsername)
			v.Username = username
			s.users[username] = v
		}
		return *v, nil
	}
	return model.User{}, customErrors.ErrNotFound
}

func (s *userRepoStub) SetRole(_ context.Context, id uint, role model.Role) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.users {
		if v.ID == id {
			v.Role = role
			return *v, nil
		}
	}
	return model.User{}, customErrors.ErrNotFound
}

type cacheStub struct {
	mu      sync.Mutex
	entries map[string]model.Profile
	getErr  error
	setErr  error
	gets    int
	sets    int
}

func newCacheStub() *cacheStub {
	return &cacheStub{entries: make(map[string]model.Profile)}
}

func (c *cacheStub) Get(_ context.Context, username string) (model.Profile, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.getErr != nil {
		return model.Profile{}, false, c.getErr
	}
	p, ok := c.entries[username]
	return p, ok, nil
}

func (c *cacheStub) Set(_ context.Context, p model.Profile, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	if c.setErr != nil {
		return c.setErr
	}
	c.entries[p.Username] = p
	return nil
}

func (c *cacheStub) Delete(_ context.Context, username string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, username)
	return nil
}

type mailerStub struct {
	mu    sync.Mutex
	sends []string // templateName
}

func (m *mailerStub) Send(_ context.Context, _, templateName string, _ map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sends = append(m.sends, templateName)
	return nil
}

func (m *mailerStub) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sends)
}

/* ───────────────────────────── helpers ───────────────────────────── */

type fixture struct {
	svc    appauth.Service
	users  *userRepoStub
	cache  *cacheStub
	mailer *mailerStub
	codec  *token.Codec
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	codec, err := token.NewCodec(&config.Config{
		JWTSecret:       "test-secret",
		JWTAlgorithm:    "HS256",
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: time.Hour,
	})
	require.NoError(t, err)

	users := newUserRepoStub()
	cache := newCacheStub()
	mailer := &mailerStub{}
	svc := appauth.New(users, cache, mailer, codec, validation.New(), zap.NewNop(), "http://localhost:8080")
	return &fixture{svc: svc, users: users, cache: cache, mailer: mailer, codec: codec}
}

func (f *fixture) register(t *testing.T, confirmed bool) model.Profile {
	t.Helper()
	p, err := f.svc.Register(context.Background(), dto.RegisterDTO{
		Username: "agent008",
		Email:    "agent008@gmail.com",
		Password: "12345678",
	})
	require.NoError(t, err)
	if confirmed {
		require.NoError(t, f.users.ConfirmEmail(context.Background(), p.Email))
	}
	return p
}

/* ────────────────────────────── tests ────────────────────────────── */

func TestRegister(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := f.register(t, false)
	require.Equal(t, "agent008", p.Username)
	require.Equal(t, model.RoleUser, p.Role)
	require.NotEmpty(t, p.Avatar)

	u, err := f.users.GetUserByUsername(ctx, "agent008")
	require.NoError(t, err)
	require.False(t, u.Confirmed)
	require.NotEqual(t, "12345678", u.PasswordHash)

	// confirmation mail goes out asynchronously
	require.Eventually(t, func() bool { return f.mailer.count() == 1 },
		time.Second, 10*time.Millisecond)

	// duplicate email
	_, err = f.svc.Register(ctx, dto.RegisterDTO{
		Username: "other", Email: "agent008@gmail.com", Password: "12345678",
	})
	require.True(t, customErrors.IsAlreadyExists(err))

	// duplicate username
	_, err = f.svc.Register(ctx, dto.RegisterDTO{
		Username: "agent008", Email: "other@gmail.com", Password: "12345678",
	})
	require.True(t, customErrors.IsAlreadyExists(err))
}

func TestRegister_Validation(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Register(context.Background(), dto.RegisterDTO{
		Username: "agent008", Email: "not-an-email", Password: "12345678",
	})
	require.True(t, customErrors.IsInvalidArgument(err))

	_, err = f.svc.Register(context.Background(), dto.RegisterDTO{
		Username: "agent008", Email: "agent008@gmail.com", Password: "short",
	})
	require.True(t, customErrors.IsInvalidArgument(err))
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.register(t, true)

	pair, err := f.svc.Login(ctx, dto.LoginDTO{Username: "agent008", Password: "12345678"})
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.Equal(t, "bearer", pair.TokenType)

	u, _ := f.users.GetUserByUsername(ctx, "agent008")
	require.Equal(t, pair.RefreshToken, u.RefreshToken)
}

func TestLogin_Failures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// unknown user and wrong password are indistinguishable
	_, err := f.svc.Login(ctx, dto.LoginDTO{Username: "ghost", Password: "12345678"})
	require.True(t, customErrors.IsInvalidCredentials(err))

	f.register(t, false)

	_, err = f.svc.Login(ctx, dto.LoginDTO{Username: "agent008", Password: "wrongpass1"})
	require.True(t, customErrors.IsInvalidCredentials(err))

	// correct password but unconfirmed email
	_, err = f.svc.Login(ctx, dto.LoginDTO{Username: "agent008", Password: "12345678"})
	require.True(t, customErrors.IsEmailNotConfirmed(err))
}

func TestRefresh(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.register(t, true)
	pair, err := f.svc.Login(ctx, dto.LoginDTO{Username: "agent008", Password: "12345678"})
	require.NoError(t, err)

	got, err := f.svc.Refresh(ctx, dto.RefreshDTO{RefreshToken: pair.RefreshToken})
	require.NoError(t, err)
	require.NotEmpty(t, got.AccessToken)
	// the refresh token is echoed back unrotated
	require.Equal(t, pair.RefreshToken, got.RefreshToken)
}

func TestRefresh_Fabricated(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Refresh(context.Background(), dto.RefreshDTO{RefreshToken: "fabricated"})
	require.True(t, customErrors.IsInvalidToken(err))
}

func TestRefresh_AccessTokenRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.register(t, true)
	pair, err := f.svc.Login(ctx, dto.LoginDTO{Username: "agent008", Password: "12345678"})
	require.NoError(t, err)

	// token confusion: an access token must not redeem as refresh
	_, err = f.svc.Refresh(ctx, dto.RefreshDTO{RefreshToken: pair.AccessToken})
	require.True(t, customErrors.IsInvalidToken(err))
}

func TestRefresh_StaleAfterSecondLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.register(t, true)
	first, err := f.svc.Login(ctx, dto.LoginDTO{Username: "agent008", Password: "12345678"})
	require.NoError(t, err)

	// tokens embed second-resolution timestamps; make sure the second
	// login produces a distinct token so the slot actually changes
	time.Sleep(1100 * time.Millisecond)

	second, err := f.svc.Login(ctx, dto.LoginDTO{Username: "agent008", Password: "12345678"})
	require.NoError(t, err)
	require.NotEqual(t, first.RefreshToken, second.RefreshToken)

	_, err = f.svc.Refresh(ctx, dto.RefreshDTO{RefreshToken: first.RefreshToken})
	require.True(t, customErrors.IsInvalidToken(err))

	_, err = f.svc.Refresh(ctx, dto.RefreshDTO{RefreshToken: second.RefreshToken})
	require.NoError(t, err)
}

func TestCurrentUser_CacheTransparency(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.register(t, true)
	access, err := f.codec.Issue("agent008", token.PurposeAccess)
	require.NoError(t, err)

	// first call misses and populates the cache
	miss, err := f.svc.CurrentUser(ctx, access)
	require.NoError(t, err)
	require.Equal(t, 1, f.cache.sets)

	// second call hits; data must be identical
	hit, err := f.svc.CurrentUser(ctx, access)
	require.NoError(t, err)
	require.Equal(t, miss, hit)
	require.Equal(t, 1, f.cache.sets)
}

func TestCurrentUser_CacheFailOpen(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.register(t, true)
	f.cache.getErr = errors.New("redis down")
	f.cache.setErr = errors.New("redis down")

	access, err := f.codec.Issue("agent008", token.PurposeAccess)
	require.NoError(t, err)

	p, err := f.svc.CurrentUser(ctx, access)
	require.NoError(t, err)
	require.Equal(t, "agent008", p.Username)
}

func TestCurrentUser_TokenFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.register(t, true)

	_, err := f.svc.CurrentUser(ctx, "garbage")
	require.True(t, customErrors.IsUnauthorized(err))

	expired, err := f.codec.IssueWithTTL("agent008", token.PurposeAccess, -time.Minute)
	require.NoError(t, err)
	_, err = f.svc.CurrentUser(ctx, expired)
	require.True(t, customErrors.IsExpiredToken(err))

	// refresh token presented as access token
	refresh, err := f.codec.Issue("agent008", token.PurposeRefresh)
	require.NoError(t, err)
	_, err = f.svc.CurrentUser(ctx, refresh)
	require.True(t, customErrors.IsUnauthorized(err))

	// valid token for a user that no longer exists
	ghost, err := f.codec.Issue("ghost", token.PurposeAccess)
	require.NoError(t, err)
	_, err = f.svc.CurrentUser(ctx, ghost)
	require.True(t, customErrors.IsUnauthorized(err))
}

func TestRequireRole(t *testing.T) {
	f := newFixture(t)

	user := model.Profile{Role: model.RoleUser}
	admin := model.Profile{Role: model.RoleAdmin}

	require.NoError(t, f.svc.RequireRole(admin, model.RoleAdmin))
	err := f.svc.RequireRole(user, model.RoleAdmin)
	require.True(t, customErrors.IsForbidden(err))
}

func TestConfirmEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.register(t, false)
	confirm, err := f.codec.Issue("agent008@gmail.com", token.PurposeEmailConfirm)
	require.NoError(t, err)

	flipped, err := f.svc.ConfirmEmail(ctx, confirm)
	require.NoError(t, err)
	require.True(t, flipped)

	u, _ := f.users.GetUserByUsername(ctx, "agent008")
	require.True(t, u.Confirmed)

	// idempotent on redemption of the same token
	flipped, err = f.svc.ConfirmEmail(ctx, confirm)
	require.NoError(t, err)
	require.False(t, flipped)
}

func TestConfirmEmail_BadToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.ConfirmEmail(ctx, "garbage")
	require.True(t, customErrors.IsUnprocessableToken(err))

	// a reset token must not confirm an email
	f.register(t, false)
	reset, err := f.codec.Issue("agent008@gmail.com", token.PurposePasswordReset)
	require.NoError(t, err)
	_, err = f.svc.ConfirmEmail(ctx, reset)
	require.True(t, customErrors.IsUnprocessableToken(err))
}

func TestResendConfirmation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.register(t, false)
	require.Eventually(t, func() bool { return f.mailer.count() == 1 },
		time.Second, 10*time.Millisecond)

	require.NoError(t, f.svc.ResendConfirmation(ctx, "agent008@gmail.com"))
	require.Eventually(t, func() bool { return f.mailer.count() == 2 },
		time.Second, 10*time.Millisecond)

	// already confirmed: nothing more goes out
	require.NoError(t, f.users.ConfirmEmail(ctx, "agent008@gmail.com"))
	require.NoError(t, f.svc.ResendConfirmation(ctx, "agent008@gmail.com"))

	// unknown address: silent no-op
	require.NoError(t, f.svc.ResendConfirmation(ctx, "ghost@gmail.com"))

	time.Sleep(50 * time.Millisecond)
	require.Equal(t, 2, f.mailer.count())
}

func TestResetPassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.register(t, true)
	require.NoError(t, f.svc.RequestPasswordReset(ctx, "agent008@gmail.com"))
	require.Eventually(t, func() bool { return f.mailer.count() == 2 }, // register + reset
		time.Second, 10*time.Millisecond)

	reset, err := f.codec.Issue("agent008@gmail.com", token.PurposePasswordReset)
	require.NoError(t, err)

	require.NoError(t, f.svc.ResetPassword(ctx, dto.ResetPasswordDTO{
		Token: reset, Password: "newpass123",
	}))

	_, err = f.svc.Login(ctx, dto.LoginDTO{Username: "agent008", Password: "12345678"})
	require.True(t, customErrors.IsInvalidCredentials(err))
	_, err = f.svc.Login(ctx, dto.LoginDTO{Username: "agent008", Password: "newpass123"})
	require.NoError(t, err)
}

func TestResetPassword_ExpiredTokenLeavesCredential(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.register(t, true)
	before, _ := f.users.GetUserByUsername(ctx, "agent008")

	expired, err := f.codec.IssueWithTTL("agent008@gmail.com", token.PurposePasswordReset, -time.Minute)
	require.NoError(t, err)

	err = f.svc.ResetPassword(ctx, dto.ResetPasswordDTO{Token: expired, Password: "newpass123"})
	require.True(t, customErrors.IsInvalidToken(err))

	after, _ := f.users.GetUserByUsername(ctx, "agent008")
	require.Equal(t, before.PasswordHash, after.PasswordHash)
}

func TestResetPassword_AccessTokenRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.register(t, true)
	access, err := f.codec.Issue("agent008@gmail.com", token.PurposeAccess)
	require.NoError(t, err)

	err = f.svc.ResetPassword(ctx, dto.ResetPasswordDTO{Token: access, Password: "newpass123"})
	require.True(t, customErrors.IsInvalidToken(err))
}

func TestRequestPasswordReset_UnknownAddress(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.svc.RequestPasswordReset(context.Background(), "ghost@gmail.com"))
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, 0, f.mailer.count())
}
