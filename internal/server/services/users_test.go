package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/projectgate/internal/common"
	"github.com/dmitrijs2005/projectgate/internal/logging"
	"github.com/dmitrijs2005/projectgate/internal/server/auth"
	"github.com/dmitrijs2005/projectgate/internal/server/denylist"
	"github.com/dmitrijs2005/projectgate/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret"

type testEnv struct {
	svc    *UserService
	users  *fakeUsersRepo
	hasher *auth.Hasher
	mock   sqlmock.Sqlmock
	db     *sql.DB
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	hasher, err := auth.NewHasher(auth.SchemeBcrypt, bcrypt.MinCost)
	require.NoError(t, err)
	codec, err := auth.NewTokenCodec(testSecret, "HS256", 30*time.Minute)
	require.NoError(t, err)

	u := newFakeUsersRepo()
	rm := &fakeRepoManager{u: u, p: newFakeProjectsRepo()}

	svc, err := NewUserService(db, rm, hasher, codec, denylist.NewMemory(), logging.Nop{})
	require.NoError(t, err)

	return &testEnv{svc: svc, users: u, hasher: hasher, mock: mock, db: db}
}

func (e *testEnv) addUser(t *testing.T, name, password, role string) *models.User {
	t.Helper()
	digest, err := e.hasher.Hash(password)
	require.NoError(t, err)
	return e.users.put(models.User{UserName: name, PasswordHash: digest, Role: role})
}

func TestSignup_IssuesTokenForNewUser(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	tok, err := e.svc.Signup(ctx, "alice", "pw1")
	require.NoError(t, err)
	assert.Equal(t, "bearer", tok.TokenType)
	assert.NotEmpty(t, tok.AccessToken)

	u, err := e.svc.ResolveCurrentUser(ctx, tok.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "alice", u.UserName)
	assert.Equal(t, common.RoleUser, u.Role)

	stored, _ := e.users.GetUserByUsername(ctx, "alice")
	assert.NotEqual(t, "pw1", stored.PasswordHash)
	assert.True(t, e.hasher.Verify("pw1", stored.PasswordHash))
}

func TestSignup_RoleIsAlwaysUser(t *testing.T) {
	e := newTestEnv(t)

	tok, err := e.svc.Signup(context.Background(), "mallory", "pw")
	require.NoError(t, err)

	u, err := e.svc.ResolveCurrentUser(context.Background(), tok.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, common.RoleUser, u.Role)
}

func TestSignup_Duplicate(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	_, err := e.svc.Signup(ctx, "alice", "pw1")
	require.NoError(t, err)

	_, err = e.svc.Signup(ctx, "alice", "other")
	assert.ErrorIs(t, err, common.ErrDuplicateUsername)

	// original account untouched
	_, err = e.svc.Login(ctx, "alice", "pw1")
	assert.NoError(t, err)
	_, err = e.svc.Login(ctx, "alice", "other")
	assert.ErrorIs(t, err, common.ErrInvalidCredentials)
}

func TestSignup_ConcurrentUniqueViolation(t *testing.T) {
	e := newTestEnv(t)
	e.users.createErr = common.ErrDuplicateUsername

	_, err := e.svc.Signup(context.Background(), "alice", "pw")
	assert.ErrorIs(t, err, common.ErrDuplicateUsername)
}

func TestSignup_Validation(t *testing.T) {
	e := newTestEnv(t)

	cases := []struct {
		name, username, password string
	}{
		{"empty username", "", "pw"},
		{"empty password", "alice", ""},
		{"long username", string(make([]byte, 65)), "pw"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.svc.Signup(context.Background(), tc.username, tc.password)
			assert.ErrorIs(t, err, common.ErrValidation)
		})
	}
	assert.Zero(t, e.users.createCalls)
}

func TestSignup_StoreError(t *testing.T) {
	e := newTestEnv(t)
	e.users.getErr = errors.New("db down")

	_, err := e.svc.Signup(context.Background(), "alice", "pw")
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrDuplicateUsername)
	assert.Zero(t, e.users.createCalls)
}

func TestLogin(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	e.addUser(t, "bob", "secret", common.RoleAdmin)

	tok, err := e.svc.Login(ctx, "bob", "secret")
	require.NoError(t, err)

	u, err := e.svc.ResolveCurrentUser(ctx, tok.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, common.RoleAdmin, u.Role)

	ttl := time.Until(tok.ExpiresAt)
	assert.InDelta(t, (30 * time.Minute).Seconds(), ttl.Seconds(), 5)
}

func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	e := newTestEnv(t)
	e.addUser(t, "bob", "secret", common.RoleUser)

	_, errWrong := e.svc.Login(context.Background(), "bob", "nope")
	_, errMissing := e.svc.Login(context.Background(), "ghost", "secret")

	assert.ErrorIs(t, errWrong, common.ErrInvalidCredentials)
	assert.ErrorIs(t, errMissing, common.ErrInvalidCredentials)
	assert.Equal(t, errWrong.Error(), errMissing.Error())
}

func TestLogin_StoreError(t *testing.T) {
	e := newTestEnv(t)
	e.users.getErr = errors.New("db down")

	_, err := e.svc.Login(context.Background(), "bob", "secret")
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrInvalidCredentials)
}

func TestResolveCurrentUser_TokenFailures(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	e.addUser(t, "alice", "pw", common.RoleUser)

	tok, err := e.svc.Login(ctx, "alice", "pw")
	require.NoError(t, err)
	_, err = e.svc.ResolveCurrentUser(ctx, tok.AccessToken)
	require.NoError(t, err)

	past, err := auth.NewTokenCodec(testSecret, "HS256", 30*time.Minute)
	require.NoError(t, err)
	expired, _, err := past.WithClock(func() time.Time { return time.Now().Add(-time.Hour) }).Issue("alice", common.RoleUser)
	require.NoError(t, err)

	foreign, err := auth.NewTokenCodec("other-secret", "HS256", 30*time.Minute)
	require.NoError(t, err)
	forged, _, err := foreign.Issue("alice", common.RoleAdmin)
	require.NoError(t, err)

	cases := []struct {
		name  string
		token string
		tag   error
	}{
		{"garbage", "not-a-token", common.ErrTokenMalformed},
		{"wrong secret", forged, common.ErrTokenSignature},
		{"expired", expired, common.ErrTokenExpired},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.svc.ResolveCurrentUser(ctx, tc.token)
			assert.ErrorIs(t, err, common.ErrUnauthenticated)
			assert.ErrorIs(t, err, tc.tag)
		})
	}
}

func TestResolveCurrentUser_UnknownSubject(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	tok, err := e.svc.Signup(ctx, "alice", "pw")
	require.NoError(t, err)
	delete(e.users.byName, "alice")

	_, err = e.svc.ResolveCurrentUser(ctx, tok.AccessToken)
	assert.ErrorIs(t, err, common.ErrUnauthenticated)
}

func TestResolveCurrentUser_RoleFromStore(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	tok, err := e.svc.Signup(ctx, "alice", "pw")
	require.NoError(t, err)
	e.users.byName["alice"].Role = common.RoleAdmin

	u, err := e.svc.ResolveCurrentUser(ctx, tok.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, common.RoleAdmin, u.Role)
}

func TestLogout_RevokesToken(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	tok, err := e.svc.Signup(ctx, "alice", "pw")
	require.NoError(t, err)

	require.NoError(t, e.svc.Logout(ctx, tok.AccessToken))

	_, err = e.svc.ResolveCurrentUser(ctx, tok.AccessToken)
	assert.ErrorIs(t, err, common.ErrUnauthenticated)
	assert.ErrorIs(t, err, common.ErrTokenRevoked)

	// a fresh login still works
	tok2, err := e.svc.Login(ctx, "alice", "pw")
	require.NoError(t, err)
	_, err = e.svc.ResolveCurrentUser(ctx, tok2.AccessToken)
	assert.NoError(t, err)

	assert.ErrorIs(t, e.svc.Logout(ctx, tok.AccessToken), common.ErrUnauthenticated)
}

func TestSetRole(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	admin := e.addUser(t, "root", "pw", common.RoleAdmin)
	e.addUser(t, "alice", "pw", common.RoleUser)

	e.mock.ExpectBegin()
	e.mock.ExpectCommit()

	u, err := e.svc.SetRole(ctx, admin, "alice", common.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, common.RoleAdmin, u.Role)
	assert.NoError(t, e.mock.ExpectationsWereMet())
}

func TestSetRole_NonAdminForbidden(t *testing.T) {
	e := newTestEnv(t)
	alice := e.addUser(t, "alice", "pw", common.RoleUser)

	_, err := e.svc.SetRole(context.Background(), alice, "alice", common.RoleAdmin)
	assert.ErrorIs(t, err, common.ErrForbidden)
	assert.Equal(t, common.RoleUser, e.users.byName["alice"].Role)
	assert.NoError(t, e.mock.ExpectationsWereMet())
}

func TestSetRole_NotFound(t *testing.T) {
	e := newTestEnv(t)
	admin := e.addUser(t, "root", "pw", common.RoleAdmin)

	e.mock.ExpectBegin()
	e.mock.ExpectRollback()

	_, err := e.svc.SetRole(context.Background(), admin, "ghost", common.RoleAdmin)
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.NoError(t, e.mock.ExpectationsWereMet())
}

func TestSetRole_EmptyRole(t *testing.T) {
	e := newTestEnv(t)
	admin := e.addUser(t, "root", "pw", common.RoleAdmin)

	_, err := e.svc.SetRole(context.Background(), admin, "root", "")
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestSetRole_LastAdminCannotBeDemoted(t *testing.T) {
	e := newTestEnv(t)
	admin := e.addUser(t, "root", "pw", common.RoleAdmin)

	e.mock.ExpectBegin()
	e.mock.ExpectRollback()

	_, err := e.svc.SetRole(context.Background(), admin, "root", common.RoleUser)
	assert.ErrorIs(t, err, common.ErrValidation)
	assert.NoError(t, e.mock.ExpectationsWereMet())
}

func TestSetRole_TakesRoleLockFirst(t *testing.T) {
	e := newTestEnv(t)
	admin := e.addUser(t, "root", "pw", common.RoleAdmin)
	e.addUser(t, "bob", "pw", common.RoleAdmin)

	e.mock.ExpectBegin()
	e.mock.ExpectCommit()

	_, err := e.svc.SetRole(context.Background(), admin, "bob", common.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, []string{"lock", "update", "has_admin"}, e.users.ops)
	assert.NoError(t, e.mock.ExpectationsWereMet())
}

func TestSetRole_LockError(t *testing.T) {
	e := newTestEnv(t)
	admin := e.addUser(t, "root", "pw", common.RoleAdmin)
	e.addUser(t, "bob", "pw", common.RoleAdmin)
	e.users.lockErr = errors.New("db down")

	e.mock.ExpectBegin()
	e.mock.ExpectRollback()

	_, err := e.svc.SetRole(context.Background(), admin, "bob", common.RoleUser)
	assert.Error(t, err)
	assert.Equal(t, []string{"lock"}, e.users.ops)
	assert.Equal(t, common.RoleAdmin, e.users.byName["bob"].Role)
	assert.NoError(t, e.mock.ExpectationsWereMet())
}

func TestBootstrapAdmin_CreatesOnce(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	e.mock.ExpectBegin()
	e.mock.ExpectCommit()
	e.mock.ExpectBegin()
	e.mock.ExpectCommit()

	created, err := e.svc.BootstrapAdmin(ctx, "root", "rootpw")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = e.svc.BootstrapAdmin(ctx, "root", "rootpw")
	require.NoError(t, err)
	assert.False(t, created)

	tok, err := e.svc.Login(ctx, "root", "rootpw")
	require.NoError(t, err)
	u, err := e.svc.ResolveCurrentUser(ctx, tok.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, common.RoleAdmin, u.Role)
	assert.NoError(t, e.mock.ExpectationsWereMet())
}

func TestBootstrapAdmin_PromotesExisting(t *testing.T) {
	e := newTestEnv(t)
	e.addUser(t, "root", "oldpw", common.RoleUser)

	e.mock.ExpectBegin()
	e.mock.ExpectCommit()

	created, err := e.svc.BootstrapAdmin(context.Background(), "root", "rootpw")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, []string{"lock", "has_admin", "update"}, e.users.ops)
	assert.Equal(t, common.RoleAdmin, e.users.byName["root"].Role)
	assert.True(t, e.hasher.Verify("oldpw", e.users.byName["root"].PasswordHash))
}

func TestBootstrapAdmin_Disabled(t *testing.T) {
	e := newTestEnv(t)

	created, err := e.svc.BootstrapAdmin(context.Background(), "", "")
	require.NoError(t, err)
	assert.False(t, created)
	assert.NoError(t, e.mock.ExpectationsWereMet())
}

func TestBootstrapAdmin_StoreError(t *testing.T) {
	e := newTestEnv(t)
	e.users.hasAdminErr = errors.New("db down")

	e.mock.ExpectBegin()
	e.mock.ExpectRollback()

	created, err := e.svc.BootstrapAdmin(context.Background(), "root", "rootpw")
	assert.Error(t, err)
	assert.False(t, created)
}
