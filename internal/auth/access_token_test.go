package auth

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-candy/internal/common"
	dbgen "github.com/noah-isme/backend-candy/internal/db/gen"
)

type fakeUsers struct {
	rows map[string]dbgen.User
}

func newFakeUsers(t *testing.T, email, password, role string) (*fakeUsers, dbgen.User) {
	t.Helper()
	hash, err := argon2id.CreateHash(password, &argon2id.Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})
	require.NoError(t, err)
	row := dbgen.User{
		ID:           pgtype.UUID{Bytes: uuid.New(), Valid: true},
		Name:         "Admin",
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}
	return &fakeUsers{rows: map[string]dbgen.User{email: row}}, row
}

func (f *fakeUsers) GetUserByEmail(_ context.Context, email string) (dbgen.User, error) {
	row, ok := f.rows[email]
	if !ok {
		return dbgen.User{}, pgx.ErrNoRows
	}
	return row, nil
}

func (f *fakeUsers) GetUser(_ context.Context, id pgtype.UUID) (dbgen.User, error) {
	for _, row := range f.rows {
		if row.ID == id {
			return row, nil
		}
	}
	return dbgen.User{}, pgx.ErrNoRows
}

func newTestService(t *testing.T, users UserStore) *Service {
	t.Helper()
	svc, err := NewService(Config{
		Users:          users,
		Secret:         "super-secret-key",
		AccessTokenTTL: time.Minute,
		Issuer:         "backend-candy",
		Audience:       "candy-admin",
	})
	require.NoError(t, err)
	return svc
}

func TestServiceParseAccessTokenSuccess(t *testing.T) {
	users, _ := newFakeUsers(t, "admin@example.com", "password1", common.RoleAdmin)
	svc := newTestService(t, users)
	fixed := time.Now()
	svc.WithNow(func() time.Time { return fixed })

	token, _, err := svc.signAccessToken("user-id", common.RoleAdmin)
	require.NoError(t, err)
	claims, err := svc.ParseAccessToken(token)
	require.NoError(t, err)
	require.Equal(t, "user-id", claims.Subject)
	require.Equal(t, common.RoleAdmin, claims.Role)
}

func TestServiceParseAccessTokenRejectsAlgorithmMismatch(t *testing.T) {
	users, _ := newFakeUsers(t, "admin@example.com", "password1", common.RoleAdmin)
	svc := newTestService(t, users)
	fixed := time.Now()
	svc.WithNow(func() time.Time { return fixed })

	built, err := jwt.NewBuilder().
		Subject("user-id").
		Issuer(svc.issuer).
		Audience([]string{svc.audience}).
		IssuedAt(fixed).
		Expiration(fixed.Add(svc.accessTTL)).
		Claim(roleClaim, common.RoleAdmin).
		Build()
	require.NoError(t, err)
	signed, err := jwt.Sign(built, jwt.WithKey(jwa.HS384, svc.secret))
	require.NoError(t, err)
	_, err = svc.ParseAccessToken(string(signed))
	require.Error(t, err)
}

func TestServiceParseAccessTokenExpired(t *testing.T) {
	users, _ := newFakeUsers(t, "admin@example.com", "password1", common.RoleAdmin)
	svc := newTestService(t, users)
	issued := time.Now().Add(-time.Hour)
	svc.WithNow(func() time.Time { return issued })
	token, _, err := svc.signAccessToken("user-id", common.RoleUser)
	require.NoError(t, err)

	svc.WithNow(time.Now)
	_, err = svc.ParseAccessToken(token)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, http.StatusUnauthorized, appErr.HTTPStatus)
}

func TestLoginIssuesRoleToken(t *testing.T) {
	users, row := newFakeUsers(t, "admin@example.com", "password1", common.RoleAdmin)
	svc := newTestService(t, users)

	res, err := svc.Login(context.Background(), " Admin@Example.com ", "password1")
	require.NoError(t, err)
	require.Equal(t, common.UUIDString(row.ID), res.User.ID)
	claims, err := svc.ParseAccessToken(res.AccessToken)
	require.NoError(t, err)
	require.Equal(t, res.User.ID, claims.Subject)
	require.Equal(t, common.RoleAdmin, claims.Role)

	me, err := svc.Me(context.Background(), claims.Subject)
	require.NoError(t, err)
	require.Equal(t, "admin@example.com", me.Email)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	users, _ := newFakeUsers(t, "admin@example.com", "password1", common.RoleAdmin)
	svc := newTestService(t, users)

	for _, tc := range []struct{ email, password string }{
		{"admin@example.com", "wrong"},
		{"ghost@example.com", "password1"},
		{"", ""},
	} {
		_, err := svc.Login(context.Background(), tc.email, tc.password)
		var appErr *common.AppError
		require.ErrorAs(t, err, &appErr)
		require.Equal(t, "INVALID_CREDENTIALS", appErr.Code)
	}
}
