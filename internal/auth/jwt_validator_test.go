package auth

import (
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-candy/internal/common"
)

func candyToken(t *testing.T, now time.Time, edit func(*jwt.Builder) *jwt.Builder) jwt.Token {
	t.Helper()
	b := jwt.NewBuilder().
		Issuer("candy-api").
		Audience([]string{"candy-admin"}).
		Subject("user-1").
		IssuedAt(now).
		NotBefore(now).
		Expiration(now.Add(15*time.Minute)).
		Claim(roleClaim, common.RoleUser)
	if edit != nil {
		b = edit(b)
	}
	tok, err := b.Build()
	require.NoError(t, err)
	return tok
}

func TestTokenValidator(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	v := TokenValidator{
		Issuer:    "candy-api",
		Audience:  "candy-admin",
		ClockSkew: 30 * time.Second,
		Algorithm: jwa.HS256,
		Roles:     []string{common.RoleUser, common.RoleAdmin},
		MaxAge:    time.Hour,
	}

	cases := []struct {
		name    string
		edit    func(*jwt.Builder) *jwt.Builder
		alg     jwa.SignatureAlgorithm
		wantErr bool
	}{
		{name: "valid", alg: jwa.HS256},
		{name: "admin role", alg: jwa.HS256, edit: func(b *jwt.Builder) *jwt.Builder {
			return b.Claim(roleClaim, common.RoleAdmin)
		}},
		{name: "wrong issuer", alg: jwa.HS256, wantErr: true, edit: func(b *jwt.Builder) *jwt.Builder {
			return b.Issuer("toko")
		}},
		{name: "wrong audience", alg: jwa.HS256, wantErr: true, edit: func(b *jwt.Builder) *jwt.Builder {
			return b.Audience([]string{"storefront"})
		}},
		{name: "expired", alg: jwa.HS256, wantErr: true, edit: func(b *jwt.Builder) *jwt.Builder {
			return b.Expiration(now.Add(-time.Minute))
		}},
		{name: "not yet valid", alg: jwa.HS256, wantErr: true, edit: func(b *jwt.Builder) *jwt.Builder {
			return b.NotBefore(now.Add(5 * time.Minute))
		}},
		{name: "algorithm mismatch", alg: jwa.RS256, wantErr: true},
		{name: "unknown role", alg: jwa.HS256, wantErr: true, edit: func(b *jwt.Builder) *jwt.Builder {
			return b.Claim(roleClaim, "superuser")
		}},
		{name: "older than max age", alg: jwa.HS256, wantErr: true, edit: func(b *jwt.Builder) *jwt.Builder {
			return b.IssuedAt(now.Add(-2 * time.Hour)).NotBefore(now.Add(-2 * time.Hour))
		}},
		{name: "missing subject", alg: jwa.HS256, wantErr: true, edit: func(b *jwt.Builder) *jwt.Builder {
			return b.Subject("")
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := v.Validate(candyToken(t, now, tc.edit), tc.alg, now)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestTokenValidatorRoleClaimRequired(t *testing.T) {
	now := time.Now()
	tok := candyToken(t, now, nil)
	require.NoError(t, tok.Remove(roleClaim))

	v := TokenValidator{Roles: []string{common.RoleUser}}
	require.Error(t, v.Validate(tok, jwa.HS256, now))

	// without a role policy the claim is optional
	require.NoError(t, TokenValidator{}.Validate(tok, jwa.HS256, now))
}
