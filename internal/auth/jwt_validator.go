package auth

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// TokenValidator checks a parsed access token against the service's
// issuing policy. Signature verification happens before Validate.
type TokenValidator struct {
	Issuer    string
	Audience  string
	ClockSkew time.Duration
	Algorithm jwa.SignatureAlgorithm
	// Roles, when set, makes the role claim mandatory and restricts its values.
	Roles []string
	// MaxAge rejects tokens issued longer ago than this, whatever their exp says.
	MaxAge time.Duration
}

func (v TokenValidator) Validate(tok jwt.Token, alg jwa.SignatureAlgorithm, now time.Time) error {
	switch {
	case tok == nil:
		return errors.New("auth: nil token")
	case alg == "":
		return errors.New("auth: token missing algorithm")
	case v.Algorithm != "" && alg != v.Algorithm:
		return fmt.Errorf("auth: unexpected token algorithm %s", alg)
	case tok.Subject() == "":
		return errors.New("auth: token missing subject")
	}

	opts := []jwt.ValidateOption{
		jwt.WithClock(jwt.ClockFunc(func() time.Time { return now })),
		jwt.WithAcceptableSkew(v.ClockSkew),
	}
	if v.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.Issuer))
	}
	if v.Audience != "" {
		opts = append(opts, jwt.WithAudience(v.Audience))
	}
	if len(v.Roles) > 0 {
		opts = append(opts, jwt.WithValidator(v.roleValidator()))
	}
	if v.MaxAge > 0 {
		opts = append(opts, jwt.WithValidator(v.ageValidator(now)))
	}
	return jwt.Validate(tok, opts...)
}

func (v TokenValidator) roleValidator() jwt.Validator {
	return jwt.ValidatorFunc(func(_ context.Context, tok jwt.Token) jwt.ValidationError {
		raw, ok := tok.Get(roleClaim)
		if !ok {
			return jwt.NewValidationError(fmt.Errorf("auth: token missing %q claim", roleClaim))
		}
		role, _ := raw.(string)
		if !slices.Contains(v.Roles, role) {
			return jwt.NewValidationError(fmt.Errorf("auth: unknown role %q", role))
		}
		return nil
	})
}

func (v TokenValidator) ageValidator(now time.Time) jwt.Validator {
	return jwt.ValidatorFunc(func(_ context.Context, tok jwt.Token) jwt.ValidationError {
		iat := tok.IssuedAt()
		if iat.IsZero() {
			return jwt.NewValidationError(errors.New("auth: token missing iat"))
		}
		if now.Sub(iat) > v.MaxAge+v.ClockSkew {
			return jwt.NewValidationError(fmt.Errorf("auth: token older than %s", v.MaxAge))
		}
		return nil
	})
}
