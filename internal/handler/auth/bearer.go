package auth

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Bearer accepts "Bearer <token>" values whose JWT signature validates
// against key using one of validMethods, and — if predicate is non-nil —
// whose claims satisfy predicate. It supplements the spec's bundled Basic
// authenticator (SPEC_FULL §4.5.1); the underlying validation is grounded
// on the teacher's JWTMiddleware.
type Bearer struct {
	key          any
	validMethods []string
	predicate    func(jwt.MapClaims) bool
}

// NewBearer creates a Bearer authenticator that accepts any token whose
// signature validates, regardless of claims.
func NewBearer(key any, validMethods []string) *Bearer {
	return &Bearer{key: key, validMethods: validMethods}
}

// NewBearerWithClaims creates a Bearer authenticator that additionally
// requires predicate(claims) to return true.
func NewBearerWithClaims(key any, validMethods []string, predicate func(jwt.MapClaims) bool) *Bearer {
	return &Bearer{key: key, validMethods: validMethods, predicate: predicate}
}

// NewBearerHMAC is a convenience constructor for the common case of an
// HS256-signed token validated against a shared secret.
func NewBearerHMAC(secret []byte) *Bearer {
	return NewBearer(secret, []string{"HS256"})
}

func (b *Bearer) Accepts(headerValue string) bool {
	scheme, tokenStr, ok := strings.Cut(headerValue, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || tokenStr == "" {
		return false
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		return b.key, nil
	}, jwt.WithValidMethods(b.validMethods))
	if err != nil || !token.Valid {
		return false
	}

	if b.predicate != nil {
		return b.predicate(claims)
	}
	return true
}
