package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ViewerClaims are the bearer token claims of a feed viewer.
// the subject is the viewer's uuid.
type ViewerClaims struct {
	jwt.RegisteredClaims

	// role is the caller's role (e.g., "authenticated", "anon")
	Role string `json:"role,omitempty"`

	// session_id is the unique session identifier
	SessionID string `json:"session_id,omitempty"`
}

// ViewerID returns the subject claim.
func (c *ViewerClaims) ViewerID() string {
	return c.Subject
}

// IsAuthenticated returns true if the caller has an authenticated role.
// tokens without a role are treated as authenticated.
func (c *ViewerClaims) IsAuthenticated() bool {
	return c.Role == "" || c.Role == "authenticated"
}

// JWTValidator validates HMAC signed viewer tokens.
type JWTValidator struct {
	secret []byte
	now    func() time.Time
}

// NewJWTValidator creates a new validator with the shared jwt secret.
func NewJWTValidator(secret string) *JWTValidator {
	return &JWTValidator{
		secret: []byte(secret),
		now:    time.Now,
	}
}

// common jwt validation errors
var (
	ErrMissingToken     = errors.New("missing authorization token")
	ErrInvalidToken     = errors.New("invalid token format")
	ErrTokenExpired     = errors.New("token has expired")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrInvalidClaims    = errors.New("invalid token claims")
)

// ValidateToken parses and validates a viewer token.
// returns the claims if valid, or an error if validation fails.
func (v *JWTValidator) ValidateToken(tokenString string) (*ViewerClaims, error) {
	tokenString = strings.TrimSpace(ExtractBearerToken(tokenString))
	if tokenString == "" {
		return nil, ErrMissingToken
	}

	claims := &ViewerClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		// validate the signing method is HMAC
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithTimeFunc(v.now))

	if err != nil {
		// check for specific jwt errors
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		if errors.Is(err, jwt.ErrSignatureInvalid) {
			return nil, ErrInvalidSignature
		}
		if errors.Is(err, jwt.ErrTokenMalformed) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidClaims, err)
	}

	if !token.Valid {
		return nil, ErrInvalidToken
	}

	// validate essential claims
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject claim", ErrInvalidClaims)
	}
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return nil, fmt.Errorf("%w: subject is not a viewer id", ErrInvalidClaims)
	}
	if !claims.IsAuthenticated() {
		return nil, fmt.Errorf("%w: role %q cannot read feeds", ErrInvalidClaims, claims.Role)
	}

	return claims, nil
}

// IssueToken signs a token for viewerID valid for ttl.
// used by the dev token command and by tests.
func (v *JWTValidator) IssueToken(viewerID string, ttl time.Duration) (string, error) {
	now := v.now()
	claims := ViewerClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   viewerID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role: "authenticated",
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// ExtractBearerToken extracts the token from an Authorization header value.
func ExtractBearerToken(authHeader string) string {
	if authHeader == "" {
		return ""
	}
	// handle "Bearer <token>" format
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return authHeader
}
