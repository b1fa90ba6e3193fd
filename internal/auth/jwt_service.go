package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	apperrors "namo/internal/errors"
)

// DefaultTokenTTL matches ACCESS_TOKEN_EXPIRE_MINUTES' default of one week.
const DefaultTokenTTL = 10080 * time.Minute

// Claims represents JWT claims. Subject carries the username.
type Claims struct {
	UserID *uint `json:"user_id,omitempty"`
	jwt.RegisteredClaims
}

// Identity is what a verified token asserts about its bearer.
type Identity struct {
	Username string
	UserID   uint
}

// JWTService handles JWT token generation and validation.
type JWTService struct {
	secret []byte
	method *jwt.SigningMethodHMAC
	ttl    time.Duration
	now    func() time.Time
}

// NewJWTService creates a JWT service. algorithm is one of HS256, HS384 or
// HS512; a non-positive ttl falls back to DefaultTokenTTL.
func NewJWTService(secret, algorithm string, ttl time.Duration) (*JWTService, error) {
	if secret == "" {
		return nil, fmt.Errorf("%w: token signing secret is empty", apperrors.ErrConfiguration)
	}

	var method *jwt.SigningMethodHMAC
	switch algorithm {
	case "", "HS256":
		method = jwt.SigningMethodHS256
	case "HS384":
		method = jwt.SigningMethodHS384
	case "HS512":
		method = jwt.SigningMethodHS512
	default:
		return nil, fmt.Errorf("%w: unsupported signing algorithm %q", apperrors.ErrConfiguration, algorithm)
	}

	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	return &JWTService{
		secret: []byte(secret),
		method: method,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// IssueToken signs a token for the user with the configured lifetime.
func (s *JWTService) IssueToken(username string, userID uint) (string, error) {
	return s.IssueTokenWithTTL(username, userID, s.ttl)
}

// IssueTokenWithTTL signs a token that expires ttl from now.
func (s *JWTService) IssueTokenWithTTL(username string, userID uint, ttl time.Duration) (string, error) {
	if len(s.secret) == 0 {
		return "", fmt.Errorf("%w: token signing secret is empty", apperrors.ErrConfiguration)
	}

	now := s.now()
	claims := &Claims{
		UserID: &userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(s.method, claims)
	return token.SignedString(s.secret)
}

// VerifyToken validates signature, structure, expiry and required claims.
// Every failure is reported as ErrAuthentication.
func (s *JWTService) VerifyToken(tokenString string) (*Identity, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{s.method.Alg()}))
	token, err := parser.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrAuthentication, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%w: invalid token", apperrors.ErrAuthentication)
	}
	if claims.ExpiresAt == nil {
		return nil, fmt.Errorf("%w: missing exp", apperrors.ErrAuthentication)
	}
	if claims.Subject == "" || claims.UserID == nil {
		return nil, fmt.Errorf("%w: missing sub or user_id", apperrors.ErrAuthentication)
	}

	return &Identity{Username: claims.Subject, UserID: *claims.UserID}, nil
}
