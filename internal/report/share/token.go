package share

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/plagscan/plagscan-dashboard/pkg/config"
	apperrors "github.com/plagscan/plagscan-dashboard/pkg/errors"
)

// Claims are the claims carried by a share token
type Claims struct {
	jwt.RegisteredClaims
	SnapshotID string `json:"snapshot_id"`
}

// Token is an issued share link token
type Token struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Manager signs and validates share tokens
type Manager struct {
	config *config.JWTConfig
	now    func() time.Time
}

// NewManager creates a new share token manager
func NewManager(cfg *config.JWTConfig) *Manager {
	return &Manager{config: cfg, now: time.Now}
}

// Issue signs a token pointing at a stored snapshot
func (m *Manager) Issue(snapshotID string) (*Token, error) {
	now := m.now()
	expiry := now.Add(m.config.ShareExpiry)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.config.Issuer,
			Subject:   snapshotID,
			ExpiresAt: jwt.NewNumericDate(expiry),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.New().String(),
		},
		SnapshotID: snapshotID,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(m.config.Secret))
	if err != nil {
		return nil, err
	}

	return &Token{Token: signed, ExpiresAt: expiry}, nil
}

// Parse validates a share token and returns its claims
func (m *Manager) Parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperrors.Unauthorized("invalid share link")
		}
		return []byte(m.config.Secret), nil
	},
		jwt.WithIssuer(m.config.Issuer),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.Unauthorized("share link expired")
		}
		return nil, apperrors.Unauthorized("invalid share link")
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.SnapshotID == "" {
		return nil, apperrors.Unauthorized("invalid share link")
	}

	return claims, nil
}
