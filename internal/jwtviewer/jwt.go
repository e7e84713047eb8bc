package jwtviewer

import (
	"errors"
	"time"

	dErrors "canvass/pkg/domain-errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"canvass/internal/voter/models"
)

// Claims represents the JWT claims for campaign access tokens
type Claims struct {
	UserID        string `json:"user_id"`
	Role          string `json:"role"`
	AreaID        string `json:"area_id,omitempty"`
	CityID        string `json:"city_id,omitempty"`
	CoordinatorID string `json:"coordinator_id,omitempty"`
	jwt.RegisteredClaims
}

// JWTService handles JWT creation and validation
type JWTService struct {
	signingKey []byte
	issuer     string
	audience   string
}

func NewJWTService(signingKey string, issuer string, audience string) *JWTService {
	return &JWTService{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		audience:   audience,
	}
}

func (s *JWTService) GenerateToken(viewer models.Viewer, expiresIn time.Duration) (string, error) {
	newToken := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID:        viewer.UserID,
		Role:          string(viewer.Role),
		AreaID:        viewer.AreaID,
		CityID:        viewer.CityID,
		CoordinatorID: viewer.CoordinatorID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    s.issuer,
			Audience:  []string{s.audience},
			ID:        uuid.NewString(),
		},
	})

	signedToken, err := newToken.SignedString(s.signingKey)
	if err != nil {
		return "", err
	}
	return signedToken, nil
}

func (s *JWTService) ValidateToken(tokenString string) (*models.Viewer, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	if !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}

	role := models.Role(claims.Role)
	if !models.ValidRole(role) {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "unknown role in token")
	}

	return &models.Viewer{
		UserID:        claims.UserID,
		Role:          role,
		AreaID:        claims.AreaID,
		CityID:        claims.CityID,
		CoordinatorID: claims.CoordinatorID,
	}, nil
}
