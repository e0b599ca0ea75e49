package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"staff-quiz/internal/config"
	"staff-quiz/internal/domain"
	"staff-quiz/internal/dto"
	"staff-quiz/internal/logger"
	"staff-quiz/internal/validation"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

var ErrInvalidJWTToken = errors.New("invalid jwt token")

// attemptAudience marks attempt tokens so they are never accepted as bearer tokens.
const attemptAudience = "attempt"

// TokenService verifies staff tokens issued by the sign-in service and signs
// the attempt tokens handed out when an attempt starts.
type TokenService interface {
	ValidateStaffToken(ctx context.Context, tokenString string) (*dto.StaffClaims, error)
	IssueStaffToken(claims dto.StaffClaims, ttl time.Duration) (string, error)
	IssueAttemptToken(session *domain.AttemptSession) (string, error)
	ParseAttemptToken(tokenString string) (*dto.AttemptClaims, error)
}

type tokenServiceImpl struct {
	secret []byte
	issuer string
	clock  domain.Clock
}

func NewTokenService(cfg config.JWTConfig, clock domain.Clock) (TokenService, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("jwt secret key is not configured")
	}
	return &tokenServiceImpl{secret: []byte(cfg.SecretKey), issuer: cfg.Issuer, clock: clock}, nil
}

func (s *tokenServiceImpl) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return s.secret, nil
}

func (s *tokenServiceImpl) parserOptions() []jwt.ParserOption {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.clock.Now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}
	return opts
}

func (s *tokenServiceImpl) ValidateStaffToken(ctx context.Context, tokenString string) (*dto.StaffClaims, error) {
	claims := &dto.StaffClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, s.keyFunc, s.parserOptions()...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			logger.Get().Debug("Staff token expired", zap.Error(err))
		} else {
			logger.Get().Warn("Staff token validation failed", zap.Error(err))
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidJWTToken, err)
	}
	if !token.Valid || !validation.IsValidIdentifier(claims.StaffID) || !validation.IsValidIdentifier(claims.RestaurantID) {
		return nil, ErrInvalidJWTToken
	}
	for _, aud := range claims.Audience {
		if aud == attemptAudience {
			return nil, ErrInvalidJWTToken
		}
	}
	if claims.Access == "" {
		claims.Access = dto.AccessStaff
	}
	return claims, nil
}

// IssueStaffToken signs a staff token. Production tokens come from the
// sign-in service; this is used by the admin CLI and tests.
func (s *tokenServiceImpl) IssueStaffToken(claims dto.StaffClaims, ttl time.Duration) (string, error) {
	now := s.clock.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    s.issuer,
		Subject:   claims.StaffID,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *tokenServiceImpl) IssueAttemptToken(session *domain.AttemptSession) (string, error) {
	claims := dto.AttemptClaims{
		SessionID:    session.ID,
		StaffID:      session.StaffID,
		QuizID:       session.QuizID,
		RestaurantID: session.RestaurantID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   session.StaffID,
			Audience:  jwt.ClaimStrings{attemptAudience},
			ID:        session.ID,
			IssuedAt:  jwt.NewNumericDate(session.StartedAt),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *tokenServiceImpl) ParseAttemptToken(tokenString string) (*dto.AttemptClaims, error) {
	claims := &dto.AttemptClaims{}
	opts := append(s.parserOptions(), jwt.WithAudience(attemptAudience))
	token, err := jwt.ParseWithClaims(tokenString, claims, s.keyFunc, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJWTToken, err)
	}
	if !token.Valid || claims.SessionID == "" {
		return nil, ErrInvalidJWTToken
	}
	return claims, nil
}
