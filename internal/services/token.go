package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	dataagg "github.com/yungbote/scd-backend/internal/data/aggregates"
	"github.com/yungbote/scd-backend/internal/data/repos"
	domainagg "github.com/yungbote/scd-backend/internal/domain/aggregates"
	"github.com/yungbote/scd-backend/internal/modules/session"
	"github.com/yungbote/scd-backend/internal/platform/ctxutil"
	"github.com/yungbote/scd-backend/internal/platform/dbctx"
	"github.com/yungbote/scd-backend/internal/platform/logger"
)

const (
	tokenIssuer = "scd-backend"
	// Tokens this close to expiry are refused so clients refresh early.
	expirySkew = 5 * time.Minute
)

type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type TokenConfig struct {
	SecretKey string
	AccessTTL time.Duration
	// ValidationInterval bounds how often a subject is re-checked against
	// the users table.
	ValidationInterval time.Duration
}

type TokenService interface {
	Mint(ctx context.Context, email string) (string, time.Time, error)
	Authenticate(ctx context.Context, tokenString string) (*ctxutil.RequestData, error)
}

type tokenService struct {
	log      *logger.Logger
	users    repos.UserRepo
	clock    session.Clock
	throttle *session.Throttle
	secret   []byte
	ttl      time.Duration
}

func NewTokenService(log *logger.Logger, users repos.UserRepo, clock session.Clock, cfg TokenConfig) (TokenService, error) {
	if strings.TrimSpace(cfg.SecretKey) == "" {
		return nil, errors.New("jwt secret key required")
	}
	ttl := cfg.AccessTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &tokenService{
		log:      log.With("service", "TokenService"),
		users:    users,
		clock:    clock,
		throttle: session.NewThrottle(clock, cfg.ValidationInterval),
		secret:   []byte(cfg.SecretKey),
		ttl:      ttl,
	}, nil
}

// Mint signs an access token for email, creating the user row on first use.
func (s *tokenService) Mint(ctx context.Context, email string) (string, time.Time, error) {
	const op = "token.mint"
	email = ctxutil.NormalizeEmail(email)
	if !strings.Contains(email, "@") {
		return "", time.Time{}, domainagg.Errorf(domainagg.CodeValidation, op, "valid email required")
	}
	u, err := s.users.EnsureByEmail(dbctx.Context{Ctx: ctx}, email, "")
	if err != nil {
		return "", time.Time{}, dataagg.MapError(op, err)
	}
	if !u.Active() {
		return "", time.Time{}, domainagg.Errorf(domainagg.CodeForbidden, op, "user disabled")
	}
	now := s.now()
	exp := now.Add(s.ttl)
	claims := Claims{
		Email: u.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   u.ID.String(),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Authenticate verifies a bearer token. Signature and expiry are checked on
// every call; the user lookup runs at most once per validation interval.
func (s *tokenService) Authenticate(ctx context.Context, tokenString string) (*ctxutil.RequestData, error) {
	const op = "token.authenticate"
	unauthorized := func(msg string) error {
		return domainagg.Errorf(domainagg.CodeUnauthorized, op, "%s", msg)
	}
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return nil, unauthorized("missing token")
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, unauthorized("invalid token")
	}
	if session.ExpiringSoon(s.clock, claims.ExpiresAt.Time, expirySkew) {
		return nil, unauthorized("token expired")
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, unauthorized("invalid subject")
	}

	subject := userID.String()
	if s.throttle.Due(subject) {
		u, err := s.users.GetByID(dbctx.Context{Ctx: ctx}, userID)
		if err != nil {
			return nil, dataagg.MapError(op, err)
		}
		if !u.Active() {
			s.throttle.Forget(subject)
			return nil, unauthorized("user not active")
		}
		s.throttle.Mark(subject)
	}

	return &ctxutil.RequestData{
		UserID:      userID,
		Email:       ctxutil.NormalizeEmail(claims.Email),
		TokenString: tokenString,
	}, nil
}

func (s *tokenService) now() time.Time {
	if s.clock == nil {
		return time.Now().UTC()
	}
	return s.clock.Now()
}
