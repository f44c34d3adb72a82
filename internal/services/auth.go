package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"

	types "github.com/yungbote/stampcard-backend/internal/domain"
	"github.com/yungbote/stampcard-backend/internal/platform/apierr"
	"github.com/yungbote/stampcard-backend/internal/platform/ctxutil"
	"github.com/yungbote/stampcard-backend/internal/platform/line"
	"github.com/yungbote/stampcard-backend/internal/platform/logger"
)

const tokenIssuer = "stampcard"

type JWTClaims struct {
	jwt.RegisteredClaims
}

type LoginResult struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expiresAt"`
	Profile   *types.Profile `json:"profile"`
}

type AuthService interface {
	LoginWithLINE(ctx context.Context, idToken string) (*LoginResult, error)
	IssueToken(profileID string) (string, time.Time, error)
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	GetAccessTTL() time.Duration
}

type authService struct {
	db           *gorm.DB
	log          *logger.Logger
	users        UserService
	verifier     line.Verifier
	jwtSecretKey string
	accessTTL    time.Duration
	now          func() time.Time
}

func NewAuthService(
	db *gorm.DB,
	log *logger.Logger,
	users UserService,
	verifier line.Verifier,
	jwtSecretKey string,
	accessTTL time.Duration,
) AuthService {
	if accessTTL <= 0 {
		accessTTL = 7 * 24 * time.Hour
	}
	return &authService{
		db:           db,
		log:          log.With("service", "AuthService"),
		users:        users,
		verifier:     verifier,
		jwtSecretKey: jwtSecretKey,
		accessTTL:    accessTTL,
		now:          time.Now,
	}
}

func (as *authService) LoginWithLINE(ctx context.Context, idToken string) (*LoginResult, error) {
	if as.verifier == nil {
		return nil, apierr.New(http.StatusServiceUnavailable, "line_login_unavailable", errors.New("LINE login is not configured"))
	}
	if strings.TrimSpace(idToken) == "" {
		return nil, badRequest("invalid_request", "idToken is required")
	}
	identity, err := as.verifier.VerifyIDToken(ctx, idToken)
	if err != nil {
		as.log.Warn("LINE id token rejected", "error", err)
		return nil, apierr.New(http.StatusUnauthorized, "invalid_id_token", err)
	}

	profile, err := as.users.Upsert(ctx, identity.UserID, identity.DisplayName, identity.PictureURL)
	if err != nil {
		return nil, err
	}
	token, exp, err := as.IssueToken(profile.ID)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, "token_issue_failed", err)
	}
	as.log.Info("LINE login", "user_id", profile.ID)
	return &LoginResult{Token: token, ExpiresAt: exp, Profile: profile}, nil
}

func (as *authService) IssueToken(profileID string) (string, time.Time, error) {
	if strings.TrimSpace(profileID) == "" {
		return "", time.Time{}, fmt.Errorf("profile id required")
	}
	now := as.now()
	exp := now.Add(as.accessTTL)
	claims := JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   profileID,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(as.jwtSecretKey))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	if tokenString == "" {
		return ctx, nil
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(as.now),
	)
	parsedToken, err := parser.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (any, error) {
		return []byte(as.jwtSecretKey), nil
	})
	if err != nil {
		return ctx, fmt.Errorf("failed to parse token: %w", err)
	}
	claims, ok := parsedToken.Claims.(*JWTClaims)
	if !ok || !parsedToken.Valid {
		return ctx, fmt.Errorf("invalid or expired JWT token")
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return ctx, fmt.Errorf("token has no subject")
	}
	return ctxutil.WithRequestData(ctx, &ctxutil.RequestData{UserID: claims.Subject}), nil
}

func (as *authService) GetAccessTTL() time.Duration {
	return as.accessTTL
}
