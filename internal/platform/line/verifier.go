package line

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const Issuer = "https://access.line.me"

var ErrInvalidIDToken = errors.New("invalid LINE id token")

// Identity is the subset of LINE ID-token claims the app consumes.
type Identity struct {
	UserID      string
	DisplayName string
	PictureURL  string
}

type idTokenClaims struct {
	jwt.RegisteredClaims
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
}

type Verifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*Identity, error)
}

type verifier struct {
	channelID     string
	channelSecret []byte
	leeway        time.Duration
	now           func() time.Time
}

// NewVerifier checks HS256 ID tokens issued by LINE Login for channelID.
func NewVerifier(channelID, channelSecret string) (Verifier, error) {
	if strings.TrimSpace(channelID) == "" {
		return nil, fmt.Errorf("LINE_CHANNEL_ID is required")
	}
	if strings.TrimSpace(channelSecret) == "" {
		return nil, fmt.Errorf("LINE_CHANNEL_SECRET is required")
	}
	return &verifier{
		channelID:     channelID,
		channelSecret: []byte(channelSecret),
		leeway:        30 * time.Second,
		now:           time.Now,
	}, nil
}

func (v *verifier) VerifyIDToken(ctx context.Context, idToken string) (*Identity, error) {
	idToken = strings.TrimSpace(idToken)
	if idToken == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidIDToken)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithAudience(v.channelID),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.leeway),
		jwt.WithTimeFunc(v.now),
	)
	claims := &idTokenClaims{}
	tok, err := parser.ParseWithClaims(idToken, claims, func(t *jwt.Token) (any, error) {
		return v.channelSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidIDToken, err)
	}
	if tok == nil || !tok.Valid {
		return nil, ErrInvalidIDToken
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, fmt.Errorf("%w: missing sub", ErrInvalidIDToken)
	}

	return &Identity{
		UserID:      claims.Subject,
		DisplayName: claims.Name,
		PictureURL:  claims.Picture,
	}, nil
}
