package tokenmanager

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/nvoronin/taskdeck/internal/apperrors"
	"github.com/nvoronin/taskdeck/internal/models"
	"github.com/nvoronin/taskdeck/internal/repository"
)

const (
	defaultSigningMethod   = "HS256"
	defaultAccessTokenTTL  = 7 * 24 * time.Hour
	defaultRefreshTokenTTL = 30 * 24 * time.Hour
)

type Claims struct {
	jwt.RegisteredClaims
	UserID uuid.UUID `json:"userId"`
}

// Token manager config with sensible defaults
type Config struct {
	// Secrets to sign access and refresh tokens
	// Both required and must differ: compromise of one must not give away the other
	AccessSecret  string
	RefreshSecret string

	// JWT MAC (Message Authentication Code) algorithm
	// If not set then default is used
	Alg string

	// Access and refresh token lifetimes
	// If not set then default is used
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type TokenManager struct {
	accessKey  string
	refreshKey string

	alg jwt.SigningMethod

	accessTTL  time.Duration
	refreshTTL time.Duration

	// Refresh token repo
	refreshRepo repository.RefreshTokenRepo
}

func New(cfg Config, refreshRepo repository.RefreshTokenRepo) (*TokenManager, error) {
	if cfg.AccessSecret == "" {
		return nil, errors.New("access token secret must not be empty")
	}
	if cfg.RefreshSecret == "" {
		return nil, errors.New("refresh token secret must not be empty")
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, errors.New("access and refresh token secrets must differ")
	}

	if cfg.Alg == "" {
		cfg.Alg = defaultSigningMethod
	}

	setDefaultDuration := func(field *time.Duration, def time.Duration) {
		if *field == 0 {
			*field = def
		}
	}
	setDefaultDuration(&cfg.AccessTTL, defaultAccessTokenTTL)
	setDefaultDuration(&cfg.RefreshTTL, defaultRefreshTokenTTL)

	return &TokenManager{
		accessKey:   cfg.AccessSecret,
		refreshKey:  cfg.RefreshSecret,
		alg:         jwt.GetSigningMethod(cfg.Alg),
		accessTTL:   cfg.AccessTTL,
		refreshTTL:  cfg.RefreshTTL,
		refreshRepo: refreshRepo,
	}, nil
}

// GeneratePair mints access and refresh tokens for the user and persists the
// refresh token. Issuance is a single logical unit: if the refresh token can
// not be saved no pair is returned, so the caller never binds cookies for a
// token that is not durably recorded
func (m *TokenManager) GeneratePair(ctx context.Context, userID uuid.UUID) (models.TokenPair, error) {
	var pair models.TokenPair
	now := time.Now().Truncate(time.Second)

	access, err := m.generate(m.accessKey, userID, now, m.accessTTL)
	if err != nil {
		return pair, fmt.Errorf("error while signing access token. Err: %w", err)
	}

	refresh, err := m.generate(m.refreshKey, userID, now, m.refreshTTL)
	if err != nil {
		return pair, fmt.Errorf("error while signing refresh token. Err: %w", err)
	}

	refreshExpiresAt := now.Add(m.refreshTTL)
	_, err = m.refreshRepo.Save(ctx, models.RefreshToken{
		ID:        uuid.New(),
		UserID:    userID,
		Token:     refresh,
		CreatedAt: now,
		ExpiresAt: refreshExpiresAt,
	})
	if err != nil {
		return pair, fmt.Errorf("error while saving refresh token. Err: %w", err)
	}

	return models.TokenPair{
		Access:  models.IssuedToken{Value: access, ExpiresAt: now.Add(m.accessTTL)},
		Refresh: models.IssuedToken{Value: refresh, ExpiresAt: refreshExpiresAt},
	}, nil
}

// GenerateAccess mints a fresh access token only. Used on refresh redemption
// where the observed design does not roll the refresh token
func (m *TokenManager) GenerateAccess(userID uuid.UUID) (models.IssuedToken, error) {
	now := time.Now().Truncate(time.Second)

	access, err := m.generate(m.accessKey, userID, now, m.accessTTL)
	if err != nil {
		return models.IssuedToken{}, fmt.Errorf("error while signing access token. Err: %w", err)
	}

	return models.IssuedToken{Value: access, ExpiresAt: now.Add(m.accessTTL)}, nil
}

// Redeem a refresh token: verify it and make sure it never validates again.
//
// Order matters. Store membership is checked first so an already redeemed or
// never issued token fails before any cryptography: the store, not the
// signature, is the authority on single use state. The final delete happens
// in one atomic statement, so of two concurrent redemptions of the same
// value exactly one wins
func (m *TokenManager) Redeem(ctx context.Context, refresh string) (userID uuid.UUID, err error) {
	stored, err := m.refreshRepo.Get(ctx, refresh)
	if err != nil {
		return uuid.Nil, fmt.Errorf("error while looking up refresh token. Err: %w", err)
	}

	userID, err = m.parse(m.refreshKey, refresh)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w. Err: %v", apperrors.ErrRefreshTokenInvalid, err)
	}

	if stored.ExpiresAt.Before(time.Now()) {
		// The signature check above already rejects expired tokens, but the row
		// lifetime is tracked independently of the claim set
		return uuid.Nil, apperrors.ErrRefreshTokenExpired
	}

	if _, err := m.refreshRepo.Redeem(ctx, refresh); err != nil {
		return uuid.Nil, fmt.Errorf("error while redeeming refresh token. Err: %w", err)
	}

	return userID, nil
}

// Revoke deletes the stored refresh token. Revoking an unknown token is fine
func (m *TokenManager) Revoke(ctx context.Context, refresh string) error {
	return m.refreshRepo.Delete(ctx, refresh)
}

// Parse and validate access token
func (m *TokenManager) ParseAccess(access string) (userID uuid.UUID, err error) {
	return m.parse(m.accessKey, access)
}

func (m *TokenManager) generate(key string, userID uuid.UUID, now time.Time, ttl time.Duration) (string, error) {
	token := jwt.NewWithClaims(
		m.alg,
		Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        uuid.NewString(),
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			},
			UserID: userID,
		},
	)
	return token.SignedString([]byte(key))
}

func (m *TokenManager) parse(key string, tokenString string) (uuid.UUID, error) {
	claims := &Claims{}

	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(t *jwt.Token) (any, error) { return []byte(key), nil },
		jwt.WithValidMethods([]string{m.alg.Alg()}),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("error while parsing or validating token. Err: %w", err)
	}

	if claims.UserID == uuid.Nil {
		return uuid.Nil, errors.New("token has no user id")
	}

	return claims.UserID, nil
}
