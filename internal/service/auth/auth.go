package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/nvoronin/taskdeck/internal/apperrors"
	"github.com/nvoronin/taskdeck/internal/models"
	"github.com/nvoronin/taskdeck/internal/repository"
	"github.com/nvoronin/taskdeck/internal/service/auth/tokenmanager"
)

const (
	defaultAccessCookieName  = "jwt"
	defaultRefreshCookieName = "refreshJwt"
)

// Interface to create or compare user password hashes
type PasswordHasher interface {
	// Generate Hash from password
	Hash(password string) (string, error)

	// Compare known hashedPassword and user provided password
	// Must be protected against timing attacks
	Compare(hashedPassword string, password string) error
}

type Config struct {
	// Hasher to use during registration or login
	// Argon2id with default parameters is used if not set
	Hasher PasswordHasher

	// Set the Secure flag on auth cookies. Should be on everywhere except
	// local development over plain http
	SecureCookies bool

	// Cookie names to bind tokens to
	// If not set then defaults are used
	AccessCookieName  string
	RefreshCookieName string
}

type AuthService struct {
	// Manager to issue and verify token pairs (access and refresh)
	token *tokenmanager.TokenManager

	// hasher to hash or compare user passwords
	hasher PasswordHasher

	// Repository to access long term user data
	userRepo repository.UserRepo

	secureCookies     bool
	accessCookieName  string
	refreshCookieName string
}

func NewService(cfg Config, token *tokenmanager.TokenManager, userRepo repository.UserRepo) (*AuthService, error) {
	if token == nil || userRepo == nil {
		return nil, errors.New("token manager and user repo must not be nil")
	}

	hasher := cfg.Hasher
	if hasher == nil {
		hasher = DefaultHasher
	}

	if cfg.AccessCookieName == "" {
		cfg.AccessCookieName = defaultAccessCookieName
	}
	if cfg.RefreshCookieName == "" {
		cfg.RefreshCookieName = defaultRefreshCookieName
	}

	return &AuthService{
		token:             token,
		hasher:            hasher,
		userRepo:          userRepo,
		secureCookies:     cfg.SecureCookies,
		accessCookieName:  cfg.AccessCookieName,
		refreshCookieName: cfg.RefreshCookieName,
	}, nil
}

// Register new user
// Has to return apperrors.ErrUserAlreadyExists if email is taken already
func (s *AuthService) Register(ctx context.Context, name string, email string, password string) (models.User, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return models.User{}, fmt.Errorf("can't use this as password, error=%w", err)
	}

	user, err := s.userRepo.CreateUser(ctx, name, email, hash)
	if err != nil {
		return models.User{}, err
	}

	return user, nil
}

// Login user with email and password
// Unknown email and wrong password are deliberately indistinguishable:
// both return apperrors.ErrInvalidCredentials
func (s *AuthService) Login(ctx context.Context, email string, password string) (models.User, models.TokenPair, error) {
	user, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		// Burn comparable time on a missing user so response timing does not
		// reveal whether the email is registered
		_ = s.hasher.Compare(user.HashedPassword, password)
		return models.User{}, models.TokenPair{}, apperrors.ErrInvalidCredentials
	}

	if err := s.hasher.Compare(user.HashedPassword, password); err != nil {
		return models.User{}, models.TokenPair{}, apperrors.ErrInvalidCredentials
	}

	pair, err := s.token.GeneratePair(ctx, user.ID)
	if err != nil {
		return models.User{}, models.TokenPair{}, fmt.Errorf("token could not be generated. Err: %w", err)
	}

	return user, pair, nil
}

// Refresh redeems the refresh token and mints a fresh access token.
// The presented token is invalidated even though a new refresh token is not
// issued: redeeming the same value twice must always fail
func (s *AuthService) Refresh(ctx context.Context, refresh string) (models.IssuedToken, error) {
	userID, err := s.token.Redeem(ctx, refresh)
	if err != nil {
		return models.IssuedToken{}, err
	}

	access, err := s.token.GenerateAccess(userID)
	if err != nil {
		return models.IssuedToken{}, fmt.Errorf("token could not be generated. Err: %w", err)
	}

	return access, nil
}

// Logout revokes the presented refresh token so it can not be redeemed after
// the session ended. Unknown or absent tokens are not an error: logout is
// idempotent
func (s *AuthService) Logout(ctx context.Context, refresh string) error {
	if refresh == "" {
		return nil
	}
	return s.token.Revoke(ctx, refresh)
}

// ChangePassword re-verifies the current password before accepting a new one.
// Existing sessions are not rotated: an outstanding access token stays valid
// until natural expiry
func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword string, newPassword string) error {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.hasher.Compare(user.HashedPassword, currentPassword); err != nil {
		return apperrors.ErrInvalidCredentials
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("can't use this as password, error=%w", err)
	}

	return s.userRepo.UpdatePassword(ctx, userID, hash)
}

func (s *AuthService) GetProfile(ctx context.Context, userID uuid.UUID) (models.User, error) {
	return s.userRepo.GetUserByID(ctx, userID)
}

// EditProfile updates name and email only, independent of the credential flow
func (s *AuthService) EditProfile(ctx context.Context, userID uuid.UUID, name string, email string) (models.User, error) {
	return s.userRepo.UpdateUser(ctx, userID, name, email)
}

// Authenticate resolves the user identity from the access cookie.
// Pure stateless check: signature and expiry only, no store roundtrip
func (s *AuthService) Authenticate(r *http.Request) (uuid.UUID, error) {
	cookie, err := r.Cookie(s.accessCookieName)
	if err != nil {
		return uuid.Nil, apperrors.ErrNoSession
	}

	userID, err := s.token.ParseAccess(cookie.Value)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w. Err: %v", apperrors.ErrInvalidSession, err)
	}

	return userID, nil
}

// Set auth tokens (access and refresh) as response cookies
func (s *AuthService) SetTokenPair(w http.ResponseWriter, pair models.TokenPair) {
	s.setCookie(w, s.accessCookieName, pair.Access)
	s.setCookie(w, s.refreshCookieName, pair.Refresh)
}

// Set fresh access token cookie only, leaving the refresh cookie untouched
func (s *AuthService) SetAccessToken(w http.ResponseWriter, access models.IssuedToken) {
	s.setCookie(w, s.accessCookieName, access)
}

// Expire both auth cookies on the client
func (s *AuthService) ClearTokens(w http.ResponseWriter) {
	for _, name := range []string{s.accessCookieName, s.refreshCookieName} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   s.secureCookies,
			SameSite: http.SameSiteStrictMode,
		})
	}
}

// Get refresh token from request cookie
func (s *AuthService) ReadRefreshToken(r *http.Request) (string, error) {
	cookie, err := r.Cookie(s.refreshCookieName)
	if err != nil {
		return "", apperrors.ErrRefreshTokenNotFound
	}
	return cookie.Value, nil
}

func (s *AuthService) setCookie(w http.ResponseWriter, name string, token models.IssuedToken) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    token.Value,
		Path:     "/",
		MaxAge:   int(time.Until(token.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}
