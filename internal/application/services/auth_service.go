package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/unihub/core/internal/domain/entities"
	"github.com/unihub/core/internal/infrastructure/config"
	"github.com/unihub/core/internal/infrastructure/logger"
	"github.com/unihub/core/internal/ports"
)

// Claims represents the JWT claims
type Claims struct {
	AccountID string `json:"account_id"`
	Email     string `json:"email"`
	jwt.RegisteredClaims
}

// AuthService handles authentication operations
type AuthService struct {
	tx          ports.Transactor
	accountRepo ports.AccountRepository
	authRepo    ports.AuthRepository
	google      ports.GoogleVerifier
	contacts    *ContactService
	jwtConfig   config.JWTConfig
	logger      *logger.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(tx ports.Transactor, accountRepo ports.AccountRepository, authRepo ports.AuthRepository, google ports.GoogleVerifier, contacts *ContactService, jwtConfig config.JWTConfig, logger *logger.Logger) *AuthService {
	return &AuthService{
		tx:          tx,
		accountRepo: accountRepo,
		authRepo:    authRepo,
		google:      google,
		contacts:    contacts,
		jwtConfig:   jwtConfig,
		logger:      logger,
	}
}

// Register creates a new account with a password and reconciles any contact
// invitations already waiting for its email. Account creation and
// reconciliation commit together.
func (s *AuthService) Register(ctx context.Context, req ports.RegisterRequest) (*ports.AuthResponse, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	hash := string(hashedPassword)
	account := &entities.Account{
		Name:         req.Name,
		Email:        strings.ToLower(req.Email),
		PasswordHash: &hash,
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.accountRepo.Create(ctx, account); err != nil {
			return err
		}
		_, err := s.contacts.ReconcileNewAccount(ctx, account)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Account registered", "account_id", account.ID, "email", account.Email)

	return s.issueTokens(ctx, account)
}

// Login authenticates an account with email and password
func (s *AuthService) Login(ctx context.Context, req ports.LoginRequest) (*ports.AuthResponse, error) {
	account, err := s.accountRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		s.logger.Warn("Login attempt with non-existent email", "email", req.Email)
		return nil, entities.ErrInvalidCredentials
	}

	if account.IsSocialOnly() {
		s.logger.Warn("Password login attempt on social-only account", "account_id", account.ID)
		return nil, entities.ErrPasswordNotSet
	}

	if err := bcrypt.CompareHashAndPassword([]byte(*account.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Warn("Login attempt with invalid password", "email", req.Email, "account_id", account.ID)
		return nil, entities.ErrInvalidCredentials
	}

	if err := s.accountRepo.UpdateLastLogin(ctx, account.ID, time.Now()); err != nil {
		s.logger.Warn("Failed to update last login time", "error", err, "account_id", account.ID)
	}

	s.logger.Info("Account logged in", "account_id", account.ID, "email", account.Email)

	return s.issueTokens(ctx, account)
}

// GoogleLogin signs an account in with a verified Google ID token. An account
// already linked by Google subject signs straight in; an account with the
// same email gets the Google identity attached; otherwise a new account is
// created and pending invitations for its email are reconciled.
func (s *AuthService) GoogleLogin(ctx context.Context, req ports.GoogleLoginRequest) (*ports.AuthResponse, error) {
	identity, err := s.google.Verify(ctx, req.IDToken)
	if err != nil {
		s.logger.Warn("Google token verification failed", "error", err)
		return nil, entities.ErrInvalidCredentials
	}

	account, err := s.accountRepo.GetByGoogleID(ctx, identity.Subject)
	switch {
	case err == nil:
		// Linked before, nothing to reconcile.
	case errors.Is(err, entities.ErrAccountNotFound):
		account, err = s.attachOrCreateGoogleAccount(ctx, identity)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("lookup google account: %w", err)
	}

	if err := s.accountRepo.UpdateLastLogin(ctx, account.ID, time.Now()); err != nil {
		s.logger.Warn("Failed to update last login time", "error", err, "account_id", account.ID)
	}

	s.logger.Info("Account logged in via Google", "account_id", account.ID)

	return s.issueTokens(ctx, account)
}

func (s *AuthService) attachOrCreateGoogleAccount(ctx context.Context, identity *ports.GoogleIdentity) (*entities.Account, error) {
	existing, err := s.accountRepo.GetByEmail(ctx, identity.Email)
	if err == nil {
		if err := s.accountRepo.LinkGoogleID(ctx, existing.ID, identity.Subject); err != nil {
			return nil, err
		}
		existing.GoogleID = &identity.Subject
		s.logger.Info("Google identity linked to existing account", "account_id", existing.ID)
		return existing, nil
	}
	if !errors.Is(err, entities.ErrAccountNotFound) {
		return nil, fmt.Errorf("lookup account by email: %w", err)
	}

	account := &entities.Account{
		Name:     identity.Name,
		Email:    strings.ToLower(identity.Email),
		GoogleID: &identity.Subject,
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.accountRepo.Create(ctx, account); err != nil {
			return err
		}
		_, err := s.contacts.ReconcileNewAccount(ctx, account)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Account created via Google", "account_id", account.ID, "email", account.Email)
	return account, nil
}

// RefreshToken rotates a refresh token and issues a new access token
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*ports.AuthResponse, error) {
	tokenHash := hashToken(refreshToken)

	storedToken, err := s.authRepo.GetRefreshToken(ctx, tokenHash)
	if err != nil {
		return nil, entities.ErrInvalidCredentials
	}

	if !storedToken.IsValid() {
		return nil, entities.ErrInvalidCredentials
	}

	account, err := s.accountRepo.GetByID(ctx, storedToken.AccountID)
	if err != nil {
		return nil, entities.ErrInvalidCredentials
	}

	if err := s.authRepo.RevokeRefreshToken(ctx, tokenHash); err != nil {
		s.logger.Warn("Failed to revoke old refresh token", "error", err, "account_id", account.ID)
	}

	return s.issueTokens(ctx, account)
}

// Logout revokes all refresh tokens for an account
func (s *AuthService) Logout(ctx context.Context, accountID uuid.UUID) error {
	if err := s.authRepo.RevokeAllAccountTokens(ctx, accountID); err != nil {
		return fmt.Errorf("failed to revoke account tokens: %w", err)
	}

	s.logger.Info("Account logged out", "account_id", accountID)
	return nil
}

// DeleteAccount removes the account and everything it owns. Inbound contact
// rows other accounts hold toward it fall back to unresolved email contacts.
func (s *AuthService) DeleteAccount(ctx context.Context, accountID uuid.UUID) error {
	if err := s.authRepo.RevokeAllAccountTokens(ctx, accountID); err != nil {
		s.logger.Warn("Failed to revoke tokens before account deletion", "error", err, "account_id", accountID)
	}

	if err := s.accountRepo.Delete(ctx, accountID); err != nil {
		return err
	}

	s.logger.Info("Account deleted", "account_id", accountID)
	return nil
}

// ValidateToken validates a JWT token and returns claims
func (s *AuthService) ValidateToken(tokenString string) (*ports.Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtConfig.Secret), nil
	})

	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	return &ports.Claims{
		AccountID: claims.AccountID,
		Email:     claims.Email,
	}, nil
}

func (s *AuthService) issueTokens(ctx context.Context, account *entities.Account) (*ports.AuthResponse, error) {
	accessToken, err := s.generateAccessToken(account)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := s.generateRefreshToken(ctx, account.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	// The hash never leaves the service layer either way, but being explicit
	// keeps a serialized Account harmless.
	account.PasswordHash = nil

	return &ports.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.jwtConfig.ExpiresIn.Seconds()),
		Account:      account,
	}, nil
}

func (s *AuthService) generateAccessToken(account *entities.Account) (string, error) {
	claims := &Claims{
		AccountID: account.ID.String(),
		Email:     account.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.jwtConfig.ExpiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			Issuer:    s.jwtConfig.Issuer,
			Subject:   account.ID.String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtConfig.Secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

func (s *AuthService) generateRefreshToken(ctx context.Context, accountID uuid.UUID) (string, error) {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", fmt.Errorf("failed to generate random token: %w", err)
	}

	token := hex.EncodeToString(tokenBytes)

	expiresAt := time.Now().Add(s.jwtConfig.RefreshExpiresIn)
	if err := s.authRepo.CreateRefreshToken(ctx, accountID, hashToken(token), expiresAt); err != nil {
		return "", fmt.Errorf("failed to store refresh token: %w", err)
	}

	return token, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
