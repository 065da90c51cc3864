// Package services contains server-side business logic. This file implements
// UserService: registration, credential verification, login-timestamp
// bookkeeping, and minting JWTs.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/mpc180222/messagely/internal/common"
	"github.com/mpc180222/messagely/internal/dbx"
	"github.com/mpc180222/messagely/internal/server/auth"
	"github.com/mpc180222/messagely/internal/server/config"
	"github.com/mpc180222/messagely/internal/server/models"
	"github.com/mpc180222/messagely/internal/server/repositories/repomanager"
)

var validate = validator.New()

// RegisterParams carries the registration payload. Every field is required.
type RegisterParams struct {
	Username  string `validate:"required"`
	Password  string `validate:"required"`
	FirstName string `validate:"required"`
	LastName  string `validate:"required"`
	Phone     string `validate:"required"`
}

// UserService provides account operations:
// - Register: create users and mint a first token
// - Authenticate: verify a password against the stored hash
// - Login: verify credentials, touch last_login_at, and mint a token
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	jwtSecret   []byte
	tokenTTL    time.Duration
	bcryptCost  int
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		jwtSecret:   []byte(cfg.SecretKey),
		tokenTTL:    cfg.TokenTTL,
		bcryptCost:  cfg.BcryptCost,
	}
}

// Register hashes the password, creates the user, and touches last_login_at
// in one transaction, then mints a token. Duplicate usernames yield
// ErrorAlreadyExists. The returned view never contains the hash.
func (s *UserService) Register(ctx context.Context, p RegisterParams) (*models.UserPublic, string, error) {
	if err := validate.Struct(p); err != nil {
		return nil, "", fmt.Errorf("%w: %v", common.ErrorValidation, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(p.Password), s.bcryptCost)
	if err != nil {
		return nil, "", common.ErrorInternal
	}

	user := &models.User{
		Username:     p.Username,
		PasswordHash: string(hash),
		FirstName:    p.FirstName,
		LastName:     p.LastName,
		Phone:        p.Phone,
	}

	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)
		if _, err := repo.Create(ctx, user); err != nil {
			return err
		}
		loggedInAt, err := repo.TouchLogin(ctx, user.Username)
		if err != nil {
			return err
		}
		user.LastLoginAt = &loggedInAt
		return nil
	}); err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, "", common.ErrorAlreadyExists
		}
		return nil, "", fmt.Errorf("error creating user: %w", err)
	}

	token, err := auth.GenerateToken(user.Username, s.jwtSecret, s.tokenTTL)
	if err != nil {
		return nil, "", common.ErrorInternal
	}

	return user.Public(), token, nil
}

// Authenticate reports whether the password matches the stored hash for
// username. An absent user is ErrorNotFound, not false.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (bool, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return false, common.ErrorNotFound
		}
		return false, common.ErrorInternal
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		return false, common.ErrorInternal
	}

	return true, nil
}

// Login verifies the credentials and, on success, touches last_login_at and
// returns a fresh token. A wrong password is an explicit ErrorUnauthorized.
func (s *UserService) Login(ctx context.Context, username, password string) (string, error) {
	ok, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", common.ErrorUnauthorized
	}

	if err := s.TouchLogin(ctx, username); err != nil {
		return "", err
	}

	token, err := auth.GenerateToken(username, s.jwtSecret, s.tokenTTL)
	if err != nil {
		return "", common.ErrorInternal
	}

	return token, nil
}

// TouchLogin sets last_login_at to now. A user vanishing between
// authentication and this call is a hard ErrorNotFound.
func (s *UserService) TouchLogin(ctx context.Context, username string) error {
	repo := s.repomanager.Users(s.db)

	if _, err := repo.TouchLogin(ctx, username); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return common.ErrorInternal
	}
	return nil
}

// GetPublic returns the user's public view.
func (s *UserService) GetPublic(ctx context.Context, username string) (*models.UserPublic, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetPublic(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, common.ErrorInternal
	}
	return user, nil
}

// ListAll returns the summary of every registered user.
func (s *UserService) ListAll(ctx context.Context) ([]models.UserSummary, error) {
	repo := s.repomanager.Users(s.db)

	list, err := repo.ListAll(ctx)
	if err != nil {
		return nil, common.ErrorInternal
	}
	return list, nil
}
