package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/Skotchmaster/shop_payments/internal/models"
	"github.com/Skotchmaster/shop_payments/internal/repo"
	pkg_hash "github.com/Skotchmaster/shop_payments/pkg/hash"
	"github.com/Skotchmaster/shop_payments/pkg/logging"
	"github.com/Skotchmaster/shop_payments/pkg/tokens"
)

const AccessTokenTTL = time.Hour

type AuthService struct {
	Repo        *repo.GormRepo
	JWTSecret   []byte
	AdminEmails []string
}

type RegisterInput struct {
	Email     string
	Username  string
	Password  string
	FirstName string
	LastName  string
}

type LoginResult struct {
	AccessToken string
	AccessExp   time.Time
	User        *models.User
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return nil, fmt.Errorf("%w: invalid email", ErrValidation)
	}
	if len(in.Password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", ErrValidation)
	}
	username := strings.TrimSpace(in.Username)
	if username == "" {
		username = strings.SplitN(email, "@", 2)[0]
	}

	hash, err := pkg_hash.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:        email,
		Username:     username,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		PasswordHash: hash,
		Role:         s.roleFor(email),
	}
	if err := s.Repo.CreateUserIfNotExists(ctx, user); err != nil {
		if errors.Is(err, repo.ErrUserAlreadyExist) {
			return nil, fmt.Errorf("%w: %w", ErrConflict, ErrUserExists)
		}
		return nil, err
	}

	logging.FromContext(ctx).Info("user_registered", "user_id", user.ID, "role", user.Role)
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.Repo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrInvalidCreds
	}
	if err != nil {
		return nil, err
	}
	if !pkg_hash.CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCreds
	}

	exp := time.Now().Add(AccessTokenTTL)
	token, err := tokens.NewAccessToken(s.JWTSecret, user.ID, user.Role, user.Email, exp)
	if err != nil {
		return nil, err
	}
	return &LoginResult{AccessToken: token, AccessExp: exp, User: user}, nil
}

// CurrentUser resolves the id carried by an access token.
func (s *AuthService) CurrentUser(ctx context.Context, id uint) (*models.User, error) {
	u, err := s.Repo.GetUserByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, fmt.Errorf("%w: user %d", ErrNotFound, id)
	}
	return u, err
}

func (s *AuthService) roleFor(email string) string {
	for _, a := range s.AdminEmails {
		if strings.EqualFold(a, email) {
			return models.RoleAdmin
		}
	}
	return models.RoleUser
}
