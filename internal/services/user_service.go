package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"vtask/internal/models"
	"vtask/internal/repositories"
)

var ErrEmailTaken = errors.New("email already registered")

type UserService interface {
	Register(ctx context.Context, email, password string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	SetRefreshToken(ctx context.Context, id, token string) error
	GetByRefreshToken(ctx context.Context, token string) (*models.User, error)
	LinkTelegram(ctx context.Context, id string, chatID int64) error
}

type userService struct {
	repo repositories.UserRepository
	auth AuthService
}

func NewUserService(repo repositories.UserRepository, auth AuthService) UserService {
	return &userService{repo: repo, auth: auth}
}

func (s *userService) Register(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("invalid email")
	}
	if strings.TrimSpace(password) == "" {
		return nil, fmt.Errorf("password is required")
	}

	existing, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := s.auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &models.User{Email: email, PasswordHash: hash}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	log.Printf("[user][register][ok] id=%s email=%s", user.ID, email)
	return user, nil
}

func (s *userService) GetByID(ctx context.Context, id string) (*models.User, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *userService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
}

func (s *userService) SetRefreshToken(ctx context.Context, id, token string) error {
	return s.repo.SetRefreshToken(ctx, id, token)
}

func (s *userService) GetByRefreshToken(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, nil
	}
	return s.repo.FindByRefreshToken(ctx, token)
}

func (s *userService) LinkTelegram(ctx context.Context, id string, chatID int64) error {
	return s.repo.SetTelegramChatID(ctx, id, chatID)
}
