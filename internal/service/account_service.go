package service

import (
	"context"
	"errors"
	"strings"

	"yatube/internal/models"
	"yatube/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned when a username and password do not match.
var ErrInvalidCredentials = models.NewUnauthorizedError("Invalid credentials")

type AccountService struct {
	userRepo repository.UserRepository
	cost     int
}

type RegisterInput struct {
	Username  string
	Password  string
	FirstName string
	LastName  string
}

func NewAccountService(userRepo repository.UserRepository) *AccountService {
	return &AccountService{userRepo: userRepo, cost: bcrypt.DefaultCost}
}

// WithCost overrides the bcrypt cost, used by tests and seeding.
func (s *AccountService) WithCost(cost int) *AccountService {
	s.cost = cost
	return s
}

func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" || in.Password == "" {
		return nil, models.NewValidationError("Username and password are required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	user := &models.User{
		Username:     username,
		PasswordHash: string(hash),
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate returns the user when password matches.
func (s *AccountService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if models.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, models.NewInternalError(err)
	}
	return user, nil
}

func (s *AccountService) UsernameTaken(ctx context.Context, username string) (bool, error) {
	_, err := s.userRepo.GetByUsername(ctx, username)
	if err == nil {
		return true, nil
	}
	if models.IsNotFound(err) {
		return false, nil
	}
	return false, err
}

func (s *AccountService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.userRepo.GetByUsername(ctx, username)
}

func (s *AccountService) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}
