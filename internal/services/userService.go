package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"aarambh/internal/metrics"
	"aarambh/internal/models"
	"aarambh/internal/repositories"
)

const bcryptCost = 10

// UserService defines the interface for account-related business logic.
type UserService interface {
	RegisterUser(ctx context.Context, req *models.Register) (*models.User, error)
	GetUserProfile(ctx context.Context, userID primitive.ObjectID) (*models.PublicProfile, error)
	GetTotalUsers(ctx context.Context) (int64, error)
	// StartGaugeUpdater refreshes the total users gauge every interval until ctx is done.
	StartGaugeUpdater(ctx context.Context, interval time.Duration)
}

// userService implements UserService using a UserRepository.
type userService struct {
	userRepo repositories.UserRepository
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repositories.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) GetTotalUsers(ctx context.Context) (int64, error) {
	return s.userRepo.CountAll(ctx)
}

func (s *userService) StartGaugeUpdater(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.refreshTotalUsers(ctx)
			}
		}
	}()
}

func (s *userService) refreshTotalUsers(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	count, err := s.GetTotalUsers(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Error updating total users gauge")
		return
	}
	metrics.TotalUsers.Set(float64(count))
}

// RegisterUser creates an unverified account. The caller is expected to start the OTP flow next.
func (s *userService) RegisterUser(ctx context.Context, req *models.Register) (*models.User, error) {
	email := NormalizeEmail(req.Email)
	log.Debug().Str("email", email).Msg("Attempting to register user")

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		log.Error().Err(err).Msg("Failed to hash password during registration")
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	role := req.Role
	if role == "" {
		role = models.RoleStudent
	}

	user := &models.User{
		Name:     strings.TrimSpace(req.Name),
		Email:    email,
		Password: string(hashedPassword),
		Role:     role,
	}

	createdUser, err := s.userRepo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			log.Warn().Str("email", email).Msg("Email already exists during user insertion")
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	createdUser.Password = "" // Clear password before returning
	metrics.NewUsersTotal.Inc()
	log.Info().Str("user_id", createdUser.ID.Hex()).Str("email", createdUser.Email).Msg("User registered successfully")

	if count, err := s.GetTotalUsers(ctx); err == nil {
		metrics.TotalUsers.Set(float64(count))
	}
	return createdUser, nil
}

func (s *userService) GetUserProfile(ctx context.Context, userID primitive.ObjectID) (*models.PublicProfile, error) {
	log.Debug().Str("userID", userID.Hex()).Msg("Attempting to retrieve user profile")
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			log.Warn().Str("user_id", userID.Hex()).Msg("User not found for GetMyProfile")
			return nil, ErrUserNotFound
		}
		log.Error().Err(err).Str("user_id", userID.Hex()).Msg("Failed to fetch user profile")
		return nil, fmt.Errorf("failed to fetch user profile: %w", err)
	}

	profile := user.ToPublicProfile()
	return &profile, nil
}
