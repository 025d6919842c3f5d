package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"aarambh/internal/database"
	"aarambh/internal/models"
	"aarambh/internal/utils"
)

var (
	ErrNotFound     = errors.New("document not found")
	ErrDuplicateKey = errors.New("duplicate key")
)

type UserRepository interface {
	EnsureIndexes(ctx context.Context) error
	Create(ctx context.Context, user *models.User) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, userID primitive.ObjectID) (*models.User, error)
	// SetVerified flips isVerified once; it reports false when the account was already verified.
	SetVerified(ctx context.Context, userID primitive.ObjectID) (bool, error)
	UpdateLastLogin(ctx context.Context, userID primitive.ObjectID, at time.Time) error
	CountAll(ctx context.Context) (int64, error)
}

type userRepository struct {
	db database.Service
}

func NewUserRepository(db database.Service) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) collection() *mongo.Collection {
	return r.db.Database().Collection("users")
}

func (r *userRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("email_unique"),
	})
	if err != nil {
		return fmt.Errorf("failed to create users email index: %w", err)
	}
	return nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	qt := utils.StartQueryTimer("create", "user")
	defer qt.Done()

	now := time.Now()
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := r.collection().InsertOne(ctx, user)
	if err != nil {
		qt.Fail()
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateKey
		}
		log.Error().Err(err).Str("email", user.Email).Msg("Failed to insert user into database")
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	qt := utils.StartQueryTimer("findByEmail", "user")
	defer qt.Done()

	var user models.User
	err := r.collection().FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		qt.Fail()
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	return &user, nil
}

func (r *userRepository) FindByID(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	qt := utils.StartQueryTimer("findById", "user")
	defer qt.Done()

	var user models.User
	err := r.collection().FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		qt.Fail()
		return nil, fmt.Errorf("failed to find user by id: %w", err)
	}
	return &user, nil
}

func (r *userRepository) SetVerified(ctx context.Context, userID primitive.ObjectID) (bool, error) {
	qt := utils.StartQueryTimer("setVerified", "user")
	defer qt.Done()

	filter := bson.M{"_id": userID, "isVerified": false}
	update := bson.M{"$set": bson.M{"isVerified": true, "updatedAt": time.Now()}}
	result, err := r.collection().UpdateOne(ctx, filter, update)
	if err != nil {
		qt.Fail()
		log.Error().Err(err).Str("user_id", userID.Hex()).Msg("Error marking user verified")
		return false, fmt.Errorf("failed to mark user verified: %w", err)
	}
	return result.ModifiedCount == 1, nil
}

func (r *userRepository) UpdateLastLogin(ctx context.Context, userID primitive.ObjectID, at time.Time) error {
	qt := utils.StartQueryTimer("updateLastLogin", "user")
	defer qt.Done()

	update := bson.M{"$set": bson.M{"lastLogin": at, "updatedAt": at}}
	result, err := r.collection().UpdateOne(ctx, bson.M{"_id": userID}, update)
	if err != nil {
		qt.Fail()
		return fmt.Errorf("failed to update last login: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepository) CountAll(ctx context.Context) (int64, error) {
	qt := utils.StartQueryTimer("countAll", "user")
	defer qt.Done()

	count, err := r.collection().CountDocuments(ctx, bson.M{})
	if err != nil {
		qt.Fail()
		log.Error().Err(err).Msg("Failed to count total users")
		return 0, fmt.Errorf("failed to count total users: %w", err)
	}
	return count, nil
}
