package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"aarambh/internal/database"
	"aarambh/internal/models"
	"aarambh/internal/utils"
)

// OTPRetention keeps expired entries around long enough to answer Expired instead of NotFound.
const OTPRetention = 24 * time.Hour

type mongoOTPStore struct {
	db database.Service
}

func NewMongoOTPStore(db database.Service) OTPStore {
	return &mongoOTPStore{db: db}
}

func (s *mongoOTPStore) collection() *mongo.Collection {
	return s.db.Database().Collection("otps")
}

// EnsureIndexes creates the unique email index and the TTL index that reaps old entries.
func (s *mongoOTPStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.collection().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("email_unique"),
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(OTPRetention.Seconds())).SetName("expires_at_ttl"),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create otps indexes: %w", err)
	}
	return nil
}

func (s *mongoOTPStore) Name() string {
	return "mongo"
}

func (s *mongoOTPStore) Put(ctx context.Context, otp *models.PendingOTP) error {
	qt := utils.StartQueryTimer("put", "otp")
	defer qt.Done()

	opts := options.Replace().SetUpsert(true)
	if _, err := s.collection().ReplaceOne(ctx, bson.M{"email": otp.Email}, otp, opts); err != nil {
		qt.Fail()
		return fmt.Errorf("failed to store otp: %w", err)
	}
	return nil
}

func (s *mongoOTPStore) Get(ctx context.Context, email string) (*models.PendingOTP, error) {
	qt := utils.StartQueryTimer("get", "otp")
	defer qt.Done()

	var otp models.PendingOTP
	err := s.collection().FindOne(ctx, bson.M{"email": email}).Decode(&otp)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		qt.Fail()
		return nil, fmt.Errorf("failed to load otp: %w", err)
	}
	return &otp, nil
}

func (s *mongoOTPStore) Delete(ctx context.Context, email string) error {
	qt := utils.StartQueryTimer("delete", "otp")
	defer qt.Done()

	if _, err := s.collection().DeleteOne(ctx, bson.M{"email": email}); err != nil {
		qt.Fail()
		return fmt.Errorf("failed to delete otp: %w", err)
	}
	return nil
}

// usableFilter matches the entry only while it can still be consumed or charged an attempt.
func usableFilter(email, code string, maxAttempts int) bson.M {
	filter := bson.M{"email": email, "code": code, "consumed": false}
	if maxAttempts > 0 {
		filter["attempts"] = bson.M{"$lt": maxAttempts}
	}
	return filter
}

func (s *mongoOTPStore) Consume(ctx context.Context, email, code string, maxAttempts int) error {
	qt := utils.StartQueryTimer("consume", "otp")
	defer qt.Done()

	filter := usableFilter(email, code, maxAttempts)
	result, err := s.collection().UpdateOne(ctx, filter, bson.M{"$set": bson.M{"consumed": true}})
	if err != nil {
		qt.Fail()
		return fmt.Errorf("failed to consume otp: %w", err)
	}
	if result.MatchedCount == 1 {
		return nil
	}
	return s.classifyMiss(ctx, qt, email, code, maxAttempts)
}

func (s *mongoOTPStore) RecordAttempt(ctx context.Context, email, code string, maxAttempts int) (int, error) {
	qt := utils.StartQueryTimer("recordAttempt", "otp")
	defer qt.Done()

	filter := usableFilter(email, code, maxAttempts)
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var otp models.PendingOTP
	err := s.collection().FindOneAndUpdate(ctx, filter, bson.M{"$inc": bson.M{"attempts": 1}}, opts).Decode(&otp)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, s.classifyMiss(ctx, qt, email, code, maxAttempts)
		}
		qt.Fail()
		return 0, fmt.Errorf("failed to record otp attempt: %w", err)
	}
	return otp.Attempts, nil
}

// classifyMiss explains why a conditional update matched nothing.
func (s *mongoOTPStore) classifyMiss(ctx context.Context, qt *utils.QueryTimer, email, code string, maxAttempts int) error {
	var otp models.PendingOTP
	err := s.collection().FindOne(ctx, bson.M{"email": email}).Decode(&otp)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrNotFound
		}
		qt.Fail()
		return fmt.Errorf("failed to load otp: %w", err)
	}
	if err := checkUsable(&otp, code, maxAttempts); err != nil {
		return err
	}
	// The entry changed between the update and the read.
	return ErrStaleOTP
}

func (s *mongoOTPStore) Purge(ctx context.Context, cutoff time.Time) (int, error) {
	qt := utils.StartQueryTimer("purge", "otp")
	defer qt.Done()

	result, err := s.collection().DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lt": cutoff}})
	if err != nil {
		qt.Fail()
		return 0, fmt.Errorf("failed to purge otps: %w", err)
	}
	return int(result.DeletedCount), nil
}
