package services

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"aarambh/internal/models"
)

// --- clock ---

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// --- mocks ---

type mockUserRepo struct{ mock.Mock }

func (m *mockUserRepo) EnsureIndexes(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
func (m *mockUserRepo) Create(ctx context.Context, user *models.User) (*models.User, error) {
	args := m.Called(ctx, user)
	if fn, ok := args.Get(0).(func(context.Context, *models.User) *models.User); ok {
		return fn(ctx, user), args.Error(1)
	}
	if u, _ := args.Get(0).(*models.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if u, _ := args.Get(0).(*models.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserRepo) FindByID(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*models.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserRepo) SetVerified(ctx context.Context, userID primitive.ObjectID) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}
func (m *mockUserRepo) UpdateLastLogin(ctx context.Context, userID primitive.ObjectID, at time.Time) error {
	return m.Called(ctx, userID, at).Error(0)
}
func (m *mockUserRepo) CountAll(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type mockMailer struct{ mock.Mock }

func (m *mockMailer) SendOTPEmail(ctx context.Context, to, code, displayName string) (DeliveryResult, error) {
	args := m.Called(ctx, to, code, displayName)
	return args.Get(0).(DeliveryResult), args.Error(1)
}
func (m *mockMailer) SendWelcomeEmail(ctx context.Context, to, displayName string) (DeliveryResult, error) {
	args := m.Called(ctx, to, displayName)
	return args.Get(0).(DeliveryResult), args.Error(1)
}
