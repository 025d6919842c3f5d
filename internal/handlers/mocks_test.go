package handlers

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"aarambh/internal/models"
	"aarambh/internal/services"
)

type mockAuthService struct{ mock.Mock }

func (m *mockAuthService) Login(ctx context.Context, creds *models.Login) (*models.AuthResult, error) {
	args := m.Called(ctx, creds)
	if r, _ := args.Get(0).(*models.AuthResult); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockAuthService) VerifyOTP(ctx context.Context, email, code string) (*services.VerifyResult, error) {
	args := m.Called(ctx, email, code)
	if r, _ := args.Get(0).(*services.VerifyResult); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockAuthService) SendWelcome(ctx context.Context, email, name string) (services.DeliveryResult, error) {
	args := m.Called(ctx, email, name)
	return args.Get(0).(services.DeliveryResult), args.Error(1)
}

type mockOTPService struct{ mock.Mock }

func (m *mockOTPService) Send(ctx context.Context, email, name string) (*services.IssueResult, error) {
	args := m.Called(ctx, email, name)
	if r, _ := args.Get(0).(*services.IssueResult); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockOTPService) Resend(ctx context.Context, email, name string) (*services.IssueResult, error) {
	args := m.Called(ctx, email, name)
	if r, _ := args.Get(0).(*services.IssueResult); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockOTPService) Verify(ctx context.Context, email, code string) error {
	return m.Called(ctx, email, code).Error(0)
}
func (m *mockOTPService) StartJanitor(ctx context.Context, interval time.Duration) {
	m.Called(ctx, interval)
}

type mockUserService struct{ mock.Mock }

func (m *mockUserService) RegisterUser(ctx context.Context, req *models.Register) (*models.User, error) {
	args := m.Called(ctx, req)
	if u, _ := args.Get(0).(*models.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserService) GetUserProfile(ctx context.Context, userID primitive.ObjectID) (*models.PublicProfile, error) {
	args := m.Called(ctx, userID)
	if p, _ := args.Get(0).(*models.PublicProfile); p != nil {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserService) GetTotalUsers(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}
func (m *mockUserService) StartGaugeUpdater(ctx context.Context, interval time.Duration) {
	m.Called(ctx, interval)
}

// MockDBService is a mock implementation of database.Service for testing
type MockDBService struct {
	health map[string]string
}

func (m *MockDBService) Health() map[string]string {
	out := make(map[string]string, len(m.health))
	for k, v := range m.health {
		out[k] = v
	}
	return out
}
func (m *MockDBService) Client() *mongo.Client           { return nil }
func (m *MockDBService) Database() *mongo.Database       { return nil }
func (m *MockDBService) Close(ctx context.Context) error { return nil }
