package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"aarambh/internal/models"
	"aarambh/internal/repositories"
)

type authFixture struct {
	svc    AuthService
	otp    OTPService
	tokens TokenService
	users  *mockUserRepo
	mailer *mockMailer
	clock  *fakeClock
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	f := &authFixture{
		users:  &mockUserRepo{},
		mailer: &mockMailer{},
		clock:  newFakeClock(time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)),
	}
	f.mailer.On("SendOTPEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(DeliveryResult{MessageID: "msg-1"}, nil).Maybe()

	tokens, err := NewTokenService(testSecret, 7*24*time.Hour, f.clock)
	require.NoError(t, err)
	f.tokens = tokens
	f.otp = NewOTPService(testOTPConfig, repositories.NewMemoryOTPStore(), f.users, f.mailer, f.clock)
	f.svc = NewAuthService(f.users, f.otp, tokens, f.mailer, f.clock)
	return f
}

func hashed(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func TestAuthService_LoginInvalidCredentialsAreIndistinguishable(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	f.users.On("FindByEmail", mock.Anything, "ghost@x.com").Return(nil, repositories.ErrNotFound)
	f.users.On("FindByEmail", mock.Anything, "a@x.com").Return(&models.User{
		ID:         primitive.NewObjectID(),
		Email:      "a@x.com",
		Password:   hashed(t, "correct-horse"),
		IsVerified: true,
	}, nil)

	_, errUnknown := f.svc.Login(ctx, &models.Login{Email: "ghost@x.com", Password: "whatever"})
	_, errWrong := f.svc.Login(ctx, &models.Login{Email: "a@x.com", Password: "wrong"})

	assert.ErrorIs(t, errUnknown, ErrInvalidCredentials)
	assert.ErrorIs(t, errWrong, ErrInvalidCredentials)
	assert.Equal(t, errUnknown.Error(), errWrong.Error())
}

func TestAuthService_LoginUnverifiedRequiresVerification(t *testing.T) {
	f := newAuthFixture(t)

	f.users.On("FindByEmail", mock.Anything, "a@x.com").Return(&models.User{
		ID:       primitive.NewObjectID(),
		Email:    "a@x.com",
		Password: hashed(t, "secret1"),
	}, nil)

	res, err := f.svc.Login(context.Background(), &models.Login{Email: "A@x.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrRequiresVerification)
	assert.Nil(t, res)
	f.users.AssertNotCalled(t, "UpdateLastLogin", mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthService_LoginSuccess(t *testing.T) {
	f := newAuthFixture(t)
	id := primitive.NewObjectID()

	f.users.On("FindByEmail", mock.Anything, "a@x.com").Return(&models.User{
		ID:         id,
		Name:       "Asha",
		Email:      "a@x.com",
		Password:   hashed(t, "secret1"),
		Role:       models.RoleStudent,
		IsVerified: true,
	}, nil)
	f.users.On("UpdateLastLogin", mock.Anything, id, f.clock.Now()).Return(nil)

	res, err := f.svc.Login(context.Background(), &models.Login{Email: "a@x.com", Password: "secret1"})
	require.NoError(t, err)

	assert.Equal(t, id.Hex(), res.User.ID)
	assert.Equal(t, "Asha", res.User.Name)
	require.NotNil(t, res.User.LastLogin)
	assert.Equal(t, f.clock.Now(), *res.User.LastLogin)
	assert.Equal(t, f.clock.Now().Add(7*24*time.Hour).Unix(), res.ExpiresAt)

	claims, err := f.tokens.Parse(res.Token)
	require.NoError(t, err)
	assert.Equal(t, id.Hex(), claims.ID)
	f.users.AssertExpectations(t)
}

func TestAuthService_LoginRepositoryFailure(t *testing.T) {
	f := newAuthFixture(t)
	boom := errors.New("connection reset")
	f.users.On("FindByEmail", mock.Anything, "a@x.com").Return(nil, boom)

	_, err := f.svc.Login(context.Background(), &models.Login{Email: "a@x.com", Password: "x"})
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_VerifyFlipsFlagAndIssuesToken(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	id := primitive.NewObjectID()

	f.users.On("FindByEmail", mock.Anything, "a@x.com").Return(&models.User{
		ID:    id,
		Name:  "Asha",
		Email: "a@x.com",
	}, nil)
	f.users.On("SetVerified", mock.Anything, id).Return(true, nil).Once()

	issued, err := f.otp.Send(ctx, "a@x.com", "")
	require.NoError(t, err)
	require.Len(t, issued.Code, 6)

	res, err := f.svc.VerifyOTP(ctx, "a@x.com", issued.Code)
	require.NoError(t, err)
	assert.True(t, res.AccountVerified)
	require.NotNil(t, res.Auth)
	assert.True(t, res.Auth.User.IsVerified)

	claims, err := f.tokens.Parse(res.Auth.Token)
	require.NoError(t, err)
	assert.Equal(t, id.Hex(), claims.ID)

	_, err = f.svc.VerifyOTP(ctx, "a@x.com", issued.Code)
	assert.ErrorIs(t, err, ErrOTPAlreadyConsumed)
	f.users.AssertExpectations(t)
}

func TestAuthService_VerifyWithoutAccount(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	f.users.On("FindByEmail", mock.Anything, "guest@x.com").Return(nil, repositories.ErrNotFound)

	issued, err := f.otp.Send(ctx, "guest@x.com", "Guest")
	require.NoError(t, err)

	res, err := f.svc.VerifyOTP(ctx, "guest@x.com", issued.Code)
	require.NoError(t, err)
	assert.False(t, res.AccountVerified)
	assert.Nil(t, res.Auth)
	f.users.AssertNotCalled(t, "SetVerified", mock.Anything, mock.Anything)
}

func TestAuthService_VerifyAfterExpiry(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	issued, err := f.otp.Send(ctx, "a@x.com", "A")
	require.NoError(t, err)

	f.clock.Advance(11 * time.Minute)
	_, err = f.svc.VerifyOTP(ctx, "a@x.com", issued.Code)
	assert.ErrorIs(t, err, ErrOTPExpired)
	f.users.AssertNotCalled(t, "SetVerified", mock.Anything, mock.Anything)
}

func TestAuthService_VerifyOriginalCodeAfterResend(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	first, err := f.otp.Send(ctx, "a@x.com", "A")
	require.NoError(t, err)
	second, err := f.otp.Resend(ctx, "a@x.com", "A")
	require.NoError(t, err)
	if first.Code == second.Code {
		t.Skip("resend drew the same code")
	}

	_, err = f.svc.VerifyOTP(ctx, "a@x.com", first.Code)
	assert.ErrorIs(t, err, ErrOTPMismatch)
}

func TestAuthService_SendWelcome(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	f.mailer.On("SendWelcomeEmail", mock.Anything, "a@x.com", "User").Return(DeliveryResult{MessageID: "w-1"}, nil)

	res, err := f.svc.SendWelcome(ctx, "A@X.com", "")
	require.NoError(t, err)
	assert.Equal(t, "w-1", res.MessageID)

	_, err = f.svc.SendWelcome(ctx, "nope", "A")
	assert.ErrorIs(t, err, ErrInvalidEmail)
}
