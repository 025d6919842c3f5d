package utils

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aarambh/internal/models"
)

func TestDecodeJSON_Valid(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@x.com","otp":"123456"}`))

	var body models.VerifyOTPRequest
	require.NoError(t, DecodeJSON(req, &body))
	assert.Equal(t, "a@x.com", body.Email)
	assert.Equal(t, "123456", body.OTP)
}

func TestDecodeJSON_Malformed(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":`))

	var body models.VerifyOTPRequest
	err := DecodeJSON(req, &body)
	assert.True(t, errors.Is(err, ErrInvalidBody))
}

func TestDecodeJSON_ValidationMessages(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@x.com","otp":"12ab"}`))

	var body models.VerifyOTPRequest
	err := DecodeJSON(req, &body)

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "otp must contain only digits", ve.Message)
}

func TestIsValidEmail(t *testing.T) {
	assert.True(t, IsValidEmail("student@aarambh.dev"))
	assert.False(t, IsValidEmail("not-an-email"))
	assert.False(t, IsValidEmail(""))
}

func TestRespondWithError(t *testing.T) {
	rr := httptest.NewRecorder()
	RespondWithError(rr, http.StatusBadRequest, "Email is required")

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"success":false,"message":"Email is required"}`, rr.Body.String())
}
