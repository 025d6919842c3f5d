package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const otpChars = "0123456789"

var otpCharsLength = big.NewInt(int64(len(otpChars)))

// GenerateSecureOTP returns a numeric code of the given length drawn uniformly from crypto/rand.
func GenerateSecureOTP(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("invalid OTP length %d", length)
	}

	buffer := make([]byte, length)
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, otpCharsLength)
		if err != nil {
			return "", err
		}
		buffer[i] = otpChars[n.Int64()]
	}

	return string(buffer), nil
}
