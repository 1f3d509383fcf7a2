// utils/otp.go
package utils

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/go-redis/redis/v8"
)

// otpAttemptLimit caps password-reset codes issued per account per hour.
const otpAttemptLimit = 5

// GenerateSecureOTP returns a 6-digit numeric reset code from crypto/rand.
func GenerateSecureOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// ValidateOTPAttempts counts reset requests for one account in Redis and
// rejects requests past the hourly limit.
func ValidateOTPAttempts(userID string, redis *redis.Client) error {
	key := "otp_attempts:" + userID
	attempts, err := redis.Incr(context.Background(), key).Result()
	if err != nil {
		return err
	}
	if attempts == 1 {
		redis.Expire(context.Background(), key, time.Hour)
	}
	if attempts > otpAttemptLimit {
		return errors.New("too many OTP attempts")
	}
	return nil
}
