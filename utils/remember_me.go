package utils

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/rooftrack/rooftrack_backend/security"
)

// RememberedCredentials is the encrypted payload behind a remember-me token.
// The app uses it to pre-fill the sign-in screen, not to mint a session; the
// user still logs in normally.
type RememberedCredentials struct {
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	RepID      string    `json:"repId"`
	UserID     string    `json:"userId"`
	ExpiresAt  time.Time `json:"expiresAt"`
	DeviceInfo string    `json:"deviceInfo"`
}

// GenerateRememberMeToken returns the opaque handle the client stores.
func GenerateRememberMeToken() (string, error) {
	return security.GenerateSecureToken()
}

// encryptionKey returns the 32-byte AES key for credential storage, padded or
// truncated from REMEMBER_ME_ENCRYPTION_KEY.
func encryptionKey() []byte {
	key := os.Getenv("REMEMBER_ME_ENCRYPTION_KEY")
	if key == "" {
		key = "default-encryption-key-32-bytes-long"
	}
	for len(key) < 32 {
		key += "0"
	}
	return []byte(key[:32])
}

func encryptCredentials(credentials RememberedCredentials) (string, error) {
	plaintext, err := json.Marshal(credentials)
	if err != nil {
		return "", err
	}

	block, err := aes.NewCipher(encryptionKey())
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(gcm.Seal(nonce, nonce, plaintext, nil)), nil
}

func decryptCredentials(encoded string) (*RememberedCredentials, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(encryptionKey())
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonceSize := gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, fmt.Errorf("ciphertext too short")
	}
	plaintext, err := gcm.Open(nil, ciphertext[:nonceSize], ciphertext[nonceSize:], nil)
	if err != nil {
		return nil, err
	}

	var credentials RememberedCredentials
	if err := json.Unmarshal(plaintext, &credentials); err != nil {
		return nil, err
	}
	return &credentials, nil
}

func rememberMeKey(token string) string {
	return fmt.Sprintf("remember_me:%s", token)
}

// StoreRememberedCredentials encrypts and parks credentials in Redis. The
// Redis TTL is the real expiry; ExpiresAt inside the payload is advisory for
// the client.
func StoreRememberedCredentials(redisClient *redis.Client, token string, credentials RememberedCredentials, expiration time.Duration) error {
	if redisClient == nil {
		return fmt.Errorf("redis client not available")
	}

	encrypted, err := encryptCredentials(credentials)
	if err != nil {
		return fmt.Errorf("failed to encrypt credentials: %w", err)
	}
	if err := redisClient.Set(context.Background(), rememberMeKey(token), encrypted, expiration).Err(); err != nil {
		return fmt.Errorf("failed to store in redis: %w", err)
	}
	return nil
}

// RetrieveRememberedCredentials loads and decrypts the credentials behind a
// token. Tokens past their advisory expiry are deleted on read.
func RetrieveRememberedCredentials(redisClient *redis.Client, token string) (*RememberedCredentials, error) {
	if redisClient == nil {
		return nil, fmt.Errorf("redis client not available")
	}

	ctx := context.Background()
	encrypted, err := redisClient.Get(ctx, rememberMeKey(token)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("remember me token not found or expired")
		}
		return nil, fmt.Errorf("redis error: %w", err)
	}

	credentials, err := decryptCredentials(encrypted)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt credentials: %w", err)
	}
	if time.Now().After(credentials.ExpiresAt) {
		redisClient.Del(ctx, rememberMeKey(token))
		return nil, fmt.Errorf("remember me token expired")
	}
	return credentials, nil
}

// RemoveRememberedCredentials drops a token, e.g. when the user signs out of
// a remembered device.
func RemoveRememberedCredentials(redisClient *redis.Client, token string) error {
	if redisClient == nil {
		return fmt.Errorf("redis client not available")
	}
	if err := redisClient.Del(context.Background(), rememberMeKey(token)).Err(); err != nil {
		return fmt.Errorf("failed to remove from redis: %w", err)
	}
	return nil
}
