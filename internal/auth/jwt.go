package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"callcrm-backend/internal/models"
)

var jwtSecret []byte

// Claims represents JWT claims
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// InitJWT initializes JWT secret from environment
func InitJWT() {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET environment variable is required")
	}
	jwtSecret = []byte(secret)
}

// GenerateToken generates a JWT token for a profile
func GenerateToken(profile models.Profile) (string, time.Time, error) {
	return GenerateTokenWithTTL(profile, 24*time.Hour)
}

// GenerateTokenWithTTL generates a JWT token with custom TTL
func GenerateTokenWithTTL(profile models.Profile, ttl time.Duration) (string, time.Time, error) {
	expiry := time.Now().Add(ttl)

	claims := &Claims{
		UserID: profile.ID,
		Email:  profile.Email,
		Role:   profile.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiry),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(jwtSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, expiry, nil
}

// ParseToken parses and validates a JWT token
func ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return jwtSecret, nil
	})

	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token claims")
}

// IsTokenBlacklisted checks if a token is blacklisted
func IsTokenBlacklisted(db *gorm.DB, tokenString string) bool {
	if db == nil {
		return false
	}

	var count int64
	db.Model(&models.TokenBlacklist{}).Where("token_hash = ?", hashToken(tokenString)).Count(&count)
	return count > 0
}

// BlacklistToken adds a token to the blacklist
func BlacklistToken(db *gorm.DB, tokenString, userID string, expiry time.Time) {
	if db == nil {
		return
	}

	db.Create(&models.TokenBlacklist{
		TokenHash: hashToken(tokenString),
		UserID:    userID,
		ExpiresAt: expiry,
	})
}

// CleanupTokenBlacklist removes expired tokens from the blacklist
func CleanupTokenBlacklist(db *gorm.DB) {
	if db == nil {
		return
	}

	result := db.Where("expires_at < ?", time.Now()).Delete(&models.TokenBlacklist{})
	if result.Error == nil && result.RowsAffected > 0 {
		log.Infof("cleaned up %d expired tokens from blacklist", result.RowsAffected)
	}
}

func hashToken(tokenString string) string {
	hash := sha256.Sum256([]byte(tokenString))
	return hex.EncodeToString(hash[:])
}
