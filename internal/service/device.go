package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/msomdec/course-tracker/internal/domain"
)

// DeviceTokenTTL is the lifetime of a device token.
const DeviceTokenTTL = 365 * 24 * time.Hour

// DeviceService mints and verifies the signed tokens that bind a browser to
// its storage namespace.
type DeviceService struct {
	secret []byte
}

// NewDeviceService creates a DeviceService signing with secret.
func NewDeviceService(secret string) *DeviceService {
	return &DeviceService{secret: []byte(secret)}
}

// Issue creates a new device id and a signed token carrying it.
func (s *DeviceService) Issue() (deviceID, token string, err error) {
	deviceID = uuid.NewString()

	now := time.Now()
	claims := jwt.MapClaims{
		"sub": deviceID,
		"iat": now.Unix(),
		"exp": now.Add(DeviceTokenTTL).Unix(),
	}

	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", "", fmt.Errorf("sign device token: %w", err)
	}
	return deviceID, token, nil
}

// Validate parses a device token and returns the device id from its sub
// claim.
func (s *DeviceService) Validate(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return "", domain.ErrUnauthorized
	}

	sub, err := token.Claims.GetSubject()
	if err != nil {
		return "", domain.ErrUnauthorized
	}

	id, err := uuid.Parse(sub)
	if err != nil {
		return "", domain.ErrUnauthorized
	}

	return id.String(), nil
}
