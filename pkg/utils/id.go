package utils

import (
	"fmt"

	"github.com/google/uuid"
)

// GenerateTrackID generates a unique native track ID
func GenerateTrackID(kind string) string {
	return fmt.Sprintf("track_%s_%s", kind, uuid.NewString())
}

// GenerateSessionID generates a unique session ID
func GenerateSessionID() string {
	return fmt.Sprintf("session_%s", uuid.NewString())
}

// GenerateRequestID generates a unique request ID
func GenerateRequestID() string {
	return fmt.Sprintf("req_%s", uuid.NewString())
}
