package common

import (
	"github.com/google/uuid"
)

// GenerateUUID generates a UUID string.
func GenerateUUID() string {
	return uuid.New().String()
}

// Float64Ptr returns a pointer to v.
func Float64Ptr(v float64) *float64 {
	return &v
}
