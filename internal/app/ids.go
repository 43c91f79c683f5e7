package app

import (
	"time"

	"github.com/google/uuid"
)

// IDGenerator issues session and player identifiers.
//
//go:generate mockgen -package=mocks -destination=mocks/mock_ids.go quiz-duel-service/internal/app IDGenerator
type IDGenerator interface {
	NewID() string
}

// UUIDGenerator issues random (v4) UUIDs.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string {
	return uuid.NewString()
}

// Clock abstracts time for eviction and completion timestamps.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
