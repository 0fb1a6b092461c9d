package helpers

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// IDGenerator generates various types of IDs
type IDGenerator struct {
	rand *rand.Rand
}

// NewIDGenerator creates a new ID generator
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{
		rand: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// GenerateUUID generates a UUID v4
func (g *IDGenerator) GenerateUUID() string {
	return uuid.New().String()
}

// GenerateRewardReference generates a reward reference code (VARCHAR format)
// Format: RWD-YYYYMMDD-XXXXXX (e.g., RWD-20260831-A1B2C3)
func (g *IDGenerator) GenerateRewardReference() string {
	now := time.Now()
	dateStr := now.Format("20060102")

	suffix := g.randomAlphanumeric(6)

	return fmt.Sprintf("RWD-%s-%s", dateStr, suffix)
}

// randomAlphanumeric generates a random alphanumeric string of given length
func (g *IDGenerator) randomAlphanumeric(length int) string {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, length)
	for i := range b {
		b[i] = charset[g.rand.Intn(len(charset))]
	}
	return string(b)
}
