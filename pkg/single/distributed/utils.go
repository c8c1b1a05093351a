package distributed

import (
	"crypto/rand"
	"fmt"
	"os"
	"strconv"
	"time"
)

// generateInstanceID creates a unique identifier for this application instance.
func generateInstanceID() string {
	hostname, _ := os.Hostname()
	pid := os.Getpid()

	// Add random bytes for uniqueness
	randomBytes := make([]byte, 4)
	_, _ = rand.Read(randomBytes)

	return fmt.Sprintf("%s-%d-%x-%d",
		hostname, pid, randomBytes, time.Now().Unix())
}

// onceKeys generates Redis keys for the coordination data structures.
func onceKeys(prefix string) map[string]string {
	return map[string]string{
		"done":      prefix + ":done",
		"claim":     prefix + ":claim",
		"stats":     prefix + ":stats",
		"instances": prefix + ":instances",
	}
}

// parseCounter converts a Redis hash field to an int64, defaulting to 0.
func parseCounter(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
