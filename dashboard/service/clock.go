package service

import (
	"fmt"
	"time"
)

func nowISO() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// syntheticID is the local fallback identifier used when the agent did not
// supply one: a fixed prefix plus the current epoch millis.
func syntheticID(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, time.Now().UnixMilli())
}
