package main

import (
	"fmt"
	"time"
)

// formatSeconds renders d the way the reference CLI's Instant::elapsed
// timers print: seconds as a float with no fixed precision.
func formatSeconds(d time.Duration) string {
	return fmt.Sprintf("%g", d.Seconds())
}
