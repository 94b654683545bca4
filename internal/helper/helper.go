package helper

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var durationPattern = regexp.MustCompile(`(\d+)(ms|[smhdM])`)

func GenerateRandomID() string {
	b := make([]byte, 4)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// ParseDuration accepts compound values such as "1h30m", "500ms" or "2d".
// "M" is a 30 day month. A leading "-" negates the whole value so callers can
// reject it. Invalid input falls back to defaultValue.
func ParseDuration(input string, defaultValue string) time.Duration {
	matches := durationPattern.FindAllStringSubmatch(input, -1)

	if len(matches) == 0 {
		if input != "" {
			log.Printf("invalid duration string: %s", input)
		}
		return ParseDuration(defaultValue, "1s")
	}

	var total time.Duration
	for _, match := range matches {
		value, _ := strconv.Atoi(match[1])
		unit := match[2]

		switch unit {
		case "ms":
			total += time.Duration(value) * time.Millisecond
		case "s":
			total += time.Duration(value) * time.Second
		case "m":
			total += time.Duration(value) * time.Minute
		case "h":
			total += time.Duration(value) * time.Hour
		case "d":
			total += time.Duration(value) * 24 * time.Hour
		case "M":
			total += time.Duration(value) * 24 * time.Hour * 30
		}
	}

	if strings.HasPrefix(strings.TrimSpace(input), "-") {
		total = -total
	}

	return total
}
