package scenario

import (
	"fmt"
	"strings"

	"github.com/louisbranch/sinkline/internal/services/match/domain/board"
)

// assertf reports a failed expectation. In strict mode it becomes the step
// error; in log mode it is recorded and the run continues.
func (r *Runner) assertf(format string, args ...any) error {
	if r.assertions == AssertionStrict {
		return fmt.Errorf(format, args...)
	}
	if r.logger != nil {
		r.logger.Printf("assertion failed: "+format, args...)
	}
	return nil
}

func parseSide(value string) (board.Side, error) {
	side := board.Side(strings.ToUpper(strings.TrimSpace(value)))
	if !side.Valid() {
		return "", fmt.Errorf("invalid side %q", value)
	}
	return side, nil
}

func requiredString(args map[string]any, key string) string {
	value, _ := args[key].(string)
	return value
}

func optionalString(args map[string]any, key, fallback string) string {
	if value, ok := args[key].(string); ok && value != "" {
		return value
	}
	return fallback
}

func readInt(args map[string]any, key string) (int, bool) {
	switch value := args[key].(type) {
	case int:
		return value, true
	case float64:
		return int(value), true
	default:
		return 0, false
	}
}

func optionalInt(args map[string]any, key string, fallback int) int {
	if value, ok := readInt(args, key); ok {
		return value
	}
	return fallback
}

func optionalBool(args map[string]any, key string, fallback bool) bool {
	if value, ok := args[key].(bool); ok {
		return value
	}
	return fallback
}

func stringSlice(args map[string]any, key string) []string {
	items, ok := args[key].([]any)
	if !ok {
		return nil
	}
	values := make([]string, 0, len(items))
	for _, item := range items {
		if value, ok := item.(string); ok {
			values = append(values, value)
		}
	}
	return values
}

func intSlice(args map[string]any, key string) []int {
	items, ok := args[key].([]any)
	if !ok {
		return nil
	}
	values := make([]int, 0, len(items))
	for _, item := range items {
		switch value := item.(type) {
		case int:
			values = append(values, value)
		case float64:
			values = append(values, int(value))
		}
	}
	return values
}
