package treelog

import (
	"math"
	"strconv"
	"strings"
)

// Level is an ordered, named severity. Comparisons use Value only; a higher
// value is more severe. The predeclared levels leave room between their
// values for custom intermediates.
type Level struct {
	Value int32
	Name  string
}

// Predeclared levels, least to most severe. LevelAll and LevelOff exist for
// thresholds and are not meant for emission.
var (
	LevelAll   = Level{math.MinInt32, "ALL"}
	LevelTrace = Level{10000, "TRACE"}
	LevelDebug = Level{20000, "DEBUG"}
	LevelInfo  = Level{30000, "INFO"}
	LevelWarn  = Level{40000, "WARN"}
	LevelError = Level{50000, "ERROR"}
	LevelFatal = Level{60000, "FATAL"}
	LevelOff   = Level{math.MaxInt32, "OFF"}
)

// ParseLevel resolves a level by name, case-insensitively. A few common
// aliases are accepted. ok is false for unknown names; callers decide whether
// that is an error or an ignored configuration value.
func ParseLevel(name string) (l Level, ok bool) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "ALL":
		return LevelAll, true
	case "TRACE", "VERBOSE":
		return LevelTrace, true
	case "DEBUG":
		return LevelDebug, true
	case "INFO":
		return LevelInfo, true
	case "WARN", "WARNING":
		return LevelWarn, true
	case "ERROR":
		return LevelError, true
	case "FATAL", "CRITICAL", "SEVERE":
		return LevelFatal, true
	case "OFF":
		return LevelOff, true
	}
	return Level{}, false
}

// IsGreaterOrEqual reports whether l is at least as severe as other.
func (l Level) IsGreaterOrEqual(other Level) bool {
	return l.Value >= other.Value
}

func (l Level) String() string {
	if l.Name != "" {
		return l.Name
	}
	return strconv.Itoa(int(l.Value))
}
