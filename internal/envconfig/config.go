package envconfig

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/euforicio/bytebpe/internal/logutil"
)

// Clean quotes and spaces from the value
func clean(key string) string {
	return strings.Trim(os.Getenv(key), "\"' ")
}

// Debug enables debug logging. Set via BYTEBPE_DEBUG; "2" enables trace.
func Debug() slog.Level {
	switch v := clean("BYTEBPE_DEBUG"); v {
	case "":
		return slog.LevelInfo
	case "2":
		return logutil.LevelTrace
	default:
		if d, err := strconv.ParseBool(v); err == nil && !d {
			return slog.LevelInfo
		}
		return slog.LevelDebug
	}
}

// NumChunks is the number of corpus chunks to plan. Set via BYTEBPE_NUM_CHUNKS.
func NumChunks() int { return positive("BYTEBPE_NUM_CHUNKS", 16) }

// Workers bounds concurrent pre-tokenization. Set via BYTEBPE_WORKERS.
func Workers() int { return positive("BYTEBPE_WORKERS", runtime.GOMAXPROCS(0)) }

// Strategy names the merge engine. Set via BYTEBPE_STRATEGY.
func Strategy() string { return clean("BYTEBPE_STRATEGY") }

func positive(key string, defaultValue int) int {
	if s := clean(key); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			slog.Warn("invalid setting must be greater than zero, ignoring", "key", key, "value", s, "error", err)
			return defaultValue
		}
		return n
	}
	return defaultValue
}

type EnvVar struct {
	Name        string
	Value       any
	Description string
}

func AsMap() map[string]EnvVar {
	return map[string]EnvVar{
		"BYTEBPE_DEBUG":      {"BYTEBPE_DEBUG", Debug(), "Show additional debug information (e.g. BYTEBPE_DEBUG=1, 2 for trace)"},
		"BYTEBPE_NUM_CHUNKS": {"BYTEBPE_NUM_CHUNKS", NumChunks(), "Number of corpus chunks to pre-tokenize (default 16)"},
		"BYTEBPE_WORKERS":    {"BYTEBPE_WORKERS", Workers(), "Maximum concurrent pre-tokenization workers (default GOMAXPROCS)"},
		"BYTEBPE_STRATEGY":   {"BYTEBPE_STRATEGY", Strategy(), "Merge engine: incremental or naive (default incremental)"},
	}
}

func Values() map[string]string {
	vals := make(map[string]string)
	for k, v := range AsMap() {
		vals[k] = fmt.Sprintf("%v", v.Value)
	}
	return vals
}

// IsSet reports whether key holds a non-empty value.
func IsSet(key string) bool { return clean(key) != "" }
