// Package cache memoizes expensive pipeline results (verified concepts and
// the question history mirror) in a pluggable key/value store.
package cache

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"math"
	"time"
)

// HistoryKey is the key the question history is mirrored under.
const HistoryKey = "global_quiz_history"

var (
	// ErrNotFound is returned by Load for a missing key.
	ErrNotFound = errors.New("cache: not found")

	// ErrNotContainer is returned by Save when the value is not a JSON
	// object or array.
	ErrNotContainer = errors.New("cache: value must be a JSON object or array")

	// ErrInvalidKey is returned for keys that are empty or contain a path
	// separator.
	ErrInvalidKey = errors.New("cache: invalid key")
)

// Stats summarizes a store's contents.
type Stats struct {
	Backend   string    `json:"backend"`
	Entries   int       `json:"total_files"`
	SizeBytes int64     `json:"total_size_bytes"`
	Oldest    time.Time `json:"oldest_file,omitempty"`
	Newest    time.Time `json:"newest_file,omitempty"`
}

// SizeMB returns the total size in megabytes rounded to two decimals.
func (s Stats) SizeMB() float64 {
	return math.Round(float64(s.SizeBytes)/(1024*1024)*100) / 100
}

// Store is a JSON key/value cache.
type Store interface {
	Exists(ctx context.Context, key string) (bool, error)
	// Load returns the raw JSON stored under key, or ErrNotFound.
	Load(ctx context.Context, key string) ([]byte, error)
	// Save stores value, which must marshal to a JSON object or array.
	Save(ctx context.Context, key string, value any) error
	// Delete reports whether the key existed.
	Delete(ctx context.Context, key string) (bool, error)
	// Clear removes entries older than maxAge, or everything when maxAge is
	// zero, and returns how many were removed.
	Clear(ctx context.Context, maxAge time.Duration) (int, error)
	Stats(ctx context.Context) (Stats, error)
}

// HashNote returns the hex SHA-256 digest of a note's text.
func HashNote(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// ConceptsKey returns the key verified concepts for a note hash live under.
func ConceptsKey(hash string) string {
	return "verified_" + hash
}

// LoadJSON loads key and decodes it into dst.
func LoadJSON(ctx context.Context, s Store, key string, dst any) error {
	raw, err := s.Load(ctx, key)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}

// encodeValue marshals value and checks it is a JSON container.
func encodeValue(value any) ([]byte, error) {
	var data []byte
	switch v := value.(type) {
	case json.RawMessage:
		data = v
	case []byte:
		data = v
	default:
		var err error
		data, err = json.MarshalIndent(value, "", "  ")
		if err != nil {
			return nil, err
		}
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || (trimmed[0] != '{' && trimmed[0] != '[') || !json.Valid(trimmed) {
		return nil, ErrNotContainer
	}
	return trimmed, nil
}
