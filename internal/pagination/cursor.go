package pagination

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"
)

// Cursor marks a position in a keyset-paginated listing.
type Cursor struct {
	LastID    string    `json:"last_id"`
	Timestamp time.Time `json:"timestamp"`
}

// EncodeCursor produces an opaque token for the given position.
func EncodeCursor(lastID string, timestamp time.Time) string {
	c := Cursor{LastID: lastID, Timestamp: timestamp}
	data, err := json.Marshal(c)
	if err != nil {
		return ""
	}
	return base64.URLEncoding.EncodeToString(data)
}

// DecodeCursor parses a token produced by EncodeCursor. An empty token
// returns a nil cursor, meaning start from the beginning.
func DecodeCursor(token string) (*Cursor, error) {
	if token == "" {
		return nil, nil
	}

	data, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor encoding: %w", err)
	}

	var c Cursor
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("invalid cursor format: %w", err)
	}

	return &c, nil
}
