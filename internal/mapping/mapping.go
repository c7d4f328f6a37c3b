// Package mapping holds the static recipient-to-destination address table.
package mapping

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Table maps normalized corporate addresses to forwarding destinations.
// It is built once at startup and never mutated afterwards.
type Table map[string]string

// Normalize canonicalizes an email address for table lookups:
// lower-cased and stripped of surrounding whitespace.
func Normalize(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}

// ParseTable decodes a JSON object of address-to-address pairs,
// normalizing every key. An empty input yields an empty table.
func ParseTable(data string) (Table, error) {
	if strings.TrimSpace(data) == "" {
		return Table{}, nil
	}

	var raw map[string]string
	if err := json.Unmarshal([]byte(data), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse mapping table: %w", err)
	}

	t := make(Table, len(raw))
	for addr, dest := range raw {
		t[Normalize(addr)] = dest
	}
	return t, nil
}

// Resolve looks up the forwarding destination for an address.
// The input is normalized before lookup. A missing entry is not an
// error; it means the address is not forwarded.
func (t Table) Resolve(addr string) (string, bool) {
	dest, ok := t[Normalize(addr)]
	return dest, ok
}
