// Package parser extracts embedded image URLs from decoded JSON documents.
package parser

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrKeyNotFound is returned when a key of the path is absent.
	ErrKeyNotFound = errors.New("parser: key not found")
	// ErrNotURL is returned when the resolved value is not an http(s) URL string.
	ErrNotURL = errors.New("parser: value is not a URL")
)

// Decode parses a JSON document into generic values.
func Decode(data []byte) (any, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	return doc, nil
}

// Traverse walks keys left to right. Objects are indexed by key name,
// arrays by a decimal index.
func Traverse(doc any, keys []string) (any, error) {
	current := doc
	for i, key := range keys {
		switch node := current.(type) {
		case map[string]any:
			next, ok := node[key]
			if !ok {
				return nil, fmt.Errorf("%w: %q at position %d", ErrKeyNotFound, key, i)
			}
			current = next
		case []any:
			idx, err := strconv.Atoi(key)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, fmt.Errorf("%w: index %q at position %d", ErrKeyNotFound, key, i)
			}
			current = node[idx]
		default:
			return nil, fmt.Errorf("%w: %q at position %d", ErrKeyNotFound, key, i)
		}
	}
	return current, nil
}

// ExtractURL resolves keys on doc and checks the result is an http URL.
func ExtractURL(doc any, keys []string) (string, error) {
	value, err := Traverse(doc, keys)
	if err != nil {
		return "", err
	}
	s, ok := value.(string)
	if !ok || !IsHTTPURL(s) {
		return "", fmt.Errorf("%w: %v", ErrNotURL, value)
	}
	return s, nil
}

// IsHTTPURL reports whether s starts with the http scheme prefix.
func IsHTTPURL(s string) bool {
	return strings.HasPrefix(s, "http")
}
