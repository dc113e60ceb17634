package utils

import (
	"strings"

	"github.com/google/uuid"
)

// NewID returns a 32-char hex id (a dashless UUIDv4).
func NewID() string { return strings.ReplaceAll(uuid.NewString(), "-", "") }

// NormalizeEmail trims and lowercases an email so lookups and the unique
// index agree.
func NormalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
