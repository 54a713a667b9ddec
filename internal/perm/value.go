// ABOUTME: Three-valued permission field (inherit, deny, allow) and its 2-bit codec
// ABOUTME: Reads and writes a single field of a 32-bit permission bitmask

package perm

import (
	"fmt"
	"strings"
)

// Value is the decoded state of one 2-bit permission field.
type Value uint8

const (
	Inherit Value = 0
	Deny    Value = 1
	Allow   Value = 2

	// reserved is the unused fourth encoding; it decodes as Inherit.
	reserved Value = 3
)

const (
	fieldMask = 0b11

	// MaxOffset is the highest bit offset an operation may occupy.
	MaxOffset = 30
)

// String returns the lower-case name of the value.
func (v Value) String() string {
	switch v {
	case Inherit:
		return "inherit"
	case Deny:
		return "deny"
	case Allow:
		return "allow"
	default:
		return fmt.Sprintf("value(%d)", uint8(v))
	}
}

// Valid reports whether v is one of Inherit, Deny or Allow.
func (v Value) Valid() bool {
	return v <= Allow
}

// ParseValue parses "inherit", "deny" or "allow" (case-insensitive).
func ParseValue(s string) (Value, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "inherit", "":
		return Inherit, nil
	case "deny":
		return Deny, nil
	case "allow":
		return Allow, nil
	default:
		return Inherit, fmt.Errorf("invalid permission value %q (use inherit, deny or allow)", s)
	}
}

// readField extracts the field at offset. The reserved encoding reads as Inherit.
func readField(bitmask int32, offset uint) Value {
	v := Value((uint32(bitmask) >> offset) & fieldMask)
	if v == reserved {
		return Inherit
	}
	return v
}

// writeField returns bitmask with the field at offset replaced by v.
func writeField(bitmask int32, offset uint, v Value) int32 {
	u := uint32(bitmask)
	u &^= fieldMask << offset
	u |= (uint32(v) & fieldMask) << offset
	return int32(u)
}
