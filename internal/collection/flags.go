package collection

import (
	"fmt"
	"strings"
)

// Flags configure how a Collection orders, filters, reads and resizes.
// Flags combine with bitwise OR.
type Flags uint8

const (
	// FlagSorted keeps the buffer non-decreasing under the active comparator.
	FlagSorted Flags = 1 << iota
	// FlagUnique rejects comparator-equal duplicates. Implies FlagSorted.
	FlagUnique
	// FlagQueue makes Check and Pick read the head (FIFO) instead of the tail (LIFO).
	FlagQueue
	// FlagUnlimited lets the buffer grow by one chunk when full.
	FlagUnlimited
	// FlagAutoresize also shrinks the buffer when a chunk is free. Implies FlagUnlimited.
	FlagAutoresize
)

var flagNames = []struct {
	flag Flags
	name string
}{
	{FlagSorted, "sorted"},
	{FlagUnique, "unique"},
	{FlagQueue, "queue"},
	{FlagUnlimited, "unlimited"},
	{FlagAutoresize, "autoresize"},
}

// normalize re-derives implied bits.
func normalize(f Flags) Flags {
	if f&FlagUnique != 0 {
		f |= FlagSorted
	}
	if f&FlagAutoresize != 0 {
		f |= FlagUnlimited
	}
	return f
}

// String returns the flag names joined with "|", or "none".
func (f Flags) String() string {
	if f == 0 {
		return "none"
	}
	var parts []string
	for _, n := range flagNames {
		if f&n.flag != 0 {
			parts = append(parts, n.name)
		}
	}
	if rest := f &^ (FlagSorted | FlagUnique | FlagQueue | FlagUnlimited | FlagAutoresize); rest != 0 {
		parts = append(parts, fmt.Sprintf("%#x", uint8(rest)))
	}
	return strings.Join(parts, "|")
}

// ParseFlags combines flag names (as printed by String) into Flags.
func ParseFlags(names ...string) (Flags, error) {
	var f Flags
next:
	for _, raw := range names {
		name := strings.ToLower(strings.TrimSpace(raw))
		if name == "" || name == "none" {
			continue
		}
		for _, n := range flagNames {
			if n.name == name {
				f |= n.flag
				continue next
			}
		}
		return 0, fmt.Errorf("unknown collection flag %q", raw)
	}
	return f, nil
}
