package object

import (
	"fmt"
	"strconv"
	"strings"
)

// Capability is a bitmask naming the roles an object may be used in.
// An object may carry several capabilities at once.
type Capability uint64

const (
	// CapObject is carried by every initialized object.
	CapObject Capability = 1 << iota
	// CapCollection marks collection.Collection values.
	CapCollection
)

var capabilityNames = []struct {
	bit  Capability
	name string
}{
	{CapObject, "object"},
	{CapCollection, "collection"},
}

// Has reports whether c satisfies mask. A zero mask is satisfied by any
// capability set; otherwise at least one bit of mask must be present.
func (c Capability) Has(mask Capability) bool {
	return mask == 0 || c&mask != 0
}

// String returns the capability names joined with "|". Bits without a name
// are rendered in hex.
func (c Capability) String() string {
	if c == 0 {
		return "none"
	}

	var parts []string
	rest := c
	for _, n := range capabilityNames {
		if c&n.bit != 0 {
			parts = append(parts, n.name)
			rest &^= n.bit
		}
	}
	if rest != 0 {
		parts = append(parts, fmt.Sprintf("%#x", uint64(rest)))
	}
	return strings.Join(parts, "|")
}

// ParseCapability combines capability names into a mask.
// Accepts the names printed by String as well as numeric literals
// ("0x10", "32") for application-defined bits.
func ParseCapability(names ...string) (Capability, error) {
	var c Capability
	for _, raw := range names {
		name := strings.ToLower(strings.TrimSpace(raw))
		if name == "" {
			continue
		}
		if bit, ok := lookupCapability(name); ok {
			c |= bit
			continue
		}
		v, err := strconv.ParseUint(name, 0, 64)
		if err != nil {
			return 0, fmt.Errorf("unknown capability %q", raw)
		}
		c |= Capability(v)
	}
	return c, nil
}

func lookupCapability(name string) (Capability, bool) {
	for _, n := range capabilityNames {
		if n.name == name {
			return n.bit, true
		}
	}
	return 0, false
}
