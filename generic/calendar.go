package generic

import "fmt"

// =============================================================================
// CALENDAR - Ordered, finite sequence of decision periods
// =============================================================================

// Calendar is the fixed ordering of periods in one episode.
// The last period is the unique terminal period: it has no successor.
//
// Examples:
//   - Food-truck week: Mon, Tue, Wed, Thu, Fri, Weekend
//   - Short week: Mon, Tue, Wed, Weekend
type Calendar struct {
	names []string
	index map[string]int
}

// NewCalendar builds a calendar from at least two unique names.
func NewCalendar(names ...string) (Calendar, error) {
	if len(names) < 2 {
		return Calendar{}, &ConfigError{Field: "days", Reason: "need at least two periods"}
	}
	c := Calendar{names: append([]string(nil), names...), index: make(map[string]int, len(names))}
	for i, n := range names {
		if n == "" {
			return Calendar{}, &ConfigError{Field: "days", Reason: "empty period name"}
		}
		if _, dup := c.index[n]; dup {
			return Calendar{}, &ConfigError{Field: "days", Reason: fmt.Sprintf("duplicate period %q", n)}
		}
		c.index[n] = i
	}
	return c, nil
}

// Len returns the number of periods, terminal included.
func (c Calendar) Len() int { return len(c.names) }

// Names returns a copy of the period names in order.
func (c Calendar) Names() []string { return append([]string(nil), c.names...) }

// Contains reports whether i is a valid period ordinal.
func (c Calendar) Contains(i int) bool { return i >= 0 && i < len(c.names) }

// Name returns the name of period i.
func (c Calendar) Name(i int) string {
	if !c.Contains(i) {
		return fmt.Sprintf("period(%d)", i)
	}
	return c.names[i]
}

// Lookup returns the ordinal for name.
func (c Calendar) Lookup(name string) (int, bool) {
	i, ok := c.index[name]
	return i, ok
}

// Terminal returns the ordinal of the terminal period.
func (c Calendar) Terminal() int { return len(c.names) - 1 }

// IsTerminal reports whether i is the terminal period.
func (c Calendar) IsTerminal(i int) bool { return i == c.Terminal() }

// Successor returns the period after i. The terminal period and unknown
// ordinals fail with ErrInvalidState.
func (c Calendar) Successor(i int) (int, error) {
	if !c.Contains(i) {
		return 0, fmt.Errorf("%w: unknown period %d", ErrInvalidState, i)
	}
	if c.IsTerminal(i) {
		return 0, fmt.Errorf("%w: %s is terminal and has no successor", ErrInvalidState, c.names[i])
	}
	return i + 1, nil
}
