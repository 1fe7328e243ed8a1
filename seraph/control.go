package seraph

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/nasa-jpl/seraph/clock"
)

// Kind is the value type of a control
type Kind int

const (
	// Integer controls take any value in their range
	Integer Kind = iota
	// Enumerated controls take an index into Items
	Enumerated
	// Boolean controls take 0 or 1
	Boolean
)

func (k Kind) String() string {
	switch k {
	case Integer:
		return "integer"
	case Enumerated:
		return "enumerated"
	case Boolean:
		return "boolean"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// MarshalText encodes the kind by name
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Control is a named, typed setting or reading of a card
type Control struct {
	Name     string
	Kind     Kind
	Items    []string
	Min, Max int
	ReadOnly bool

	get    func() (int, error)
	set    func(int) error
	bounds func() (int, int)

	// selfLocked controls take the device lock themselves
	selfLocked bool
}

// Info is a snapshot of a control's description
type Info struct {
	Name     string   `json:"name"`
	Slug     string   `json:"slug"`
	Kind     Kind     `json:"kind"`
	Items    []string `json:"items,omitempty"`
	Min      int      `json:"min"`
	Max      int      `json:"max"`
	ReadOnly bool     `json:"readOnly"`
}

// Range returns the inclusive bounds of valid values
func (c *Control) Range() (min, max int) {
	switch c.Kind {
	case Boolean:
		return 0, 1
	case Enumerated:
		return 0, len(c.Items) - 1
	}
	if c.bounds != nil {
		return c.bounds()
	}
	return c.Min, c.Max
}

// Validate checks a value before it is set
func (c *Control) Validate(v int) error {
	if c.ReadOnly || c.set == nil {
		return fmt.Errorf("%s: %w", c.Name, ErrReadOnly)
	}
	lo, hi := c.Range()
	if v < lo || v > hi {
		return fmt.Errorf("%s: %d outside %d..%d: %w", c.Name, v, lo, hi, clock.ErrOutOfRange)
	}
	return nil
}

func (c *Control) info() Info {
	lo, hi := c.Range()
	return Info{
		Name:     c.Name,
		Slug:     Slug(c.Name),
		Kind:     c.Kind,
		Items:    c.Items,
		Min:      lo,
		Max:      hi,
		ReadOnly: c.ReadOnly || c.set == nil,
	}
}

// Slug makes a URL path element from a control name,
// "DCO Freq (Hz)" becomes "dco-freq-hz"
func Slug(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(r)
			continue
		}
		dash = true
	}
	return b.String()
}

func enumerated(name string, items []string, get func() (int, error), set func(int) error) *Control {
	return &Control{Name: name, Kind: Enumerated, Items: items, ReadOnly: set == nil, get: get, set: set}
}

func integer(name string, min, max int, get func() (int, error), set func(int) error) *Control {
	return &Control{Name: name, Kind: Integer, Min: min, Max: max, ReadOnly: set == nil, get: get, set: set}
}

func boolean(name string, get func() (int, error), set func(int) error) *Control {
	return &Control{Name: name, Kind: Boolean, Max: 1, ReadOnly: set == nil, get: get, set: set}
}
