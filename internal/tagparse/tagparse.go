// Package tagparse turns raw address strings into ordered (separator, value)
// segments using a caller-supplied separator table, and resolves partially
// qualified tags against page-footer fallback context.
package tagparse

import (
	"fmt"
	"sort"
	"strings"

	"github.com/diagraph/diagraph/internal/model"
)

// DefaultPinSeparator introduces the terminal connector suffix of a tag.
const DefaultPinSeparator = ":"

// Rule binds one separator string to its naming category.
type Rule struct {
	Separator string
	Category  string
}

// Config is the ordered separator table a processing run is built under.
// Rule order defines segment priority: lower index means higher priority.
type Config struct {
	Rules        []Rule
	PinSeparator string

	// byLength caches the separators sorted longest first, so that
	// overlapping separators such as "=" and "==" tokenize correctly.
	byLength []string
}

// NewConfig builds and validates a parser configuration.
func NewConfig(rules []Rule, pinSeparator string) (Config, error) {
	if pinSeparator == "" {
		pinSeparator = DefaultPinSeparator
	}
	c := Config{Rules: append([]Rule(nil), rules...), PinSeparator: pinSeparator}
	if err := c.validate(); err != nil {
		return Config{}, err
	}
	c.byLength = make([]string, 0, len(c.Rules))
	for _, r := range c.Rules {
		c.byLength = append(c.byLength, r.Separator)
	}
	sort.Slice(c.byLength, func(i, j int) bool {
		return len(c.byLength[i]) > len(c.byLength[j])
	})
	return c, nil
}

func (c Config) validate() error {
	if len(c.Rules) == 0 {
		return fmt.Errorf("separator table is empty")
	}
	seen := make(map[string]bool, len(c.Rules))
	for _, r := range c.Rules {
		if r.Separator == "" {
			return fmt.Errorf("empty separator in table")
		}
		if seen[r.Separator] {
			return fmt.Errorf("duplicate separator %q", r.Separator)
		}
		seen[r.Separator] = true
		if r.Separator == c.PinSeparator {
			return fmt.Errorf("separator %q collides with the pin separator", r.Separator)
		}
	}
	return nil
}

// Equal reports whether two configs describe the same separator table.
// Stores built under differing configs must never be merged.
func (c Config) Equal(other Config) bool {
	if c.PinSeparator != other.PinSeparator || len(c.Rules) != len(other.Rules) {
		return false
	}
	for i := range c.Rules {
		if c.Rules[i] != other.Rules[i] {
			return false
		}
	}
	return true
}

// Priority returns the rule index of the separator, or -1 if unknown.
// Lower values are higher priority.
func (c Config) Priority(separator string) int {
	for i, r := range c.Rules {
		if r.Separator == separator {
			return i
		}
	}
	return -1
}

// CategoryOf returns the naming category the separator belongs to.
func (c Config) CategoryOf(separator string) string {
	for _, r := range c.Rules {
		if r.Separator == separator {
			return r.Category
		}
	}
	return ""
}

// Categories returns the distinct naming categories in rule order.
func (c Config) Categories() []string {
	var out []string
	seen := make(map[string]bool)
	for _, r := range c.Rules {
		if !seen[r.Category] {
			seen[r.Category] = true
			out = append(out, r.Category)
		}
	}
	return out
}

// SeparatorsOf returns the separators belonging to the category, in rule order.
func (c Config) SeparatorsOf(category string) []string {
	var out []string
	for _, r := range c.Rules {
		if r.Category == category {
			out = append(out, r.Separator)
		}
	}
	return out
}

// separatorAt returns the longest separator matching at position i, or "".
func (c Config) separatorAt(s string, i int) string {
	for _, sep := range c.byLength {
		if strings.HasPrefix(s[i:], sep) {
			return sep
		}
	}
	return ""
}

// Split tokenizes a raw tag string into (separator, value) segments.
// It reports ok=false ("no parse") when content precedes the first separator
// or no separator occurs at all. An empty or all-whitespace string parses to
// an empty segment list.
func (c Config) Split(raw string) ([]model.Segment, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return []model.Segment{}, true
	}
	if c.separatorAt(s, 0) == "" {
		return nil, false
	}
	var segs []model.Segment
	i := 0
	for i < len(s) {
		sep := c.separatorAt(s, i)
		i += len(sep)
		start := i
		for i < len(s) && c.separatorAt(s, i) == "" {
			i++
		}
		segs = append(segs, model.Segment{Separator: sep, Value: s[start:i]})
	}
	return segs, true
}

// SplitPinSuffix separates a tag string into its bare tag and the terminal
// connector path. The returned path excludes the leading pin separator.
func (c Config) SplitPinSuffix(raw string) (bare, pinPath string, hasPin bool) {
	s := strings.TrimSpace(raw)
	idx := strings.Index(s, c.PinSeparator)
	if idx < 0 {
		return s, "", false
	}
	return s[:idx], s[idx+len(c.PinSeparator):], true
}

// SplitPinChain splits a connector path into its chain node names. Chain
// nodes are delimited by the pin separator or a dot.
func (c Config) SplitPinChain(pinPath string) []string {
	parts := strings.FieldsFunc(pinPath, func(r rune) bool {
		return strings.ContainsRune(c.PinSeparator+".", r)
	})
	return parts
}

// MergeFooter prepends higher-priority footer segments missing from the tag.
// Footer entries are parsed in order; merging stops as soon as the tag
// already defines a segment at or above the footer segment's priority.
// Footer context never overrides a segment the tag defines.
func (c Config) MergeFooter(segs []model.Segment, footer []string) []model.Segment {
	if len(footer) == 0 {
		return segs
	}
	best := len(c.Rules) // priority of the tag's highest-priority segment
	for _, s := range segs {
		if p := c.Priority(s.Separator); p >= 0 && p < best {
			best = p
		}
	}
	var prefix []model.Segment
	for _, f := range footer {
		fsegs, ok := c.Split(f)
		if !ok {
			continue
		}
		stop := false
		for _, fs := range fsegs {
			p := c.Priority(fs.Separator)
			if p < 0 || p >= best {
				stop = true
				break
			}
			prefix = append(prefix, fs)
		}
		if stop {
			break
		}
	}
	if len(prefix) == 0 {
		return segs
	}
	return append(prefix, segs...)
}
