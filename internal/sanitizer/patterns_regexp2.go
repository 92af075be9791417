package sanitizer

import "github.com/dlclark/regexp2"

// regexp2Pattern is a catalogue entry whose expression needs lookaround RE2
// cannot express, grounded on ArchGuard's use of dlclark/regexp2 for the
// same reason.
type regexp2Pattern struct {
	re       *regexp2.Regexp
	category string
	weight   int
}

// regexp2Patterns covers role-override phrasing that must NOT be flagged
// when immediately followed by a benign continuation ("ignore previous
// instructions about formatting"), a negative-lookahead RE2 cannot express.
var regexp2Patterns = []regexp2Pattern{
	{
		re:       regexp2.MustCompile(`(?i)ignore (all )?(previous|prior) instructions(?!\s+(about|regarding)\s+(formatting|style|length))`, regexp2.None),
		category: "role_override",
		weight:   20,
	},
	{
		re:       regexp2.MustCompile(`(?i)(?<!do not )(?<!don't )reveal (your|the) (hidden|internal) (prompt|instructions)`, regexp2.None),
		category: "system_leak",
		weight:   25,
	},
}

func matchRegexp2(p regexp2Pattern, text string) bool {
	m, err := p.re.FindStringMatch(text)
	return err == nil && m != nil
}
