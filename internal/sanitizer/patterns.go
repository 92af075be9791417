package sanitizer

import "regexp"

// pattern is one entry in the risk catalogue: a compiled regular expression,
// the category it belongs to, and the weight it contributes toward the
// total risk score when it matches. Shaped after the anonymizer's
// pattern{re, piiType, confidence} catalogue.
type pattern struct {
	re       *regexp.Regexp
	category string
	weight   int
}

// re2Patterns covers everything RE2 can express directly.
var re2Patterns = []pattern{
	// role-override phrases — 25-30
	{regexp.MustCompile(`(?i)ignore\s+(all\s+)?(the\s+)?(previous|prior|above)\s+instructions?`), "role_override", 30},
	{regexp.MustCompile(`(?i)disregard\s+(all\s+)?(previous|prior|above)\s+instructions?`), "role_override", 30},
	{regexp.MustCompile(`(?i)you\s+are\s+now\s+(a|an|in)\s+\w+\s+mode`), "role_override", 25},
	{regexp.MustCompile(`(?i)forget\s+(everything|all)\s+(you\s+)?(were\s+)?told`), "role_override", 25},

	// system-prompt leakage markers — 20-35
	{regexp.MustCompile(`(?i)^\s*system\s*:`), "system_leak", 35},
	{regexp.MustCompile(`(?i)^\s*assistant\s*:`), "system_leak", 20},
	{regexp.MustCompile(`(?i)reveal\s+(your|the)\s+system\s+prompt`), "system_leak", 35},
	{regexp.MustCompile(`(?i)print\s+(your|the)\s+(instructions|system\s+prompt)`), "system_leak", 30},

	// jailbreak templates — 20-30
	{regexp.MustCompile(`(?i)\bDAN\s+mode\b`), "jailbreak_template", 25},
	{regexp.MustCompile(`(?i)developer\s+mode\s+enabled`), "jailbreak_template", 25},
	{regexp.MustCompile(`(?i)act\s+as\s+if\s+you\s+have\s+no\s+restrictions`), "jailbreak_template", 30},
	{regexp.MustCompile(`(?i)pretend\s+you\s+(have\s+)?no\s+(content\s+)?polic(y|ies)`), "jailbreak_template", 25},

	// credential-exfil templates — 25-35
	{regexp.MustCompile(`(?i)(api[_-]?key|secret|password|token)\s*[:=]\s*\S+`), "credential_exfil", 30},
	{regexp.MustCompile(`(?i)send\s+(your|the)\s+(api[_-]?key|credentials|token)\s+to`), "credential_exfil", 35},

	// instruction-injection in document content — 15-25
	{regexp.MustCompile(`(?i)<\s*system\s*>`), "doc_injection", 25},
	{regexp.MustCompile(`(?i)\[\[\s*instruction\s*\]\]`), "doc_injection", 20},
	{regexp.MustCompile(`(?i)end\s+of\s+document\.?\s+new\s+instructions?`), "doc_injection", 25},
}

// urlSchemeRe matches URL scheme prefixes other than http(s), used by
// sanitizeText to escape non-http(s) schemes.
var urlSchemeRe = regexp.MustCompile(`(?i)\b([a-z][a-z0-9+.-]*):(//)?`)

var allowedSchemes = map[string]bool{
	"http":  true,
	"https": true,
}
