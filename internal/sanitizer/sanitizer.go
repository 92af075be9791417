// Package sanitizer implements the prompt-injection defense layer (C1): a
// weighted pattern-matching risk scorer, a text rewriter, and the combined
// sanitizeForAI loop every extractor pipes its output through.
//
// It is a pure-function component: it never fails. Unrecognised input
// scores {0, low}.
package sanitizer

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/unicode/rangetable"

	"github.com/semaj90/docqa-engine/internal/docmodel"
)

// Source identifies which extractor produced the text being sanitized, so
// sanitizeForAI can apply a source-specific maxRiskScore.
type Source string

const (
	SourcePDF      Source = "pdf"
	SourceDOCX     Source = "docx"
	SourceEmail    Source = "email"
	SourcePPTX     Source = "pptx"
	SourceXLSX     Source = "xlsx"
	SourceDocument Source = "document"
)

// DefaultMaxRiskScore returns the source-specific ceiling spec §4.2
// describes: 25 for formats routed through strict AI providers, 40-50
// elsewhere.
func DefaultMaxRiskScore(s Source) int {
	switch s {
	case SourcePDF, SourceDOCX:
		return 25
	case SourceXLSX, SourcePPTX:
		return 40
	default:
		return 50
	}
}

// Options configures SanitizeText.
type Options struct {
	Strict       bool
	PreserveUrls bool
}

// ForAIOptions configures SanitizeForAI.
type ForAIOptions struct {
	MaxRiskScore int
	Strict       bool
}

const maxSanitizeIterations = 4

// invisibleCategories are the Unicode general categories collapsed by
// SanitizeText: format characters (zero-width joiners etc.) and control
// characters commonly used to smuggle invisible injection payloads.
// Whitespace controls ('\n', '\t', '\r', ...) are kept so line structure
// survives.
var invisibleCategories = rangetable.Merge(unicode.Cf, unicode.Cc)

func isInvisible(r rune) bool {
	return unicode.Is(invisibleCategories, r) && !unicode.IsSpace(r)
}

func removeInvisible(s string) string {
	out, _, err := transform.String(runes.Remove(runes.Predicate(isInvisible)), s)
	if err != nil {
		return s
	}
	return out
}

// CalculateRiskScore scores text against the fixed pattern catalogue.
// Weights are summed per category's matches and clamped to [0, 100].
func CalculateRiskScore(text string) docmodel.RiskAssessment {
	if strings.TrimSpace(text) == "" {
		return docmodel.RiskAssessment{Score: 0, Risk: docmodel.RiskLow}
	}

	total := 0
	var detected []string

	for _, p := range re2Patterns {
		if p.re.MatchString(text) {
			total += p.weight
			detected = append(detected, p.category)
		}
	}
	for _, p := range regexp2Patterns {
		if matchRegexp2(p, text) {
			total += p.weight
			detected = append(detected, p.category)
		}
	}

	if total > 100 {
		total = 100
	}

	return docmodel.RiskAssessment{
		Score:            total,
		Risk:             bandFor(total),
		DetectedPatterns: detected,
	}
}

func bandFor(score int) docmodel.Risk {
	switch {
	case score >= 75:
		return docmodel.RiskCritical
	case score >= 50:
		return docmodel.RiskHigh
	case score >= 25:
		return docmodel.RiskMedium
	default:
		return docmodel.RiskLow
	}
}

// SanitizeText rewrites detected patterns: role labels are neutralised,
// embedded system:/assistant: markers are stripped, non-http(s) URL
// schemes are escaped, and invisible Unicode categories are collapsed.
// Alphanumeric content and http(s) URLs are preserved.
func SanitizeText(text string, opts Options) string {
	if text == "" {
		return text
	}

	out := norm.NFC.String(text)
	out = removeInvisible(out)

	out = stripRoleMarkers(out)
	out = neutralizeRoleOverrides(out)

	if !opts.PreserveUrls {
		out = escapeNonHTTPSchemes(out)
	} else {
		out = escapeNonHTTPSchemesPreservingURLs(out)
	}

	if opts.Strict {
		out = stripDocInjectionMarkers(out)
	}

	return out
}

func stripRoleMarkers(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		lower := strings.ToLower(trimmed)
		if strings.HasPrefix(lower, "system:") || strings.HasPrefix(lower, "assistant:") {
			idx := strings.IndexByte(line, ':')
			if idx >= 0 && idx+1 < len(line) {
				lines[i] = strings.TrimSpace(line[idx+1:])
			} else {
				lines[i] = ""
			}
		}
	}
	return strings.Join(lines, "\n")
}

func neutralizeRoleOverrides(s string) string {
	out := s
	for _, p := range re2Patterns {
		if p.category != "role_override" && p.category != "jailbreak_template" {
			continue
		}
		out = p.re.ReplaceAllStringFunc(out, func(m string) string {
			return "[filtered instruction]"
		})
	}
	return out
}

func stripDocInjectionMarkers(s string) string {
	out := s
	for _, p := range re2Patterns {
		if p.category != "doc_injection" {
			continue
		}
		out = p.re.ReplaceAllString(out, "[filtered content]")
	}
	return out
}

// escapeNonHTTPSchemes escapes every scheme-looking prefix that isn't
// http(s); http(s) prefixes are left as they are. Used when
// preserveUrls=false; the preserveUrls=true path applies the same rewrite.
func escapeNonHTTPSchemes(s string) string {
	return urlSchemeRe.ReplaceAllStringFunc(s, func(m string) string {
		scheme := strings.ToLower(strings.TrimRight(strings.TrimSuffix(m, "//"), ":"))
		if allowedSchemes[scheme] {
			return m
		}
		return strings.Replace(m, ":", "[:]", 1)
	})
}

// escapeNonHTTPSchemesPreservingURLs only escapes schemes that aren't
// http(s), leaving http(s) URLs completely untouched — the preserveUrls=true
// behaviour.
func escapeNonHTTPSchemesPreservingURLs(s string) string {
	return escapeNonHTTPSchemes(s)
}

// SanitizeForAI runs score→sanitize→score, looping until finalRiskScore <=
// opts.MaxRiskScore or no further reduction is made, bounded to
// maxSanitizeIterations passes.
func SanitizeForAI(text string, source Source, opts ForAIOptions) (sanitized string, report docmodel.SecurityReport) {
	maxScore := opts.MaxRiskScore
	if maxScore <= 0 {
		maxScore = DefaultMaxRiskScore(source)
	}

	initial := CalculateRiskScore(text)
	report.InitialRiskScore = initial.Score

	current := text
	currentScore := initial.Score
	var applied []string

	for i := 0; i < maxSanitizeIterations; i++ {
		if currentScore <= maxScore {
			break
		}
		rewritten := SanitizeText(current, Options{Strict: opts.Strict || currentScore >= 75, PreserveUrls: true})
		next := CalculateRiskScore(rewritten)
		if rewritten == current || next.Score >= currentScore {
			current = rewritten
			currentScore = next.Score
			applied = append(applied, "sanitizeText")
			break
		}
		current = rewritten
		currentScore = next.Score
		applied = append(applied, "sanitizeText")
	}

	report.FinalRiskScore = currentScore
	report.IsSafe = currentScore <= maxScore
	report.AppliedFilters = applied
	if report.InitialRiskScore > 0 {
		report.RiskReductionPct = 100 * float64(report.InitialRiskScore-currentScore) / float64(report.InitialRiskScore)
	}
	if !report.IsSafe {
		report.Recommendations = append(report.Recommendations,
			"content still exceeds the configured risk threshold after sanitization; consider manual review")
	}

	return current, report
}

// CriticalBlockedPlaceholder is the fixed string substituted for a question
// whose risk score bands as critical.
const CriticalBlockedPlaceholder = "I cannot process this question as it contains potentially harmful content. Please rephrase your question."

// ApplyQuestionPolicy implements §4.1's per-question policy: critical
// questions are replaced with the fixed placeholder; everything else is run
// through SanitizeText. A disabled sanitizer passes the question through
// unchanged.
func ApplyQuestionPolicy(question string, enabled bool, opts Options) string {
	if !enabled {
		return question
	}
	assessment := CalculateRiskScore(question)
	if assessment.Risk == docmodel.RiskCritical {
		return CriticalBlockedPlaceholder
	}
	return SanitizeText(question, opts)
}
