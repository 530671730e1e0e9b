package security

import (
	"cmp"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"sync"
)

// RedactPlaceholder replaces every secret the Redactor finds.
const RedactPlaceholder = "***REDACTED***"

// minLiteralLen is the shortest credential value masked by substring match.
// Shorter values would blank out ordinary words.
const minLiteralLen = 8

// secretArgName matches tool argument and metadata keys whose value is a
// secret on its own, such as access_token or api_key.
var secretArgName = regexp.MustCompile(`(?i)(token|secret|password|api_?key|authorization)`)

// Redactor masks provider keys and tokens in log lines, audit events and
// approval previews. The zero value masks nothing and is ready to use.
type Redactor struct {
	mu       sync.RWMutex
	patterns []*regexp.Regexp
	literals []string
}

// NewRedactor returns a Redactor loaded with DefaultPatterns.
func NewRedactor() *Redactor {
	return &Redactor{patterns: DefaultPatterns()}
}

// AddPattern masks every match of p from now on.
func (r *Redactor) AddPattern(p *regexp.Regexp) {
	r.mu.Lock()
	r.patterns = append(r.patterns, p)
	r.mu.Unlock()
}

// AddLiteral masks secret wherever it appears. Values shorter than eight
// bytes are ignored.
func (r *Redactor) AddLiteral(secret string) {
	if len(secret) < minLiteralLen {
		return
	}
	r.mu.Lock()
	r.literals = sortLiterals(append(r.literals, secret))
	r.mu.Unlock()
}

// SyncCredentials replaces the literal set with the values currently held
// by store. Call it once modules have registered their keys.
func (r *Redactor) SyncCredentials(store *CredentialStore) {
	var lits []string
	for _, v := range store.Values() {
		if len(v) >= minLiteralLen {
			lits = append(lits, v)
		}
	}
	lits = sortLiterals(lits)

	r.mu.Lock()
	r.literals = lits
	r.mu.Unlock()
}

// sortLiterals orders longest first so a key that contains another key is
// masked whole.
func sortLiterals(lits []string) []string {
	slices.SortFunc(lits, func(a, b string) int {
		return cmp.Compare(len(b), len(a))
	})
	return slices.Compact(lits)
}

// Redact returns s with every known secret replaced by RedactPlaceholder.
func (r *Redactor) Redact(s string) string {
	if s == "" {
		return s
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, lit := range r.literals {
		s = strings.ReplaceAll(s, lit, RedactPlaceholder)
	}
	for _, p := range r.patterns {
		s = p.ReplaceAllString(s, RedactPlaceholder)
	}
	return s
}

// RedactArgs flattens tool call arguments into audit metadata. Values under
// secret-looking keys are replaced outright, the rest are redacted and
// truncated with TruncateForAudit.
func (r *Redactor) RedactArgs(args map[string]any) map[string]string {
	if len(args) == 0 {
		return nil
	}
	out := make(map[string]string, len(args))
	for k, v := range args {
		if secretArgName.MatchString(k) {
			out[k] = RedactPlaceholder
			continue
		}
		out[k] = TruncateForAudit(r.Redact(fmt.Sprint(v)))
	}
	return out
}

// DefaultPatterns matches the credential formats toolgate handles itself
// plus the common ones a proposed command might carry.
func DefaultPatterns() []*regexp.Regexp {
	return []*regexp.Regexp{
		regexp.MustCompile(`sk-(?:proj-|ant-)?[A-Za-z0-9_\-]{20,}`), // OpenAI, Anthropic
		regexp.MustCompile(`AIza[0-9A-Za-z_\-]{35}`),                // Google / Gemini
		regexp.MustCompile(`figd_[A-Za-z0-9_\-]{20,}`),              // Figma personal token
		regexp.MustCompile(`(?:ghp|gho|ghs|ghu)_[A-Za-z0-9]{20,}|github_pat_[A-Za-z0-9_]{20,}`),
		regexp.MustCompile(`AKIA[0-9A-Z]{16}`),
		regexp.MustCompile(`(?i)\bbearer\s+[A-Za-z0-9._~+/\-]{16,}=*`),
	}
}
