// Package filter censors chat messages against an ordered list of patterns.
//
// A pattern is a regular expression fragment anchored on both sides by word
// boundaries and matched case-insensitively. Every occurrence is replaced by a
// backtick-wrapped run of '*' as wide as the first occurrence found.
package filter

import (
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
)

const (
	maskChar  = "*"
	delimiter = "`"
)

const DefaultMatchTimeout = 250 * time.Millisecond

// Result is the outcome of censoring one message.
type Result struct {
	Text          string
	FullyRedacted bool
	Changed       bool
	// Invalid lists patterns that failed to compile or timed out.
	Invalid []string
}

// Match reports whether a pattern occurs and how wide its first occurrence is.
type Match struct {
	Found bool
	Width int
}

type Matcher struct {
	timeout time.Duration
	mu      sync.Mutex
	cache   map[string]*regexp2.Regexp
}

func NewMatcher(timeout time.Duration) *Matcher {
	if timeout <= 0 {
		timeout = DefaultMatchTimeout
	}
	return &Matcher{timeout: timeout, cache: make(map[string]*regexp2.Regexp)}
}

// Censor applies patterns in order, each on top of the previous edits.
func (m *Matcher) Censor(message string, patterns []string) Result {
	result := Result{Text: message}
	for _, pattern := range patterns {
		censored, err := m.apply(pattern, result.Text)
		if err != nil {
			result.Invalid = append(result.Invalid, pattern)
			continue
		}
		result.Text = censored
	}
	result.Changed = result.Text != message
	result.FullyRedacted = result.Changed && FullyRedacted(result.Text)
	return result
}

// Find locates the first occurrence of pattern in text.
func (m *Matcher) Find(pattern, text string) (Match, error) {
	re, err := m.compile(pattern)
	if err != nil {
		return Match{}, err
	}
	found, err := re.FindStringMatch(text)
	if err != nil {
		return Match{}, err
	}
	if found == nil {
		return Match{}, nil
	}
	return Match{Found: true, Width: utf8.RuneCountInString(found.String())}, nil
}

func (m *Matcher) apply(pattern, text string) (string, error) {
	match, err := m.Find(pattern, text)
	if err != nil || !match.Found {
		return text, err
	}
	re, err := m.compile(pattern)
	if err != nil {
		return text, err
	}
	mask := delimiter + strings.Repeat(maskChar, match.Width) + delimiter
	return re.Replace(text, mask, -1, -1)
}

func (m *Matcher) compile(pattern string) (*regexp2.Regexp, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if re, ok := m.cache[pattern]; ok {
		return re, nil
	}
	re, err := regexp2.Compile(`\b`+pattern+`\b`, regexp2.IgnoreCase)
	if err != nil {
		return nil, err
	}
	re.MatchTimeout = m.timeout
	m.cache[pattern] = re
	return re, nil
}

// Validate reports whether pattern compiles.
func (m *Matcher) Validate(pattern string) error {
	_, err := m.compile(pattern)
	return err
}

// FullyRedacted reports whether every whitespace-separated token carries a mask.
func FullyRedacted(text string) bool {
	for _, token := range strings.Fields(text) {
		if !strings.Contains(token, maskChar) {
			return false
		}
	}
	return true
}

// SingleToken reports whether text is exactly one whitespace-separated token.
func SingleToken(text string) bool {
	return len(strings.Fields(text)) == 1
}
