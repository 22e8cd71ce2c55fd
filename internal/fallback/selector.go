// Package fallback picks canned replies when the remote model is unavailable.
package fallback

import (
	"math/rand/v2"
	"time"
)

// Selector holds a fixed, ordered list of canned replies. When EchoSuffix is
// set, one extra slot repeats the user's raw text followed by the suffix.
type Selector struct {
	Responses  []string
	EchoSuffix string
}

// New creates a Selector over responses
func New(responses []string, echoSuffix string) *Selector {
	r := make([]string, len(responses))
	copy(r, responses)
	return &Selector{Responses: r, EchoSuffix: echoSuffix}
}

// Len returns the number of selectable slots
func (s *Selector) Len() int {
	n := len(s.Responses)
	if s.EchoSuffix != "" {
		n++
	}
	return n
}

// Pick returns one reply chosen uniformly at random. Repeats are allowed.
func (s *Selector) Pick(userText string, rng *rand.Rand) string {
	n := s.Len()
	if n == 0 {
		return ""
	}
	if rng == nil {
		rng = NewRand(uint64(time.Now().UnixNano()))
	}
	return s.at(rng.IntN(n), userText)
}

// Candidates returns every reply Pick could produce for userText, in slot order
func (s *Selector) Candidates(userText string) []string {
	out := make([]string, s.Len())
	for i := range out {
		out[i] = s.at(i, userText)
	}
	return out
}

func (s *Selector) at(i int, userText string) string {
	if i < len(s.Responses) {
		return s.Responses[i]
	}
	return userText + s.EchoSuffix
}

// Delay returns a duration drawn uniformly from [base, base+span]
func Delay(base, span time.Duration, rng *rand.Rand) time.Duration {
	if span <= 0 {
		return base
	}
	if rng == nil {
		rng = NewRand(uint64(time.Now().UnixNano()))
	}
	return base + time.Duration(rng.Int64N(int64(span)+1))
}

// NewRand returns a seeded PCG source
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
