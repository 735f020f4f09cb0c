// Package llmtest provides deterministic embedding and generation providers
// for tests.
package llmtest

import (
	"context"
	"errors"
	"hash/fnv"
	"math"
	"strings"
	"sync"
	"unicode"

	"github.com/markdave123-py/legalmind/internal/core"
)

var (
	_ core.EmbeddingProvider = (*HashEmbedder)(nil)
	_ core.LLMProvider       = (*ScriptedLLM)(nil)
)

// HashEmbedder maps texts to bag-of-words vectors by hashing lower-cased
// words into Dim buckets. Texts sharing words are similar.
type HashEmbedder struct {
	Dim int
	Err error

	mu    sync.Mutex
	calls int
}

func NewHashEmbedder(dim int) *HashEmbedder { return &HashEmbedder{Dim: dim} }

func (e *HashEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	if e.Err != nil {
		return nil, e.Err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.embed(t)
	}
	return out, nil
}

// Calls reports how many EmbedTexts calls were made.
func (e *HashEmbedder) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

func (e *HashEmbedder) embed(text string) []float32 {
	v := make([]float32, e.Dim)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	for _, w := range words {
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		v[int(h.Sum32())%e.Dim]++
	}
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm == 0 {
		v[0] = 1
		return v
	}
	n := float32(math.Sqrt(norm))
	for i := range v {
		v[i] /= n
	}
	return v
}

// Call is one recorded Generate invocation.
type Call struct {
	System      string
	User        string
	Temperature float32
}

// ScriptedLLM returns Answer (or Err) and records every prompt it receives.
type ScriptedLLM struct {
	Answer string
	Err    error

	mu    sync.Mutex
	calls []Call
}

func (l *ScriptedLLM) Generate(_ context.Context, systemPrompt, userPrompt string, temperature float32) (string, error) {
	l.mu.Lock()
	l.calls = append(l.calls, Call{System: systemPrompt, User: userPrompt, Temperature: temperature})
	l.mu.Unlock()
	if l.Err != nil {
		return "", l.Err
	}
	return l.Answer, nil
}

// Calls returns a copy of the recorded invocations.
func (l *ScriptedLLM) Calls() []Call {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Call(nil), l.calls...)
}

// Last returns the most recent invocation.
func (l *ScriptedLLM) Last() (Call, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.calls) == 0 {
		return Call{}, errors.New("llmtest: no calls recorded")
	}
	return l.calls[len(l.calls)-1], nil
}
