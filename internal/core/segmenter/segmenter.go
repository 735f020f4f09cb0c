// Package segmenter splits page text into bounded, overlapping chunks with a
// recursive separator cascade.
package segmenter

import (
	"strings"
	"unicode/utf8"

	"github.com/markdave123-py/legalmind/internal/core"
)

const (
	// DefaultChunkSize is the maximum chunk length in characters.
	DefaultChunkSize = 1000
	// DefaultChunkOverlap is the maximum number of characters repeated from
	// the end of one chunk at the start of the next.
	DefaultChunkOverlap = 200
)

// DefaultSeparators is tried in order: paragraphs, lines, sentences, words, characters.
var DefaultSeparators = []string{"\n\n", "\n", ". ", " ", ""}

// Span is one chunk of a single text. The first Overlap characters of
// Content repeat the tail of the previous span.
type Span struct {
	Content string
	Overlap int
}

// Piece is a chunk positioned inside a corpus.
type Piece struct {
	Ordinal    int
	PageNumber int
	Content    string
	Overlap    int
}

// Segmenter is safe for concurrent use; it holds no mutable state.
type Segmenter struct {
	chunkSize  int
	overlap    int
	separators []string
}

// Option configures a Segmenter.
type Option func(*Segmenter)

// WithChunkSize sets the maximum chunk length. Non-positive values are ignored.
func WithChunkSize(size int) Option {
	return func(s *Segmenter) {
		if size > 0 {
			s.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap budget. Negative values are ignored.
func WithOverlap(overlap int) Option {
	return func(s *Segmenter) {
		if overlap >= 0 {
			s.overlap = overlap
		}
	}
}

// WithSeparators replaces the separator cascade. The empty separator is
// always appended when missing so every text can be split.
func WithSeparators(seps ...string) Option {
	return func(s *Segmenter) {
		if len(seps) == 0 {
			return
		}
		s.separators = append([]string(nil), seps...)
		if s.separators[len(s.separators)-1] != "" {
			s.separators = append(s.separators, "")
		}
	}
}

// New creates a Segmenter with the given options.
func New(opts ...Option) *Segmenter {
	s := &Segmenter{
		chunkSize:  DefaultChunkSize,
		overlap:    DefaultChunkOverlap,
		separators: DefaultSeparators,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.overlap >= s.chunkSize {
		s.overlap = s.chunkSize / 5
	}
	return s
}

// ChunkSize returns the configured maximum chunk length.
func (s *Segmenter) ChunkSize() int { return s.chunkSize }

// Overlap returns the configured overlap budget.
func (s *Segmenter) Overlap() int { return s.overlap }

// Split segments every page independently. Ordinals are dense and continue
// across pages; a chunk never spans two pages. Blank pages produce nothing.
func (s *Segmenter) Split(pages []core.Page) []Piece {
	var out []Piece
	for _, p := range pages {
		if strings.TrimSpace(p.Text) == "" {
			continue
		}
		for _, sp := range s.SplitText(p.Text) {
			out = append(out, Piece{
				Ordinal:    len(out),
				PageNumber: p.Number,
				Content:    sp.Content,
				Overlap:    sp.Overlap,
			})
		}
	}
	return out
}

// SplitText segments a single text. Removing the overlap prefix of every span
// and concatenating the rest yields the input unchanged.
func (s *Segmenter) SplitText(text string) []Span {
	if text == "" {
		return nil
	}
	return s.split(text, s.separators)
}

func (s *Segmenter) split(text string, separators []string) []Span {
	sep := ""
	var rest []string
	for i, candidate := range separators {
		if candidate == "" || strings.Contains(text, candidate) {
			sep = candidate
			rest = separators[i+1:]
			break
		}
	}

	var (
		out  []Span
		good []string
	)
	for _, piece := range splitKeep(text, sep) {
		if runeLen(piece) <= s.chunkSize {
			good = append(good, piece)
			continue
		}
		if len(good) > 0 {
			out = append(out, s.merge(good)...)
			good = nil
		}
		if len(rest) == 0 {
			out = append(out, Span{Content: piece})
			continue
		}
		out = append(out, s.split(piece, rest)...)
	}
	if len(good) > 0 {
		out = append(out, s.merge(good)...)
	}
	return out
}

// merge packs consecutive pieces into spans of at most chunkSize characters.
// Each new span starts with the trailing whole pieces of the previous one,
// up to the overlap budget.
func (s *Segmenter) merge(pieces []string) []Span {
	var (
		out     []Span
		cur     []string
		total   int
		overlap int
	)
	for _, p := range pieces {
		n := runeLen(p)
		if total+n > s.chunkSize && len(cur) > 0 {
			out = append(out, Span{Content: strings.Join(cur, ""), Overlap: overlap})
			for total > s.overlap || (total+n > s.chunkSize && total > 0) {
				total -= runeLen(cur[0])
				cur = cur[1:]
			}
			overlap = total
		}
		cur = append(cur, p)
		total += n
	}
	if len(cur) > 0 && total > overlap {
		out = append(out, Span{Content: strings.Join(cur, ""), Overlap: overlap})
	}
	return out
}

// splitKeep splits text on sep, leaving the separator attached to the end of
// the piece it terminates. The empty separator splits into characters.
func splitKeep(text, sep string) []string {
	if sep == "" {
		out := make([]string, 0, utf8.RuneCountInString(text))
		for _, r := range text {
			out = append(out, string(r))
		}
		return out
	}
	parts := strings.SplitAfter(text, sep)
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func runeLen(s string) int { return utf8.RuneCountInString(s) }
