// Package splitter cuts parsed document text into overlapping chunks
// while preserving byte offsets into the original text. Offsets are
// what ties a chunk back to its page boundaries, so the splitter never
// rewrites or trims the text it emits.
package splitter

import (
	"errors"
	"strings"

	"github.com/aris-ai/aris/internal/document"
)

const (
	DefaultChunkSize = 1000
	DefaultOverlap   = 200
)

var ErrInvalidParams = errors.New("chunk overlap must be smaller than chunk size")

type Splitter struct {
	chunkSize int
	overlap   int
}

type Option func(*Splitter)

func WithChunkSize(n int) Option {
	return func(s *Splitter) {
		if n > 0 {
			s.chunkSize = n
		}
	}
}

func WithOverlap(n int) Option {
	return func(s *Splitter) {
		if n >= 0 {
			s.overlap = n
		}
	}
}

func New(opts ...Option) (*Splitter, error) {
	s := &Splitter{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultOverlap,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.overlap >= s.chunkSize {
		return nil, ErrInvalidParams
	}
	return s, nil
}

// Split chunks text into windows of at most chunkSize bytes with the
// configured overlap. Window ends snap back to the nearest whitespace
// when one exists in the second half of the window, so words are not
// cut mid-token. Chunk starts are strictly increasing and every chunk
// satisfies text[chunk.Start:chunk.End] == chunk.Text.
func (s *Splitter) Split(text, source string) []document.Chunk {
	if len(text) == 0 {
		return nil
	}

	chunks := make([]document.Chunk, 0, len(text)/s.chunkSize+1)
	start := 0
	index := 0

	for start < len(text) {
		end := min(start+s.chunkSize, len(text))

		if end < len(text) {
			if cut := strings.LastIndexAny(text[start:end], " \t\n"); cut > s.chunkSize/2 {
				end = start + cut + 1
			}
		}

		chunks = append(chunks, document.Chunk{
			Text:       text[start:end],
			Start:      start,
			End:        end,
			Source:     source,
			ChunkIndex: index,
		})
		index++

		if end == len(text) {
			break
		}

		next := end - s.overlap
		if next <= start {
			next = start + 1
		}
		start = next
	}

	return chunks
}
