package chunker

import (
	"errors"
	"strings"
)

// ErrEmptyText is returned when a source produced no text to split.
// An empty source is an input error, never an empty chunk sequence.
var ErrEmptyText = errors.New("chunker: empty text")

// Boundary separators tried in priority order, so paragraph breaks are
// preferred over line breaks, and line breaks over mid-word cuts.
var defaultSeparators = []string{"\n\n", "\n", " "}

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// Chunker splits extracted document text into overlapping spans sized for
// retrieval and generation-context limits.
type Chunker struct {
	chunkSize    int
	chunkOverlap int
	separators   []string
}

func New(chunkSize, chunkOverlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = chunkSize / 5
	}
	return &Chunker{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		separators:   defaultSeparators,
	}
}

// Chunk produces the ordered sequence of overlapping spans for text.
// Re-chunking identical input with identical configuration yields an
// identical sequence. A span only exceeds chunkSize when it is a single
// unbroken unit with no usable boundary; such units are emitted whole.
func (c *Chunker) Chunk(text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	pieces := c.split(text, c.separators)
	return c.merge(pieces), nil
}

// split recursively breaks text on the highest-priority separator present,
// descending to finer separators for pieces still over chunkSize.
func (c *Chunker) split(text string, separators []string) []string {
	if len(text) <= c.chunkSize || len(separators) == 0 {
		// Either it fits, or it is an irreducible unit (one long unbroken
		// run with no boundary left to try). Emit as-is.
		return []string{text}
	}

	sep := separators[0]
	rest := separators[1:]

	parts := strings.Split(text, sep)
	if len(parts) == 1 {
		// Separator not present, try the next one down.
		return c.split(text, rest)
	}

	var pieces []string
	for i, part := range parts {
		// Re-attach the separator so joins reproduce the original text
		// shape and overlap windows carry real boundaries.
		if i < len(parts)-1 {
			part += sep
		}
		if part == "" {
			continue
		}
		if len(part) > c.chunkSize {
			pieces = append(pieces, c.split(part, rest)...)
		} else {
			pieces = append(pieces, part)
		}
	}
	return pieces
}

// merge greedily packs pieces into spans up to chunkSize, carrying a tail of
// up to chunkOverlap characters from each span into the next.
func (c *Chunker) merge(pieces []string) []string {
	var spans []string
	var window []string
	windowLen := 0

	flush := func() {
		if len(window) == 0 {
			return
		}
		span := strings.TrimSpace(strings.Join(window, ""))
		if span != "" {
			spans = append(spans, span)
		}
	}

	for _, piece := range pieces {
		if windowLen+len(piece) > c.chunkSize && windowLen > 0 {
			flush()
			// Retain trailing pieces as the overlap prefix of the next span.
			for windowLen > c.chunkOverlap || (windowLen+len(piece) > c.chunkSize && windowLen > 0) {
				windowLen -= len(window[0])
				window = window[1:]
			}
		}
		window = append(window, piece)
		windowLen += len(piece)
	}
	flush()

	return spans
}
