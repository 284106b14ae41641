package extract

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"
)

// PlainTextExtractor handles .txt files: the bytes are the text.
type PlainTextExtractor struct{}

func NewPlainTextExtractor() *PlainTextExtractor {
	return &PlainTextExtractor{}
}

func (e *PlainTextExtractor) Extract(ctx context.Context, data []byte, fileName string) (*Result, error) {
	text := strings.TrimSpace(string(data))
	if text == "" {
		return nil, fmt.Errorf("file %s contains no text", fileName)
	}
	if !utf8.ValidString(text) {
		return nil, fmt.Errorf("file %s is not valid UTF-8 text", fileName)
	}

	return &Result{
		Units:       []Unit{{Text: text, SectionIndex: -1}},
		ContentType: "text",
		Words:       CountWords(text),
	}, nil
}

// MarkdownExtractor handles .md files. Markdown is kept verbatim: the
// chunker's paragraph boundaries already line up with markdown structure.
type MarkdownExtractor struct{}

func NewMarkdownExtractor() *MarkdownExtractor {
	return &MarkdownExtractor{}
}

func (e *MarkdownExtractor) Extract(ctx context.Context, data []byte, fileName string) (*Result, error) {
	text := strings.TrimSpace(string(data))
	if text == "" {
		return nil, fmt.Errorf("file %s contains no text", fileName)
	}

	return &Result{
		Units:       []Unit{{Text: text, SectionIndex: -1}},
		ContentType: "markdown",
		Words:       CountWords(text),
	}, nil
}
