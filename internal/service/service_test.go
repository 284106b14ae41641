package service

import (
	"context"
	"errors"
	"strings"

	"doc-chat-be/pkg/extract"
	"doc-chat-be/pkg/llm"
)

// stubEmbedder maps text to one of two fixed directions depending on whether
// it contains the marker word, so similarity ranking in tests is predictable.
type stubEmbedder struct {
	marker string
	calls  int
	fail   bool
}

func (s *stubEmbedder) Embed(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	s.calls++
	if s.fail {
		return nil, errors.New("embedding backend unavailable")
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if s.marker != "" && strings.Contains(text, s.marker) {
			out[i] = []float32{1, 0, 0}
		} else {
			out[i] = []float32{0, 1, 0}
		}
	}
	return out, nil
}

// stubLLM replays scripted stream events.
type stubLLM struct {
	events []llm.StreamEvent
	called bool
}

func (s *stubLLM) Chat(ctx context.Context, messages []llm.Message, opts ...llm.Option) (string, error) {
	return "", errors.New("not used")
}

func (s *stubLLM) ChatStream(ctx context.Context, messages []llm.Message, opts ...llm.Option) (<-chan llm.StreamEvent, error) {
	s.called = true
	out := make(chan llm.StreamEvent, len(s.events))
	for _, ev := range s.events {
		out <- ev
	}
	close(out)
	return out, nil
}

// pagedExtractor fakes a paged-format parser: each input line becomes one
// page-tagged unit, the way a PDF extractor emits per-page units.
type pagedExtractor struct{}

func (pagedExtractor) Extract(ctx context.Context, data []byte, fileName string) (*extract.Result, error) {
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	units := make([]extract.Unit, len(lines))
	words := 0
	for i, line := range lines {
		units[i] = extract.Unit{
			Text:         line,
			Page:         i + 1,
			TotalPages:   len(lines),
			SectionIndex: -1,
		}
		words += extract.CountWords(line)
	}
	return &extract.Result{
		Units:       units,
		ContentType: "pdf",
		Words:       words,
		Pages:       len(lines),
	}, nil
}

func drainStream(events <-chan llm.StreamEvent) (string, error) {
	var b strings.Builder
	for ev := range events {
		if ev.Err != nil {
			return b.String(), ev.Err
		}
		b.WriteString(ev.Delta)
		if ev.Done {
			break
		}
	}
	return b.String(), nil
}
