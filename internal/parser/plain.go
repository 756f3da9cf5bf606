package parser

import (
	"context"
	"strings"

	"github.com/aris-ai/aris/internal/document"
)

// PlainParser handles text formats without page structure. The whole
// document becomes a single page.
type PlainParser struct{}

func NewPlainParser() *PlainParser {
	return &PlainParser{}
}

func (p *PlainParser) Name() string {
	return "plain"
}

func (p *PlainParser) Parse(_ context.Context, _ string, data []byte) (*Parsed, error) {
	text := string(data)
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyDocument
	}

	return &Parsed{
		Text: text,
		Boundaries: []document.PageBoundary{
			{Page: 1, Start: 0, End: len(text)},
		},
		PageCount: 1,
	}, nil
}
