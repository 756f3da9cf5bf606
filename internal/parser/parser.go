// Copyright 2025 Alan Matykiewicz
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to use,
// copy, modify, merge, publish, distribute, sublicense, and/or sell copies of the
// Software, and to permit persons to whom the Software is furnished to do so,
// subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND,
// EXPRESS OR IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES
// OF MERCHANTABILITY, FITNESS FOR A PARTICULAR PURPOSE AND
// NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR COPYRIGHT
// HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY,
// WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING
// FROM, OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR
// OTHER DEALINGS IN THE SOFTWARE.

// Package parser turns raw uploaded bytes into text with page
// boundaries and extracted image OCR blocks. Rich formats go through
// the remote parse service; plain text is handled locally.
package parser

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"github.com/aris-ai/aris/internal/document"
	"github.com/aris-ai/aris/internal/registry"
)

var (
	ErrUnsupportedFormat = errors.New("no parser registered for document format")
	ErrEmptyDocument     = errors.New("document contains no text")
)

// Parsed is the parser output consumed by the ingest pipeline. Offsets
// in Boundaries index into Text.
type Parsed struct {
	Text       string
	Boundaries []document.PageBoundary
	Images     []document.ExtractedImage
	PageCount  int
}

type Parser interface {
	// Name identifies the parser in document records and logs.
	Name() string

	Parse(ctx context.Context, source string, data []byte) (*Parsed, error)
}

// Registry maps lowercased file extensions (".pdf") to parsers.
type Registry struct {
	parsers *registry.Registry[string, Parser]
}

func NewRegistry() *Registry {
	return &Registry{
		parsers: registry.New[string, Parser](),
	}
}

func (r *Registry) Register(ext string, p Parser) {
	r.parsers.Register(strings.ToLower(ext), p)
}

// ForSource returns the parser registered for the source filename's
// extension.
func (r *Registry) ForSource(source string) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(source))
	p, ok := r.parsers.Get(ext)
	if !ok {
		return nil, ErrUnsupportedFormat
	}
	return p, nil
}

func (r *Registry) Extensions() []string {
	return r.parsers.List()
}
