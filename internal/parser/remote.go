package parser

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/aris-ai/aris/internal/document"
	"github.com/aris-ai/aris/internal/http"
)

// RemoteParser sends documents to the parse service, which returns
// markdown-ish text with inline image markers, per-page character
// boundaries and OCR blocks for extracted images.
type RemoteParser struct {
	client http.Client
}

func NewRemoteParser(endpoint string, opts ...http.ClientOption) *RemoteParser {
	return &RemoteParser{
		client: http.NewClient(endpoint, opts...),
	}
}

type parseRequest struct {
	Source  string `json:"source"`
	Content string `json:"content"`
}

type parseResponse struct {
	Text       string                    `json:"text"`
	Boundaries []document.PageBoundary   `json:"page_boundaries"`
	Images     []document.ExtractedImage `json:"images"`
}

func (p *RemoteParser) Name() string {
	return "parse-service"
}

func (p *RemoteParser) Parse(ctx context.Context, source string, data []byte) (*Parsed, error) {
	req := parseRequest{
		Source:  source,
		Content: base64.StdEncoding.EncodeToString(data),
	}

	var res parseResponse
	if err := p.client.Request(ctx, http.MethodPost, "/parse", req, &res); err != nil {
		return nil, fmt.Errorf("parse service request failed: %w", err)
	}

	if strings.TrimSpace(res.Text) == "" {
		return nil, ErrEmptyDocument
	}

	parsed := &Parsed{
		Text:       res.Text,
		Boundaries: res.Boundaries,
		Images:     res.Images,
		PageCount:  len(res.Boundaries),
	}

	if strings.EqualFold(filepath.Ext(source), ".pdf") {
		if physical, err := PhysicalPageCount(data); err == nil && physical != parsed.PageCount {
			slog.Warn("parse service page count differs from physical pdf",
				"source", source,
				"parsed", parsed.PageCount,
				"physical", physical,
			)
		}
	}

	return parsed, nil
}
