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

package document

// ContentType distinguishes plain text chunks from OCR text
// extracted out of embedded images. Image records must always
// carry ContentTypeImageOCR; retrieval filters on it.
type ContentType string

const (
	ContentTypeText     ContentType = "text"
	ContentTypeImageOCR ContentType = "image_ocr"
)

func (t ContentType) Valid() bool {
	return t == ContentTypeText || t == ContentTypeImageOCR
}

// PageBoundary is the half-open character range [Start, End) of
// extracted text attributable to one physical page. Boundaries of a
// document are sorted ascending by Start, non-overlapping, and
// contiguous: End of page i equals Start of page i+1.
type PageBoundary struct {
	Page  int `json:"page"`
	Start int `json:"start_char"`
	End   int `json:"end_char"`
}

// Chunk is a contiguous slice of a document's text used as a
// retrieval unit. Page is zero until assigned by the page resolver.
type Chunk struct {
	Text       string            `json:"text"`
	Start      int               `json:"start_char"`
	End        int               `json:"end_char"`
	Source     string            `json:"source"`
	ChunkIndex int               `json:"chunk_index"`
	Page       int               `json:"page"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// ExtractedImage pairs an image marker found in the parsed text
// with its OCR content and originating page. Page 0 marks an
// unassociated image (marker/content count mismatch).
type ExtractedImage struct {
	ImageNumber int         `json:"image_number"`
	OCRText     string      `json:"ocr_text"`
	Page        int         `json:"page"`
	Source      string      `json:"source"`
	ContentType ContentType `json:"content_type"`
}

func (i ExtractedImage) Associated() bool {
	return i.Page > 0
}

// Citation is a user-facing record pointing at the document page
// that justifies part of an answer. Produced per-query, never
// persisted. List position is significant: first is most relevant.
type Citation struct {
	ID                   string      `json:"id"`
	Source               string      `json:"source"`
	Page                 int         `json:"page"`
	Snippet              string      `json:"snippet"`
	FullText             string      `json:"full_text"`
	ContentType          ContentType `json:"content_type"`
	SimilarityScore      float64     `json:"similarity_score"`
	RerankScore          *float64    `json:"rerank_score"`
	ConfidencePercentage int         `json:"confidence_percentage"`
}

// Record is a document registry entry, updated by the ingestion
// pipeline and served by the gateway.
type Record struct {
	DocumentID    string `json:"document_id" redis:"document_id"`
	DocumentName  string `json:"document_name" redis:"document_name"`
	Status        string `json:"status" redis:"status"`
	ChunksCreated int    `json:"chunks_created" redis:"chunks_created"`
	ImageCount    int    `json:"image_count" redis:"image_count"`
	TextIndex     string `json:"text_index" redis:"text_index"`
	ImagesIndex   string `json:"images_index" redis:"images_index"`
	ParserUsed    string `json:"parser_used" redis:"parser_used"`
	Version       int    `json:"version" redis:"version"`
}

const (
	StatusProcessing = "processing"
	StatusReady      = "ready"
	StatusFailed     = "failed"
)
