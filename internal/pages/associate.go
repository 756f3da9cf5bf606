package pages

import (
	"log/slog"
	"strings"

	"github.com/aris-ai/aris/internal/document"
)

// ImageMarker is the token parsers insert into the text stream at
// the approximate position of an embedded image.
const ImageMarker = "<!-- image -->"

// AssociateImages pairs each image marker in the parsed text with
// its OCR content and originating page.
//
// OCR content for marker i is the inline text immediately following
// the marker when the parser embeds it there; otherwise it comes
// positionally from ocrBlocks[i]. Pages follow the marker-offset
// rule of the boundary index. When marker and block counts disagree,
// markers and blocks are paired 1:1 up to the shorter count and the
// remainder is kept unassociated (page 0) rather than shifting the
// rest of the sequence.
func AssociateImages(source, text string, ocrBlocks []string, idx *BoundaryIndex) []document.ExtractedImage {
	offsets := markerOffsets(text)
	if len(offsets) == 0 && len(ocrBlocks) == 0 {
		return nil
	}

	inline := len(ocrBlocks) == 0
	n := len(offsets)
	if !inline {
		if len(offsets) != len(ocrBlocks) {
			slog.Warn("image marker count does not match ocr block count",
				"source", source, "markers", len(offsets), "blocks", len(ocrBlocks))
		}
		n = max(len(offsets), len(ocrBlocks))
	}

	images := make([]document.ExtractedImage, 0, n)
	for i := range n {
		img := document.ExtractedImage{
			ImageNumber: i + 1,
			Source:      source,
			ContentType: document.ContentTypeImageOCR,
		}

		switch {
		case inline:
			img.OCRText = inlineContent(text, offsets[i])
			img.Page = idx.PageAtOffset(offsets[i])
		case i < len(offsets) && i < len(ocrBlocks):
			img.OCRText = ocrBlocks[i]
			img.Page = idx.PageAtOffset(offsets[i])
		case i < len(ocrBlocks):
			// block without a marker: keep it, page unknown
			img.OCRText = ocrBlocks[i]
		default:
			// marker without a block
			img.Page = 0
		}

		images = append(images, img)
	}
	return images
}

func markerOffsets(text string) []int {
	var offsets []int
	off := 0
	for {
		i := strings.Index(text[off:], ImageMarker)
		if i < 0 {
			return offsets
		}
		offsets = append(offsets, off+i)
		off += i + len(ImageMarker)
	}
}

// inlineContent returns the text between the marker at off and the
// next marker (or end of document), trimmed.
func inlineContent(text string, off int) string {
	rest := text[off+len(ImageMarker):]
	if i := strings.Index(rest, ImageMarker); i >= 0 {
		rest = rest[:i]
	}
	return strings.TrimSpace(rest)
}
