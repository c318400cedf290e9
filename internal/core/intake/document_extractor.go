package intake

import (
	"bytes"
	"fmt"
	"strings"

	"code.sajari.com/docconv"
)

// ExtractDocumentText pulls the plain text out of an uploaded enquiry
// attachment (PDF, DOCX, ...) so it can be ingested like any other enquiry
// content.
func ExtractDocumentText(data []byte, contentType string) (string, error) {
	res, err := docconv.Convert(bytes.NewReader(data), contentType, false)
	if err != nil {
		return "", fmt.Errorf("docconv: extract %s: %w", contentType, err)
	}

	text := strings.TrimSpace(res.Body)
	if text == "" {
		return "", fmt.Errorf("docconv: extracted empty text for %s", contentType)
	}
	return text, nil
}
