package intake

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/chitragupta-ai/chitragupta-server/internal/models"
)

// CSVMapping names the CSV headers that feed each enquiry field. Empty
// entries mean the column is absent.
type CSVMapping struct {
	Name      string `json:"name,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Email     string `json:"email,omitempty"`
	Content   string `json:"content,omitempty"`
	SourceRef string `json:"source_ref,omitempty"`
}

// DetectCSVMapping guesses a mapping from the header row the way the import
// screen pre-fills it: substring match on the usual column names, first
// column as the source reference.
func DetectCSVMapping(headers []string) CSVMapping {
	m := CSVMapping{}
	for _, h := range headers {
		lower := strings.ToLower(h)
		switch {
		case m.Name == "" && strings.Contains(lower, "name"):
			m.Name = h
		case m.Phone == "" && strings.Contains(lower, "phone"):
			m.Phone = h
		case m.Email == "" && strings.Contains(lower, "email"):
			m.Email = h
		case m.Content == "" && strings.Contains(lower, "message"):
			m.Content = h
		}
	}
	if len(headers) > 0 {
		m.SourceRef = headers[0]
	}
	return m
}

// ParseCSV reads header + rows into maps keyed by header name. Short rows
// leave the missing columns empty.
func ParseCSV(r io.Reader) ([]string, []map[string]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil, nil
	}

	headers := records[0]
	rows := make([]map[string]string, 0, len(records)-1)
	for _, record := range records[1:] {
		row := map[string]string{}
		empty := true
		for i, header := range headers {
			value := ""
			if i < len(record) {
				value = strings.TrimSpace(record[i])
			}
			row[header] = value
			if value != "" {
				empty = false
			}
		}
		if !empty {
			rows = append(rows, row)
		}
	}
	return headers, rows, nil
}

// EnquiryFromCSVRow maps one import row onto a canonical enquiry. Rows
// without a usable source reference get a fallback token and are therefore
// not deduplicable on re-import.
func EnquiryFromCSVRow(source string, row map[string]string, mapping CSVMapping, now time.Time) *models.Enquiry {
	sourceRef := ""
	if mapping.SourceRef != "" {
		sourceRef = row[mapping.SourceRef]
	}
	if sourceRef == "" {
		sourceRef = FallbackRef("row")
	}

	content := row[mapping.Content]
	if content == "" {
		content = "Imported enquiry"
	}

	contact := models.Contact{
		Name:  row[mapping.Name],
		Phone: row[mapping.Phone],
		Email: row[mapping.Email],
	}

	return NewEnquiry(source, sourceRef, content, contact, now)
}
