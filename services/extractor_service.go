package services

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/unidoc/unipdf/v3/common/license"
	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"

	"github.com/kusumaprabha/UltraShip/models"
)

func init() {
	key := os.Getenv("UNIDOC_LICENSE_KEY")
	if key == "" {
		log.Println("EXTRACTOR: UNIDOC_LICENSE_KEY not set, PDF extraction will fail")
		return
	}
	if err := license.SetMeteredKey(key); err != nil {
		log.Printf("EXTRACTOR: failed to set UniDoc license key: %v. PDF extraction will fail.", err)
	}
}

// Ensure FileExtractor implements the interface.
var _ models.TextExtractor = (*FileExtractor)(nil)

// FileExtractor turns uploaded files into plain text, dispatching on the
// filename extension: TXT and MD pass through, PDF goes through UniPDF,
// DOCX is read as a ZIP of XML. OCR of scanned images is out of scope; a
// PDF with no text layer extracts to an empty document.
type FileExtractor struct{}

// NewFileExtractor creates the extractor.
func NewFileExtractor() *FileExtractor {
	return &FileExtractor{}
}

// Extract returns the plain text of the uploaded file bytes.
func (e *FileExtractor) Extract(fileBytes []byte, filename string) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt", ".md":
		return string(fileBytes), nil
	case ".pdf":
		text, err := extractTextFromPDF(fileBytes)
		if err != nil {
			return "", fmt.Errorf("%w: %s: %v", models.ErrExtractionFailure, filename, err)
		}
		return text, nil
	case ".docx":
		text, err := extractTextFromDOCX(fileBytes)
		if err != nil {
			return "", fmt.Errorf("%w: %s: %v", models.ErrExtractionFailure, filename, err)
		}
		return text, nil
	default:
		return "", fmt.Errorf("%w: %s", models.ErrUnsupportedFormat, filename)
	}
}

// SupportedFile reports whether the extractor handles the file's extension.
func SupportedFile(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt", ".md", ".pdf", ".docx":
		return true
	default:
		return false
	}
}

// CleanText normalizes extracted text before chunking: intra-line
// whitespace collapses to single spaces and empty lines are dropped.
func CleanText(text string) string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// extractTextFromPDF uses UniPDF to pull the text of every page.
func extractTextFromPDF(data []byte) (string, error) {
	pdfReader, err := model.NewPdfReader(bytes.NewReader(data))
	if err != nil {
		return "", err
	}

	numPages, err := pdfReader.GetNumPages()
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for i := 1; i <= numPages; i++ {
		page, err := pdfReader.GetPage(i)
		if err != nil {
			return "", err
		}

		ex, err := extractor.New(page)
		if err != nil {
			return "", err
		}

		text, err := ex.ExtractText()
		if err != nil {
			return "", err
		}
		sb.WriteString(text)
		sb.WriteString("\n\n")
	}

	return sb.String(), nil
}

// documentXML mirrors the parts of word/document.xml we read: body
// paragraphs, their runs, and the text elements inside each run.
type documentXML struct {
	Body struct {
		Paragraphs []struct {
			Runs []struct {
				Text []struct {
					Content string `xml:",chardata"`
				} `xml:"t"`
			} `xml:"r"`
		} `xml:"p"`
	} `xml:"body"`
}

// extractTextFromDOCX reads a DOCX (a ZIP archive) and joins the paragraph
// text of word/document.xml with newlines.
func extractTextFromDOCX(data []byte) (string, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	for _, file := range reader.File {
		if file.Name != "word/document.xml" {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return "", err
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", err
		}

		var doc documentXML
		if err := xml.Unmarshal(content, &doc); err != nil {
			return "", err
		}
		var sb strings.Builder
		for i, para := range doc.Body.Paragraphs {
			if i > 0 {
				sb.WriteString("\n")
			}
			for _, run := range para.Runs {
				for _, text := range run.Text {
					sb.WriteString(text.Content)
				}
			}
		}
		return strings.TrimSpace(sb.String()), nil
	}
	return "", fmt.Errorf("word/document.xml not found in archive")
}
