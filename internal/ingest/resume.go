// Package ingest extracts plain text from uploaded resumes and job postings.
package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

const (
	// MaxResumeSize bounds uploaded resume files.
	MaxResumeSize = 10 << 20
	// MaxResumeWords and MaxResumeTextSize bound the extracted text so it
	// fits a start request.
	MaxResumeWords    = 3000
	MaxResumeTextSize = 64 << 10
)

var (
	// ErrUnsupportedFormat is returned for binary files that are not PDFs.
	ErrUnsupportedFormat = errors.New("unsupported document format")
	// ErrNoText is returned when a document holds no extractable text.
	ErrNoText = errors.New("document contains no text")
)

var pdfMagic = []byte("%PDF-")

// ResumeText returns the text of a PDF or plain-text resume.
func ResumeText(filename string, data []byte) (string, error) {
	if len(data) > MaxResumeSize {
		return "", fmt.Errorf("resume exceeds %d bytes", MaxResumeSize)
	}

	var text string
	switch {
	case bytes.HasPrefix(data, pdfMagic) || strings.EqualFold(filepath.Ext(filename), ".pdf"):
		t, err := pdfText(data)
		if err != nil {
			return "", err
		}
		text = t
	case utf8.Valid(data):
		text = string(data)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filename)
	}

	text = truncateBytes(normalizeLines(text, MaxResumeWords), MaxResumeTextSize)
	if text == "" {
		return "", ErrNoText
	}
	return text, nil
}

func pdfText(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("opening pdf: %w", err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extracting pdf text: %w", err)
	}
	b, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("reading pdf text: %w", err)
	}
	return string(b), nil
}

// normalizeLines collapses runs of spaces inside lines, drops blank lines
// and stops after maxWords words.
func normalizeLines(text string, maxWords int) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var out []string
	words := 0
	for _, line := range strings.Split(text, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if words+len(fields) > maxWords {
			if rest := maxWords - words; rest > 0 {
				out = append(out, strings.Join(fields[:rest], " "))
			}
			out[len(out)-1] += "..."
			break
		}
		words += len(fields)
		out = append(out, strings.Join(fields, " "))
	}
	return strings.Join(out, "\n")
}

func truncateBytes(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + "..."
}
