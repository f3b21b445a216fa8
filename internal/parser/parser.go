// Package parser reads grocery lists from PDF and DOCX documents.
package parser

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// FileType represents the type of document file
type FileType int

const (
	TypeUnknown FileType = iota
	TypePDF
	TypeDOCX
)

// MaxFileSize is the maximum allowed file size (10MB)
const MaxFileSize = 10 * 1024 * 1024

// DetectFileType determines the file type based on extension
func DetectFileType(filename string) FileType {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".pdf":
		return TypePDF
	case ".docx":
		return TypeDOCX
	default:
		return TypeUnknown
	}
}

// ValidateFilename checks for path traversal and other malicious patterns
func ValidateFilename(filename string) error {
	// Check for path traversal
	if strings.Contains(filename, "..") {
		return fmt.Errorf("filename contains path traversal: ..")
	}

	// Check for absolute paths
	if strings.HasPrefix(filename, "/") || strings.HasPrefix(filename, "\\") {
		return fmt.Errorf("filename cannot be an absolute path")
	}

	// Check for null bytes
	if strings.ContainsRune(filename, '\x00') {
		return fmt.Errorf("filename contains null byte")
	}

	// Check for newlines
	if strings.ContainsRune(filename, '\n') || strings.ContainsRune(filename, '\r') {
		return fmt.Errorf("filename contains newline character")
	}

	return nil
}

// ParseDocument extracts the text of the document at filePath.
func ParseDocument(filePath string) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("file not found: %w", err)
	}
	defer f.Close()

	return ParseReader(f, filepath.Base(filePath))
}

// ParseReader extracts the text of an uploaded document. The file type is
// taken from the filename extension.
func ParseReader(r io.Reader, filename string) (string, error) {
	if err := ValidateFilename(filename); err != nil {
		return "", err
	}

	fileType := DetectFileType(filename)
	if fileType == TypeUnknown {
		return "", fmt.Errorf("unsupported file type: %s (only .pdf and .docx are supported)", filepath.Ext(filename))
	}

	content, err := io.ReadAll(io.LimitReader(r, MaxFileSize+1))
	if err != nil {
		return "", fmt.Errorf("failed to read document: %w", err)
	}
	if len(content) > MaxFileSize {
		return "", fmt.Errorf("file too large: more than %d bytes", MaxFileSize)
	}

	switch fileType {
	case TypePDF:
		return parsePDF(bytes.NewReader(content), int64(len(content)))
	default:
		return parseDOCX(bytes.NewReader(content), int64(len(content)))
	}
}
