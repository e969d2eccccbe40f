// Package bundle packs a generated dataset into a single checksummed,
// compressed file and unpacks it back into fixture files.
package bundle

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/nvandessel/neurodash/internal/models"
)

// FormatVersion is the current bundle format.
const FormatVersion = 1

// MaxDecompressedSize is the maximum allowed size of a decompressed payload (200MB).
const MaxDecompressedSize = 200 * 1024 * 1024

// ErrChecksum is returned when a payload does not match its header checksum.
var ErrChecksum = errors.New("checksum mismatch")

// Header is the plain-text first line of a bundle file.
type Header struct {
	Version    int               `json:"version"`
	CreatedAt  time.Time         `json:"created_at"`
	Checksum   string            `json:"checksum"`
	Counts     models.Counts     `json:"counts"`
	Compressed bool              `json:"compressed"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

func checksum(data []byte) string {
	hash := sha256.Sum256(data)
	return "sha256:" + hex.EncodeToString(hash[:])
}

// Write writes data as a bundle: header line + gzip-compressed JSON payload.
func Write(path string, data *models.Dataset, createdAt time.Time, metadata map[string]string) (*Header, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshaling payload: %w", err)
	}

	var compressed bytes.Buffer
	gzw, err := gzip.NewWriterLevel(&compressed, gzip.BestCompression)
	if err != nil {
		return nil, fmt.Errorf("creating gzip writer: %w", err)
	}
	if _, err := gzw.Write(payload); err != nil {
		return nil, fmt.Errorf("compressing payload: %w", err)
	}
	if err := gzw.Close(); err != nil {
		return nil, fmt.Errorf("closing gzip writer: %w", err)
	}

	header := &Header{
		Version:    FormatVersion,
		CreatedAt:  createdAt.UTC(),
		Checksum:   checksum(compressed.Bytes()),
		Counts:     data.Counts(),
		Compressed: true,
		Metadata:   metadata,
	}
	headerBytes, err := json.Marshal(header)
	if err != nil {
		return nil, fmt.Errorf("marshaling header: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return nil, fmt.Errorf("creating file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	w.Write(headerBytes)
	w.WriteByte('\n')
	w.Write(compressed.Bytes())
	if err := w.Flush(); err != nil {
		return nil, fmt.Errorf("writing bundle: %w", err)
	}
	return header, f.Close()
}

// open reads and parses the header line, leaving the reader at the payload.
func open(path string) (*os.File, *bufio.Reader, *Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("opening file: %w", err)
	}

	reader := bufio.NewReader(f)
	headerLine, err := reader.ReadBytes('\n')
	if err != nil {
		f.Close()
		return nil, nil, nil, fmt.Errorf("reading header line: %w", err)
	}

	var header Header
	if err := json.Unmarshal(bytes.TrimSpace(headerLine), &header); err != nil {
		f.Close()
		return nil, nil, nil, fmt.Errorf("parsing header: %w", err)
	}
	if header.Version != FormatVersion {
		f.Close()
		return nil, nil, nil, fmt.Errorf("unsupported bundle version %d", header.Version)
	}
	return f, reader, &header, nil
}

// readPayload reads the compressed payload and verifies it against the header.
func readPayload(reader io.Reader, header *Header) ([]byte, error) {
	compressed, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading compressed payload: %w", err)
	}
	if actual := checksum(compressed); actual != header.Checksum {
		return nil, fmt.Errorf("%w: expected %s, got %s", ErrChecksum, header.Checksum, actual)
	}
	return compressed, nil
}

// ReadHeader reads only the header line of a bundle.
func ReadHeader(path string) (*Header, error) {
	f, _, header, err := open(path)
	if err != nil {
		return nil, err
	}
	f.Close()
	return header, nil
}

// Verify checks the payload checksum without decompressing.
func Verify(path string) (*Header, error) {
	f, reader, header, err := open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if _, err := readPayload(reader, header); err != nil {
		return nil, err
	}
	return header, nil
}

// Read verifies and decompresses a bundle.
func Read(path string) (*Header, *models.Dataset, error) {
	f, reader, header, err := open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	compressed, err := readPayload(reader, header)
	if err != nil {
		return nil, nil, err
	}

	gzr, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, nil, fmt.Errorf("creating gzip reader: %w", err)
	}
	defer gzr.Close()

	decompressed, err := io.ReadAll(io.LimitReader(gzr, MaxDecompressedSize+1))
	if err != nil {
		return nil, nil, fmt.Errorf("decompressing payload: %w", err)
	}
	if int64(len(decompressed)) > MaxDecompressedSize {
		return nil, nil, fmt.Errorf("decompressed payload exceeds maximum size of %d bytes", MaxDecompressedSize)
	}

	data := models.NewDataset()
	if err := json.Unmarshal(decompressed, data); err != nil {
		return nil, nil, fmt.Errorf("parsing bundle data: %w", err)
	}
	if got := data.Counts(); got != header.Counts {
		return nil, nil, fmt.Errorf("bundle counts %+v do not match header %+v", got, header.Counts)
	}
	return header, data, nil
}
