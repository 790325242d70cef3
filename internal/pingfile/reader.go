// Package pingfile reads line-delimited ping records from disk. Input may be
// plain text or gzip/zstd compressed; the format is detected from the
// leading bytes, not the file name.
package pingfile

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"speedmap.onebusaway.org/internal/logging"
	"speedmap.onebusaway.org/internal/models"
)

// ErrInputNotFound is returned when the input file does not exist.
var ErrInputNotFound = errors.New("input file not found")

// maxLineSize bounds a single ping record.
const maxLineSize = 1024 * 1024

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// ReadFile opens path and decodes every ping in it, in file order.
func ReadFile(path string) ([]models.Ping, error) {
	return ReadFileWithLogger(path, nil)
}

// ReadFileWithLogger is ReadFile with a logger for close failures. A nil
// logger means slog.Default.
func ReadFileWithLogger(path string, logger *slog.Logger) ([]models.Ping, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %w", ErrInputNotFound, err)
		}
		return nil, fmt.Errorf("opening ping file: %w", err)
	}
	defer logging.SafeCloseWithLogging(f, componentLogger(logger), "ping_file")

	pings, err := ReadWithLogger(f, logger)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return pings, nil
}

// Read decodes one ping per line from r. Blank lines are skipped; any other
// line that fails to decode aborts the read.
func Read(r io.Reader) ([]models.Ping, error) {
	return ReadWithLogger(r, nil)
}

// ReadWithLogger is Read with a logger for close failures.
func ReadWithLogger(r io.Reader, logger *slog.Logger) ([]models.Ping, error) {
	body, closer, err := decompress(r)
	if err != nil {
		return nil, err
	}
	if closer != nil {
		defer logging.SafeCloseWithLogging(closer, componentLogger(logger), "decompressor")
	}

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var pings []models.Ping
	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}

		ping, err := models.ParsePing(raw)
		if err != nil {
			var recErr *models.MalformedRecordError
			if errors.As(err, &recErr) {
				recErr.Line = line
			}
			return nil, err
		}
		pings = append(pings, ping)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning line %d: %w", line+1, err)
	}

	return pings, nil
}

// decompress wraps r in a gzip or zstd reader when its first bytes carry the
// matching magic number. The returned closer, if any, must be closed.
func decompress(r io.Reader) (io.Reader, io.Closer, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(len(zstdMagic))
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("peeking input header: %w", err)
	}

	switch {
	case bytes.HasPrefix(head, gzipMagic):
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, nil, fmt.Errorf("opening gzip stream: %w", err)
		}
		return zr, zr, nil
	case bytes.HasPrefix(head, zstdMagic):
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, nil, fmt.Errorf("opening zstd stream: %w", err)
		}
		rc := zr.IOReadCloser()
		return rc, rc, nil
	}
	return br, nil, nil
}

func componentLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With(slog.String("component", "pingfile"))
}
