package loader

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/MrSnakeDoc/enumlive/internal/utils"
)

// ErrInputNotFound is returned when the URL list does not exist.
var ErrInputNotFound = errors.New("loader: url file not found")

// maxLineBytes bounds a single URL line.
const maxLineBytes = 1 << 20

// ReadURLs loads a newline-delimited URL list, one entry per line with
// surrounding whitespace trimmed. Blank lines are kept; the hostname
// extractor drops them.
func ReadURLs(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrInputNotFound, path)
		}
		return nil, fmt.Errorf("failed to open url file: %w", err)
	}
	defer utils.Close(f)

	return Parse(f)
}

// Parse reads URL lines from r. A UTF-8 or UTF-16 byte order mark is
// honoured and stripped; input without one is read as UTF-8.
func Parse(r io.Reader) ([]string, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))

	scanner := bufio.NewScanner(decoded)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	var urls []string
	for scanner.Scan() {
		urls = append(urls, strings.TrimSpace(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read url file: %w", err)
	}
	return urls, nil
}
