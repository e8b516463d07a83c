package mapfile

import (
	"bufio"
	"log/slog"
	"os"
	"strings"
	"unicode/utf8"
)

// maxLineSize bounds a single map line. Demangled template names routinely
// run past bufio's 64KiB default.
const maxLineSize = 4 * 1024 * 1024

type FileLoader struct {
	Path string
}

func NewFileLoader(path string) *FileLoader {
	return &FileLoader{Path: path}
}

// ReadLines returns the file split into lines. Invalid UTF-8 is dropped
// rather than rejected; linkers happily emit raw bytes from symbol names.
func (d *FileLoader) ReadLines() ([]string, error) {
	slog.Debug("Loading map file", "path", d.Path)
	f, err := os.Open(d.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	s := bufio.NewScanner(f)
	s.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for s.Scan() {
		lines = append(lines, sanitizeLine(s.Text()))
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

// StringLoader serves lines from an in-memory map text.
type StringLoader string

func (s StringLoader) ReadLines() ([]string, error) {
	text := strings.ReplaceAll(string(s), "\r\n", "\n")
	if text == "" {
		return nil, nil
	}
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = sanitizeLine(l)
	}
	return lines, nil
}

func sanitizeLine(line string) string {
	line = strings.TrimRight(line, "\r")
	if utf8.ValidString(line) {
		return line
	}
	return strings.ToValidUTF8(line, "")
}
