package filesystem

import (
	"bytes"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/auditscope/auditscope/pkg/errors"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// Supported text encodings for report files.
const (
	EncodingUTF8        = "utf-8"
	EncodingUTF16LE     = "utf-16le"
	EncodingUTF16BE     = "utf-16be"
	EncodingWindows1252 = "windows-1252"
)

// ContentSource exposes one report file as decoded text lines: a
// bounded prefix for classification and full iteration for scanning.
type ContentSource interface {
	// Prefix returns the first n lines (fewer if the file is shorter)
	Prefix(n int) []string

	// Lines calls fn for every line with its 1-based number; fn
	// returning false stops the iteration
	Lines(fn func(num int, text string) bool)

	// Encoding names the detected text encoding
	Encoding() string
}

// fileSource is a ContentSource over a fully decoded file.
type fileSource struct {
	lines    []string
	encoding string
}

// Open reads and decodes one report file through the given filesystem.
// Undecodable content yields a FILE_DECODE error; unreadable files a
// FILE_ACCESS or FILE_NOT_FOUND error. Callers skip-and-report.
func Open(fsys FS, path string) (ContentSource, error) {
	raw, err := fsys.ReadFile(path)
	if err != nil {
		code := errors.ErrFileAccess
		if os.IsNotExist(err) {
			code = errors.ErrFileNotFound
		}
		return nil, errors.Wrapf(err, code, "cannot read %s", path)
	}

	text, enc, err := decode(raw)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileDecode, "cannot decode %s", path)
	}

	return &fileSource{lines: splitLines(text), encoding: enc}, nil
}

func (f *fileSource) Prefix(n int) []string {
	if n > len(f.lines) {
		n = len(f.lines)
	}
	return f.lines[:n]
}

func (f *fileSource) Lines(fn func(num int, text string) bool) {
	for i, line := range f.lines {
		if !fn(i+1, line) {
			return
		}
	}
}

func (f *fileSource) Encoding() string {
	return f.encoding
}

// decode detects the file's text encoding and returns its UTF-8 form.
// Detection order: BOM sniff, UTF-8 validity, Windows-1252 fallback.
// Text that still contains NUL bytes after decoding is treated as
// binary and rejected.
func decode(raw []byte) (string, string, error) {
	var dec *encoding.Decoder
	var name string

	switch {
	case bytes.HasPrefix(raw, []byte{0xEF, 0xBB, 0xBF}):
		raw = raw[3:]
		name = EncodingUTF8
	case bytes.HasPrefix(raw, []byte{0xFF, 0xFE}):
		dec = unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder()
		name = EncodingUTF16LE
	case bytes.HasPrefix(raw, []byte{0xFE, 0xFF}):
		dec = unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder()
		name = EncodingUTF16BE
	case utf8.Valid(raw):
		name = EncodingUTF8
	default:
		dec = charmap.Windows1252.NewDecoder()
		name = EncodingWindows1252
	}

	text := string(raw)
	if dec != nil {
		decoded, err := dec.Bytes(raw)
		if err != nil {
			return "", "", err
		}
		text = string(decoded)
	}

	if strings.ContainsRune(text, 0) {
		return "", "", errors.New(errors.ErrFileDecode, "content is not text")
	}
	return text, name, nil
}

// splitLines splits decoded text on \n, tolerating \r\n endings. A
// trailing newline does not produce a final empty line.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.TrimSuffix(text, "\n")
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
