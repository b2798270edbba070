package pca

import (
	"strings"
	"sync"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
)

// Encoding is the text encoding of an artifact file.
type Encoding int

const (
	UTF8 Encoding = iota
	UTF16LE
	UTF16BE
)

func (e Encoding) String() string {
	switch e {
	case UTF16LE:
		return "UTF-16LE"
	case UTF16BE:
		return "UTF-16BE"
	default:
		return "UTF-8"
	}
}

// sniffSize is how many leading bytes DetectEncoding looks at.
const sniffSize = 100

// DetectEncoding picks the encoding of a file from its first bytes: a byte
// order mark if there is one, otherwise a count of NUL bytes against
// printable ASCII. Fewer than two bytes is UTF-8.
func DetectEncoding(head []byte) Encoding {
	if len(head) > sniffSize {
		head = head[:sniffSize]
	}
	switch {
	case len(head) < 2:
		return UTF8
	case head[0] == 0xFF && head[1] == 0xFE:
		return UTF16LE
	case head[0] == 0xFE && head[1] == 0xFF:
		return UTF16BE
	case len(head) >= 3 && head[0] == 0xEF && head[1] == 0xBB && head[2] == 0xBF:
		return UTF8
	}

	nulls, printable := 0, 0
	for _, b := range head {
		switch {
		case b == 0:
			nulls++
		case b >= 32 && b < 127:
			printable++
		}
	}
	if nulls > 10 && nulls > printable/3 {
		return UTF16LE
	}
	return UTF8
}

// decoder returns a decoder that also consumes a matching BOM.
func (e Encoding) decoder() *encoding.Decoder {
	switch e {
	case UTF16LE:
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
	case UTF16BE:
		return unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder()
	default:
		return unicode.UTF8BOM.NewDecoder()
	}
}

// encodingCache remembers the detected encoding per path. Paths compare
// case-insensitively.
type encodingCache struct {
	mu    sync.Mutex
	known map[string]Encoding
}

func newEncodingCache() *encodingCache {
	return &encodingCache{known: make(map[string]Encoding)}
}

func (c *encodingCache) get(path string) (Encoding, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.known[strings.ToUpper(path)]
	return e, ok
}

func (c *encodingCache) put(path string, e Encoding) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.known[strings.ToUpper(path)] = e
}
