package converter

import (
	"bytes"
	"fmt"
	"mime"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}

	// xmlDeclEncoding matches the encoding pseudo-attribute of an XML declaration
	xmlDeclEncoding = regexp.MustCompile(`^\s*<\?xml[^>]*?\sencoding\s*=\s*["']([A-Za-z0-9._:-]+)["']`)
)

// DetectEncoding returns the encoding of raw document bytes and whether a
// byte order mark must be skipped. The content type (may be empty) wins over
// the XML declaration; UTF-8 is the default.
func DetectEncoding(content []byte, contentType string) (encoding.Encoding, string) {
	switch {
	case bytes.HasPrefix(content, bomUTF8):
		return unicode.UTF8BOM, "utf-8"
	case bytes.HasPrefix(content, bomUTF16LE):
		return unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM), "utf-16le"
	case bytes.HasPrefix(content, bomUTF16BE):
		return unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM), "utf-16be"
	}

	if label := charsetFromContentType(contentType); label != "" {
		if enc, name := charset.Lookup(label); enc != nil {
			return enc, name
		}
	}

	if label := DeclaredEncoding(content); label != "" {
		if enc, name := charset.Lookup(label); enc != nil {
			return enc, name
		}
	}

	return unicode.UTF8, "utf-8"
}

// DeclaredEncoding extracts the encoding label from an XML declaration
func DeclaredEncoding(content []byte) string {
	head := content[:min(256, len(content))]
	m := xmlDeclEncoding.FindSubmatch(head)
	if m == nil {
		return ""
	}
	return strings.ToLower(string(m[1]))
}

// charsetFromContentType extracts the charset parameter of a Content-Type header
func charsetFromContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(params["charset"]))
}

// ToText decodes raw document bytes as UTF-8, the form in which documents
// are aggregated. Bytes are kept as read: a leading byte order mark stays and
// invalid sequences become U+FFFD. Declared charsets are ignored, so disk and
// network copies of the same bytes yield the same text.
func ToText(content []byte) string {
	if utf8.Valid(content) {
		return string(content)
	}
	out, _, err := transform.Bytes(unicode.UTF8.NewDecoder(), content)
	if err != nil {
		return strings.ToValidUTF8(string(content), "\uFFFD")
	}
	return string(out)
}

// ParseView returns the text handed to the XML parser. It is never
// aggregated. Valid UTF-8 is read as UTF-8 whatever its declaration says;
// other bytes are transcoded by DetectEncoding. The byte order mark is
// dropped and a declaration naming another encoding is rewritten to UTF-8,
// since the parser would otherwise transcode a second time.
func ParseView(content []byte, contentType string) (string, error) {
	var text string
	if utf8.Valid(content) {
		text = string(content)
	} else {
		enc, name := DetectEncoding(content, contentType)
		out, _, err := transform.Bytes(enc.NewDecoder(), content)
		if err != nil {
			return "", fmt.Errorf("decode %s: %w", name, err)
		}
		text = string(out)
	}
	return rewriteDeclaration(strings.TrimPrefix(text, "\uFEFF")), nil
}

func rewriteDeclaration(text string) string {
	loc := xmlDeclEncoding.FindStringSubmatchIndex(text)
	if loc == nil {
		return text
	}
	label := strings.ToLower(text[loc[2]:loc[3]])
	if label == "utf-8" || label == "utf8" {
		return text
	}
	return text[:loc[2]] + "UTF-8" + text[loc[3]:]
}
