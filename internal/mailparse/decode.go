package mailparse

import (
	"bytes"
	"encoding/base64"
	"io"
	"mime"
	"mime/quotedprintable"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"
)

// decodeTransfer reverses a Content-Transfer-Encoding. Unknown and
// identity encodings pass the payload through unchanged. Multipart
// readers already strip quoted-printable, so that branch only fires
// for single-part bodies.
func decodeTransfer(data []byte, encoding string) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "base64":
		cleaned := strings.Map(func(r rune) rune {
			if r == '\r' || r == '\n' || r == ' ' || r == '\t' {
				return -1
			}
			return r
		}, string(data))
		return base64.StdEncoding.DecodeString(cleaned)
	case "quoted-printable":
		return io.ReadAll(quotedprintable.NewReader(bytes.NewReader(data)))
	default:
		return data, nil
	}
}

// decodeText converts part bytes to UTF-8 text. Decoding never fails:
// an unknown charset or invalid byte sequence falls back to Latin-1,
// which maps every byte to some rune.
func decodeText(data []byte, charset string) string {
	charset = strings.ToLower(strings.TrimSpace(charset))

	switch charset {
	case "", "utf-8", "utf8", "ascii", "us-ascii":
		if utf8.Valid(data) {
			return string(data)
		}
		return decodeLatin1(data)
	case "latin1", "latin-1", "iso-8859-1":
		return decodeLatin1(data)
	}

	enc, err := ianaindex.IANA.Encoding(charset)
	if err != nil || enc == nil {
		if utf8.Valid(data) {
			return string(data)
		}
		return decodeLatin1(data)
	}

	decoded, _, err := transform.Bytes(enc.NewDecoder(), data)
	if err != nil {
		return decodeLatin1(data)
	}
	return string(decoded)
}

func decodeLatin1(data []byte) string {
	decoded, _, err := transform.Bytes(charmap.ISO8859_1.NewDecoder(), data)
	if err != nil {
		return string(data)
	}
	return string(decoded)
}

// decodeWord decodes RFC2047 encoded-words in header values, passing
// the raw value through when decoding fails.
func decodeWord(s string) string {
	dec := new(mime.WordDecoder)
	decoded, err := dec.DecodeHeader(s)
	if err != nil {
		return s
	}
	return decoded
}
