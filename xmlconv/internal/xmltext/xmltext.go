// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

// Package xmltext reads and writes XML text for the node families of
// xmlconv. Reading is layered on the raw token stream of encoding/xml, with
// namespace resolution, balance checking, and the distinctions that
// encoding/xml does not report: CDATA sections, whitespace-only text, and
// empty-element tags.
package xmltext

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/creachadair/jdom"
	"golang.org/x/net/html/charset"
)

// ReadAll reads r and returns its content as UTF-8. A byte order mark or a
// UTF-16 or UTF-32 encoding is detected from the start of the input. If the
// input begins with an XML declaration naming another encoding, the content
// is transcoded from that encoding.
func ReadAll(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(jdom.DecodeInput(r))
	if err != nil {
		return nil, err
	}
	label := declaredEncoding(data)
	switch lc := strings.ToLower(label); {
	case lc == "", lc == "utf-8", lc == "utf8",
		strings.HasPrefix(lc, "utf-16"), strings.HasPrefix(lc, "utf-32"), strings.HasPrefix(lc, "ucs"):
		return data, nil
	}
	cr, err := charset.NewReaderLabel(label, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s input: %w", label, err)
	}
	return io.ReadAll(cr)
}

// declaredEncoding returns the encoding named by the XML declaration at the
// start of data, or "".
func declaredEncoding(data []byte) string {
	if !bytes.HasPrefix(data, []byte("<?xml")) {
		return ""
	}
	end := bytes.Index(data, []byte("?>"))
	if end < 0 {
		return ""
	}
	_, enc, _ := ParseDeclaration(string(data[len("<?xml"):end]))
	return enc
}

// NewDecoder returns a strict decoder for data returned by ReadAll. Since
// data is already UTF-8, the encoding named by a declaration is accepted
// without conversion.
func NewDecoder(data []byte) *xml.Decoder {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = func(_ string, input io.Reader) (io.Reader, error) { return input, nil }
	return dec
}

// ParseDeclaration parses the pseudo-attributes of an XML declaration.
func ParseDeclaration(inst string) (version, encoding, standalone string) {
	for _, kv := range pseudoAttrs(inst) {
		switch kv[0] {
		case "version":
			version = kv[1]
		case "encoding":
			encoding = kv[1]
		case "standalone":
			standalone = kv[1]
		}
	}
	return
}

// pseudoAttrs splits text of the form name="value" name='value' into pairs.
func pseudoAttrs(s string) [][2]string {
	var out [][2]string
	for {
		s = strings.TrimLeft(s, " \t\r\n")
		eq := strings.IndexByte(s, '=')
		if eq <= 0 {
			return out
		}
		name := strings.TrimSpace(s[:eq])
		rest := strings.TrimLeft(s[eq+1:], " \t\r\n")
		if rest == "" || (rest[0] != '"' && rest[0] != '\'') {
			return out
		}
		end := strings.IndexByte(rest[1:], rest[0])
		if end < 0 {
			return out
		}
		out = append(out, [2]string{name, rest[1 : end+1]})
		s = rest[end+2:]
	}
}

// DocType holds the parts of a document type declaration.
type DocType struct {
	Name, Public, System, Subset string
}

// ParseDocType parses the text of a <!DOCTYPE ...> directive, without the
// angle brackets and the exclamation point. It reports false if dir is not
// a document type declaration.
func ParseDocType(dir string) (DocType, bool) {
	rest, ok := strings.CutPrefix(dir, "DOCTYPE")
	if !ok || rest == "" || !isSpace(rest[0]) {
		return DocType{}, false
	}
	var dt DocType
	dt.Name, rest = nextWord(rest)
	if dt.Name == "" {
		return DocType{}, false
	}
	var kw string
	kw, after := nextWord(rest)
	switch kw {
	case "PUBLIC":
		dt.Public, after = quoted(after)
		dt.System, after = quoted(after)
		rest = after
	case "SYSTEM":
		dt.System, rest = quoted(after)
	}
	rest = strings.TrimSpace(rest)
	if strings.HasPrefix(rest, "[") {
		if end := strings.LastIndexByte(rest, ']'); end > 0 {
			dt.Subset = rest[1:end]
		}
	}
	return dt, true
}

func nextWord(s string) (word, rest string) {
	s = strings.TrimLeft(s, " \t\r\n")
	i := strings.IndexAny(s, " \t\r\n[")
	if i < 0 {
		return s, ""
	}
	return s[:i], s[i:]
}

func quoted(s string) (string, string) {
	s = strings.TrimLeft(s, " \t\r\n")
	if s == "" || (s[0] != '"' && s[0] != '\'') {
		return "", s
	}
	end := strings.IndexByte(s[1:], s[0])
	if end < 0 {
		return s[1:], ""
	}
	return s[1 : end+1], s[end+2:]
}

func isSpace(c byte) bool { return c == ' ' || c == '\t' || c == '\r' || c == '\n' }

// IsSpace reports whether s consists entirely of XML whitespace.
func IsSpace(s []byte) bool {
	for _, c := range s {
		if !isSpace(c) {
			return false
		}
	}
	return true
}
