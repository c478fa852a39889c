// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jdom

import (
	"bufio"
	"io"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
	"golang.org/x/text/transform"
)

// DecodeInput returns a reader that delivers the contents of r as UTF-8.
// The encoding is detected from a byte-order mark if there is one, and
// otherwise from the pattern of zero bytes at the start of the input, which
// for JSON text must begin with an ASCII character. Input that matches no
// other encoding is assumed to be UTF-8, and a UTF-8 byte-order mark is
// removed.
func DecodeInput(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	head, _ := br.Peek(4)
	enc := detectEncoding(head)
	if enc == nil {
		if len(head) >= 3 && head[0] == 0xef && head[1] == 0xbb && head[2] == 0xbf {
			br.Discard(3)
		}
		return br
	}
	return transform.NewReader(br, enc.NewDecoder())
}

// DecodeInputLabel returns a reader that converts the contents of r to UTF-8
// from the encoding with the given label, such as "latin1" or
// "windows-1252". Labels are as defined by the WHATWG Encoding Standard.
func DecodeInputLabel(r io.Reader, label string) (io.Reader, error) {
	return charset.NewReaderLabel(label, r)
}

func detectEncoding(head []byte) encoding.Encoding {
	b := func(i int) int {
		if i < len(head) {
			return int(head[i])
		}
		return -1
	}
	switch {
	case b(0) == 0 && b(1) == 0 && b(2) == 0xfe && b(3) == 0xff:
		return utf32.UTF32(utf32.BigEndian, utf32.ExpectBOM)
	case b(0) == 0xff && b(1) == 0xfe && b(2) == 0 && b(3) == 0:
		return utf32.UTF32(utf32.LittleEndian, utf32.ExpectBOM)
	case b(0) == 0xfe && b(1) == 0xff:
		return unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM)
	case b(0) == 0xff && b(1) == 0xfe:
		return unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM)
	case b(0) == 0 && b(1) == 0 && b(2) == 0 && b(3) > 0:
		return utf32.UTF32(utf32.BigEndian, utf32.IgnoreBOM)
	case b(0) > 0 && b(1) == 0 && b(2) == 0 && b(3) == 0:
		return utf32.UTF32(utf32.LittleEndian, utf32.IgnoreBOM)
	case b(0) == 0 && b(1) > 0:
		return unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)
	case b(0) > 0 && b(1) == 0:
		return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)
	}
	return nil
}
