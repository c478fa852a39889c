// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jdom_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/creachadair/jdom"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
)

func TestDecodeInput(t *testing.T) {
	const text = `{"name": "Zoë", "n": 1}`
	encode := func(enc encoding.Encoding) []byte {
		data, err := enc.NewEncoder().Bytes([]byte(text))
		if err != nil {
			t.Fatalf("Encode failed: %v", err)
		}
		return data
	}
	tests := []struct {
		name  string
		input []byte
	}{
		{"UTF8", []byte(text)},
		{"UTF8BOM", append([]byte{0xef, 0xbb, 0xbf}, text...)},
		{"UTF16LE", encode(unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM))},
		{"UTF16BE", encode(unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM))},
		{"UTF16LEBOM", encode(unicode.UTF16(unicode.LittleEndian, unicode.UseBOM))},
		{"UTF16BEBOM", encode(unicode.UTF16(unicode.BigEndian, unicode.UseBOM))},
		{"UTF32LE", encode(utf32.UTF32(utf32.LittleEndian, utf32.IgnoreBOM))},
		{"UTF32BE", encode(utf32.UTF32(utf32.BigEndian, utf32.IgnoreBOM))},
		{"UTF32BEBOM", encode(utf32.UTF32(utf32.BigEndian, utf32.UseBOM))},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := io.ReadAll(jdom.DecodeInput(bytes.NewReader(test.input)))
			if err != nil {
				t.Fatalf("ReadAll failed: %v", err)
			}
			if string(got) != text {
				t.Errorf("DecodeInput: got %q, want %q", got, text)
			}
		})
	}
}

func TestDecodeInputLabel(t *testing.T) {
	r, err := jdom.DecodeInputLabel(bytes.NewReader([]byte{'"', 0xe9, '"'}), "latin1")
	if err != nil {
		t.Fatalf("DecodeInputLabel failed: %v", err)
	}
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if want := `"é"`; string(got) != want {
		t.Errorf("DecodeInputLabel: got %q, want %q", got, want)
	}

	if _, err := jdom.DecodeInputLabel(bytes.NewReader(nil), "no-such-encoding"); err == nil {
		t.Error("DecodeInputLabel with an unknown label: got nil, want error")
	}
}
