// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package xmldom

import (
	"errors"
	"io"
	"strings"

	"github.com/creachadair/jdom"
	"github.com/creachadair/jdom/xmlconv"
)

// ToJSON renders n as compact JSON text using c, which may be nil.
func ToJSON(n xmlconv.Node, c *xmlconv.Converter) (string, error) {
	var sb strings.Builder
	if err := c.Serialize(jdom.NewWriter(&sb), n); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// FromJSON reads a single JSON value from r and converts it to a new
// document using c, which may be nil. Comments in the input become XML
// comments.
func FromJSON(r io.Reader, c *xmlconv.Converter) (*Document, error) {
	rd := jdom.NewReader(r)
	doc := NewDocument()
	if err := c.Deserialize(rd, doc); err != nil {
		return nil, err
	}
	// The reader rejects a second value; trailing comments are allowed.
	for {
		if err := rd.Next(); errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return nil, err
		}
	}
	return doc, nil
}
