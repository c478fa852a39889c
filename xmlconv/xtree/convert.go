// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package xtree

import (
	"errors"
	"io"
	"strings"

	"github.com/creachadair/jdom"
	"github.com/creachadair/jdom/xmlconv"
)

// ToJSON renders d as compact JSON text using c, which may be nil.
func ToJSON(d Document, c *xmlconv.Converter) (string, error) {
	var sb strings.Builder
	if err := c.Serialize(jdom.NewWriter(&sb), ViewDocument(d)); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// FromJSON reads a single JSON value from r and converts it to a document
// using c, which may be nil.
func FromJSON(r io.Reader, c *xmlconv.Converter) (Document, error) {
	rd := jdom.NewReader(r)
	v := ViewDocument(Document{})
	if err := c.Deserialize(rd, v); err != nil {
		return Document{}, err
	}
	for {
		if err := rd.Next(); errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return Document{}, err
		}
	}
	return v.Document(), nil
}
