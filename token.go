// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jdom

// TokenKind is the type of a token reported by a [TokenReader].
type TokenKind byte

// Constants defining the valid TokenKind values.
const (
	None             TokenKind = iota // no token has been read
	StartObject                       // the start of an object "{"
	StartArray                        // the start of an array "["
	StartConstructor                  // the start of a constructor "new Name("
	PropertyName                      // an object member name
	Comment                           // a block or line comment
	Integer                           // an integer number
	Float                             // a number with fraction or exponent, NaN, or Infinity
	String                            // a string
	Boolean                           // a constant true or false
	Null                              // the constant null
	Undefined                         // the constant undefined, or a sparse array element
	EndObject                         // the end of an object "}"
	EndArray                          // the end of an array "]"
	EndConstructor                    // the end of a constructor ")"
	Date                              // a date or time
	Bytes                             // a binary value
)

var kindStr = [...]string{
	None:             "none",
	StartObject:      "start object",
	StartArray:       "start array",
	StartConstructor: "start constructor",
	PropertyName:     "property name",
	Comment:          "comment",
	Integer:          "integer",
	Float:            "float",
	String:           "string",
	Boolean:          "boolean",
	Null:             "null",
	Undefined:        "undefined",
	EndObject:        "end object",
	EndArray:         "end array",
	EndConstructor:   "end constructor",
	Date:             "date",
	Bytes:            "bytes",
}

func (k TokenKind) String() string {
	if int(k) >= len(kindStr) {
		return "invalid token"
	}
	return kindStr[k]
}

// IsStart reports whether k opens a container.
func (k TokenKind) IsStart() bool {
	return k == StartObject || k == StartArray || k == StartConstructor
}

// IsEnd reports whether k closes a container.
func (k TokenKind) IsEnd() bool {
	return k == EndObject || k == EndArray || k == EndConstructor
}

// IsPrimitive reports whether k is a complete scalar value.
func (k TokenKind) IsPrimitive() bool {
	switch k {
	case Integer, Float, String, Boolean, Null, Undefined, Date, Bytes:
		return true
	}
	return false
}

// endOf returns the token that closes a container opened by k.
func (k TokenKind) endOf() TokenKind {
	switch k {
	case StartObject:
		return EndObject
	case StartArray:
		return EndArray
	case StartConstructor:
		return EndConstructor
	}
	return None
}
