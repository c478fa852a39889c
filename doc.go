// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

// Package jdom implements a streaming JSON tokenizer and token writer.
//
// # Reading
//
// A [Reader] consumes JSON text and reports a sequence of typed tokens:
//
//	r := jdom.NewReader(input)
//	for {
//	   err := r.Next()
//	   if err == io.EOF {
//	      break
//	   } else if err != nil {
//	      log.Fatalf("Next failed: %v", err)
//	   }
//	   fmt.Println(r.Token(), r.Value(), r.Path())
//	}
//
// The reader accepts the lenient dialect commonly produced by JavaScript
// programs in addition to strict JSON: single-quoted strings, unquoted
// property names, comments, constructors like new Date(1), the literals
// NaN, Infinity and undefined, and optionally trailing commas, sparse array
// elements, and multiple top-level values.
//
// The state of a Reader is held entirely in its fields, so it can be driven
// in three ways that report identical tokens:
//
//   - Next reads from an [io.Reader], blocking as needed.
//   - NextContext does the same, but gives up when its context ends. A read
//     that was abandoned can be retried without loss.
//   - A reader made by [NewPushReader] never blocks. The caller supplies
//     input with Push, and Next reports [ErrNeedInput] when it must have more.
//
// # Writing
//
// A [Writer] emits formatted JSON text for a sequence of token calls. It
// implements [TokenWriter], and [WriteToken] copies values from any
// [TokenReader] to any TokenWriter.
//
// # Events
//
// A [Stream] delivers the structure of a token sequence to a [Handler] as a
// series of events, and checks that containers are balanced.
//
// # Errors
//
// Errors reported by the reader, writer, and stream have concrete type
// [*SyntaxError], which carries the location and the JSON path of the
// offending token. Reader errors are terminal: once a read fails, every
// later call reports the same error.
package jdom
