// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package main

import (
	"io"
	"log/slog"
	"path/filepath"
)

// newLogger returns a text logger writing to w at the given level. Source
// locations are reported by file base name.
func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: level <= slog.LevelDebug,
		ReplaceAttr: func(_ []string, attr slog.Attr) slog.Attr {
			if attr.Key == slog.SourceKey {
				if src, ok := attr.Value.Any().(*slog.Source); ok {
					src.File = filepath.Base(src.File)
				}
			}
			return attr
		},
	}))
}
