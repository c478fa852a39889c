// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

// Program jdom reads, reformats, and converts JSON documents.
//
// Usage:
//
//	jdom tokens [file ...]     # print the token stream with paths and locations
//	jdom fmt [file ...]        # reformat JSON text
//	jdom get [key|index ...]   # print the value at a path
//	jdom xml2json [file ...]   # convert XML documents to JSON
//	jdom json2xml [file ...]   # convert JSON documents to XML
//	jdom bson [file ...]       # convert JSON to BSON, or BSON to JSON with --decode
//	jdom cbor [file ...]       # convert JSON to CBOR
//
// With no file arguments, or with "-", input is read from stdin. When several
// files are given they are processed concurrently, and the results are
// written in argument order.
package main

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	a := &app{
		stdin:  os.Stdin,
		stdout: os.Stdout,
		log:    newLogger(os.Stderr, slog.LevelInfo),
		logOut: os.Stderr,
	}
	cobra.CheckErr(a.newCLI().ExecuteContext(context.Background()))
}

// app holds the I/O streams and settings shared by all subcommands.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	logOut io.Writer
	log    *slog.Logger

	configPath string
	output     string
	encoding   string
	verbose    bool
	cfg        settings
}
