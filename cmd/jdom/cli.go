// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func (a *app) newCLI() *cobra.Command {
	root := &cobra.Command{
		Use:   "jdom",
		Short: "Read, reformat, and convert JSON documents",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			if err := a.loadSettings(cmd); err != nil {
				return err
			}
			if a.cfg.Debug {
				a.log = newLogger(a.logOut, slog.LevelDebug)
			}
			return nil
		},
	}
	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.logOut)

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "Path of a YAML config file")
	pf.StringVarP(&a.output, "output", "o", "", "Write output to this file instead of stdout")
	pf.StringVar(&a.encoding, "encoding", "", "Character encoding of JSON input, e.g. latin1 (default: detect)")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")
	pf.Int("indent", 0, "Indent nested values by this many spaces (0 is compact)")
	pf.Int("max-depth", 0, "Maximum nesting depth of JSON input (0 uses the default)")

	cobra.EnableCommandSorting = false
	root.AddCommand(
		a.tokensCmd(),
		a.fmtCmd(),
		a.getCmd(),
		a.xml2jsonCmd(),
		a.json2xmlCmd(),
		a.bsonCmd(),
		a.cborCmd(),
	)
	return root
}

// A convertFunc converts one input to one output.
type convertFunc func(ctx context.Context, in io.Reader, out io.Writer) error

// runFiles applies conv to each named input, or to stdin if there are none.
// Multiple inputs are converted concurrently, and their outputs are written
// in order.
func (a *app) runFiles(ctx context.Context, args []string, conv convertFunc) error {
	if len(args) == 0 {
		args = []string{"-"}
	}
	out, closeOut, err := a.openOutput()
	if err != nil {
		return err
	}

	bufs := make([]bytes.Buffer, len(args))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, name := range args {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			if err := a.convertFile(gctx, name, &bufs[i], conv); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			a.log.Debug("converted", "input", name, "bytes", bufs[i].Len(), "elapsed", time.Since(start))
			return nil
		})
	}
	err = g.Wait()
	if err == nil {
		for i := range bufs {
			if _, err = bufs[i].WriteTo(out); err != nil {
				break
			}
		}
	}
	if cerr := closeOut(); err == nil {
		err = cerr
	}
	return err
}

func (a *app) convertFile(ctx context.Context, name string, out io.Writer, conv convertFunc) error {
	if name == "-" {
		return conv(ctx, a.stdin, out)
	}
	f, err := os.Open(name)
	if err != nil {
		return err
	}
	defer f.Close()
	return conv(ctx, f, out)
}

func (a *app) openOutput() (io.Writer, func() error, error) {
	if a.output == "" {
		return a.stdout, func() error { return nil }, nil
	}
	f, err := os.Create(a.output)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}
