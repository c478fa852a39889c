// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/creachadair/jdom"
	"github.com/creachadair/jdom/bsonx"
	"github.com/creachadair/jdom/cborx"
	"github.com/creachadair/jdom/tree"
	"github.com/creachadair/jdom/tree/cursor"
	"github.com/creachadair/jdom/xmlconv"
	"github.com/creachadair/jdom/xmlconv/xmldom"
	"github.com/creachadair/jdom/xmlconv/xtree"
	"github.com/spf13/cobra"
	"github.com/tailscale/hujson"
)

// jsonInput returns a reader for JSON text from in, transcoded to UTF-8.
func (a *app) jsonInput(in io.Reader) (*jdom.Reader, error) {
	src := in
	if a.encoding == "" {
		src = jdom.DecodeInput(in)
	} else {
		var err error
		if src, err = jdom.DecodeInputLabel(in, a.encoding); err != nil {
			return nil, err
		}
	}
	rd := jdom.NewReader(src)
	rd.AllowMultipleValues(true)
	if a.cfg.MaxDepth > 0 {
		rd.SetMaxDepth(a.cfg.MaxDepth)
	}
	return rd, nil
}

func (a *app) jsonOutput(out io.Writer) *jdom.Writer {
	w := jdom.NewWriter(out)
	if a.cfg.Indent > 0 {
		w.SetIndent("", strings.Repeat(" ", a.cfg.Indent))
	}
	return w
}

func (a *app) converter() *xmlconv.Converter {
	return &xmlconv.Converter{
		RootElementName:     a.cfg.Root,
		WriteArrayAttribute: a.cfg.ArrayAttribute,
		OmitRootObject:      a.cfg.OmitRoot,
	}
}

func (a *app) tokensCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tokens [file ...]",
		Short: "Print the tokens of JSON input",
		Long: `Print the tokens of JSON input, one per line.

Each line gives the line:column of the end of the token, its nesting depth,
its kind, its path, and its value if it has one, separated by tabs.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runFiles(cmd.Context(), args, a.printTokens)
		},
	}
}

func (a *app) printTokens(ctx context.Context, in io.Reader, out io.Writer) error {
	rd, err := a.jsonInput(in)
	if err != nil {
		return err
	}
	for {
		if err := rd.NextContext(ctx); err == io.EOF {
			return nil
		} else if err != nil {
			return err
		}
		fmt.Fprintf(out, "%v\t%d\t%v\t%s", rd.Location(), rd.Depth(), rd.Token(), rd.Path())
		if v := rd.Value(); v != nil {
			fmt.Fprintf(out, "\t%s", valueString(v))
		}
		fmt.Fprintln(out)
	}
}

func valueString(v any) string {
	switch t := v.(type) {
	case string:
		return strconv.Quote(t)
	case []byte:
		return base64.StdEncoding.EncodeToString(t)
	case time.Time:
		return t.Format(time.RFC3339Nano)
	}
	return fmt.Sprint(v)
}

func (a *app) fmtCmd() *cobra.Command {
	var jwcc, standard bool
	cmd := &cobra.Command{
		Use:   "fmt [file ...]",
		Short: "Reformat JSON text",
		Long: `Reformat JSON text.

By default the input is parsed leniently and rewritten compactly, or with
the configured indentation. Comments are kept. With --jwcc the input is
treated as JSON with commas and comments, and formatted in place.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if jwcc || standard {
				return a.runFiles(cmd.Context(), args, func(_ context.Context, in io.Reader, out io.Writer) error {
					return formatJWCC(in, out, standard)
				})
			}
			return a.runFiles(cmd.Context(), args, a.formatJSON)
		},
	}
	cmd.Flags().BoolVar(&jwcc, "jwcc", false, "Format as JSON with commas and comments")
	cmd.Flags().BoolVar(&standard, "standard", false, "Strip comments and trailing commas (implies --jwcc)")
	return cmd
}

func (a *app) formatJSON(ctx context.Context, in io.Reader, out io.Writer) error {
	rd, err := a.jsonInput(in)
	if err != nil {
		return err
	}
	rd.AllowTrailingCommas(true)
	w := a.jsonOutput(out)
	if err := jdom.WriteTokens(w, rd); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	_, err = io.WriteString(out, "\n")
	return err
}

func formatJWCC(in io.Reader, out io.Writer, standard bool) error {
	data, err := io.ReadAll(in)
	if err != nil {
		return err
	}
	v, err := hujson.Parse(data)
	if err != nil {
		return err
	}
	if standard {
		v.Standardize()
	}
	v.Format()
	_, err = out.Write(v.Pack())
	return err
}

func (a *app) getCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "get [--file f] [key|index ...]",
		Short: "Print the value at a path in a JSON document",
		Long: `Print the value at a path in a JSON document.

Each argument is a property name, or an integer offset into an array,
constructor, or object. Negative offsets count from the end.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := make([]any, len(args), len(args)+1)
			for i, arg := range args {
				if n, err := strconv.Atoi(arg); err == nil {
					path[i] = n
				} else {
					path[i] = arg
				}
			}
			path = append(path, nil) // end at a value, not a property
			var files []string
			if file != "" {
				files = []string{file}
			}
			return a.runFiles(cmd.Context(), files, func(_ context.Context, in io.Reader, out io.Writer) error {
				rd, err := a.jsonInput(in)
				if err != nil {
					return err
				}
				rd.AllowMultipleValues(false)
				root, err := tree.Load(rd, nil)
				if err != nil {
					return err
				}
				c := cursor.New(root).Down(path...)
				if err := c.Err(); err != nil {
					return err
				}
				_, err = fmt.Fprintln(out, tree.Format(c.Node(), strings.Repeat(" ", a.cfg.Indent)))
				return err
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Read input from this file (default stdin)")
	return cmd
}

func (a *app) xml2jsonCmd() *cobra.Command {
	var keepSpace bool
	cmd := &cobra.Command{
		Use:   "xml2json [file ...]",
		Short: "Convert XML documents to JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runFiles(cmd.Context(), args, func(_ context.Context, in io.Reader, out io.Writer) error {
				var node xmlconv.Node
				if a.cfg.Model == "tree" {
					doc, err := xtree.Parse(in)
					if err != nil {
						return err
					}
					node = xtree.ViewDocument(doc)
				} else {
					doc, err := xmldom.Parse(in, &xmldom.ParseOptions{PreserveWhitespace: keepSpace})
					if err != nil {
						return err
					}
					node = doc
				}
				w := a.jsonOutput(out)
				if err := a.converter().Serialize(w, node); err != nil {
					return err
				}
				if err := w.Close(); err != nil {
					return err
				}
				_, err := io.WriteString(out, "\n")
				return err
			})
		},
	}
	cmd.Flags().String("model", "dom", `XML node model ("dom" or "tree")`)
	cmd.Flags().Bool("omit-root", false, "Write the root element without an enclosing object")
	cmd.Flags().BoolVar(&keepSpace, "keep-space", false, "Keep whitespace-only text (dom model)")
	return cmd
}

func (a *app) json2xmlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "json2xml [file ...]",
		Short: "Convert JSON documents to XML",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runFiles(cmd.Context(), args, func(_ context.Context, in io.Reader, out io.Writer) error {
				if a.cfg.Model == "tree" {
					doc, err := xtree.FromJSON(in, a.converter())
					if err != nil {
						return err
					}
					if err := xtree.Encode(out, doc); err != nil {
						return err
					}
				} else {
					doc, err := xmldom.FromJSON(in, a.converter())
					if err != nil {
						return err
					}
					if _, err := doc.WriteTo(out); err != nil {
						return err
					}
				}
				_, err := io.WriteString(out, "\n")
				return err
			})
		},
	}
	cmd.Flags().String("model", "dom", `XML node model ("dom" or "tree")`)
	cmd.Flags().String("root", "", "Wrap the top-level object in an element with this name")
	cmd.Flags().Bool("array-attribute", false, "Mark elements made from arrays with json:Array")
	return cmd
}

func (a *app) bsonCmd() *cobra.Command {
	var decode, rootArray bool
	cmd := &cobra.Command{
		Use:   "bson [file ...]",
		Short: "Convert JSON to BSON, or BSON to JSON",
		Long: `Convert JSON to BSON, or BSON to JSON with --decode.

Each top-level JSON object becomes one BSON document. When decoding, each
document is written as JSON on its own line.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if decode {
				return a.runFiles(cmd.Context(), args, func(_ context.Context, in io.Reader, out io.Writer) error {
					rd := bsonx.NewReader(in)
					rd.AllowMultipleValues(true)
					rd.ReadRootAsArray(rootArray)
					w := a.jsonOutput(out)
					if err := jdom.WriteTokens(w, rd); err != nil {
						return err
					}
					if err := w.Close(); err != nil {
						return err
					}
					_, err := io.WriteString(out, "\n")
					return err
				})
			}
			return a.runFiles(cmd.Context(), args, func(_ context.Context, in io.Reader, out io.Writer) error {
				rd, err := a.jsonInput(in)
				if err != nil {
					return err
				}
				w := bsonx.NewWriter(out)
				w.WriteRootAsArray(rootArray)
				if err := jdom.WriteTokens(w, rd); err != nil {
					return err
				}
				return w.Close()
			})
		},
	}
	cmd.Flags().BoolVarP(&decode, "decode", "d", false, "Convert BSON input to JSON")
	cmd.Flags().BoolVar(&rootArray, "root-array", false, "Treat top-level documents as arrays")
	return cmd
}

func (a *app) cborCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cbor [file ...]",
		Short: "Convert JSON to CBOR",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runFiles(cmd.Context(), args, func(_ context.Context, in io.Reader, out io.Writer) error {
				rd, err := a.jsonInput(in)
				if err != nil {
					return err
				}
				w := cborx.NewWriter(out)
				if err := jdom.WriteTokens(w, rd); err != nil {
					return err
				}
				return w.Close()
			})
		},
	}
}
