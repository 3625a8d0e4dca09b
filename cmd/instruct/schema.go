package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/reoring/instruct"
	"github.com/reoring/instruct/export"
)

func compileFile(path, policy string) (*instruct.Validator, error) {
	spec, err := instruct.LoadSchemaFile(path)
	if err != nil {
		return nil, err
	}
	opts := []instruct.Option{}
	if policy != "" {
		p, ok := instruct.ParseUnknownPolicy(policy)
		if !ok {
			return nil, fmt.Errorf("unknown policy %q (use strip, strict or passthrough)", policy)
		}
		opts = append(opts, instruct.WithUnknownPolicy(p))
	}
	return instruct.Compile(spec, opts...)
}

// readData decodes a JSON document from path, or stdin when path is "-".
func readData(path string) (any, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	return instruct.DecodeJSONReader(r, instruct.DefaultDecodeOpt())
}

func newSchemaCmd() *cobra.Command {
	var format string
	var jsonSchema bool
	var policy string
	cmd := &cobra.Command{
		Use:   "schema <schema-file>",
		Short: "Compile a schema file and print its canonical form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := compileFile(args[0], policy)
			if err != nil {
				return err
			}
			if jsonSchema {
				b, err := json.MarshalIndent(v.JSONSchema(), "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(b))
				return nil
			}
			f := export.Format(strings.ToLower(format))
			if f == "md" {
				f = export.FormatMarkdown
			}
			out, err := export.RenderSchema(v.Descriptor(), f)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), strings.TrimRight(out, "\n")+"\n")
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "json", "json, yaml or markdown")
	cmd.Flags().BoolVar(&jsonSchema, "json-schema", false, "print the JSON Schema projection instead")
	cmd.Flags().StringVar(&policy, "unknown", "", "unknown-key policy: strip, strict or passthrough")
	return cmd
}

func newCheckCmd() *cobra.Command {
	var policy string
	cmd := &cobra.Command{
		Use:   "check <schema-file> <data-file|->",
		Short: "Validate a JSON document and print the normalized result",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := compileFile(args[0], policy)
			if err != nil {
				return err
			}
			data, err := readData(args[1])
			if err != nil {
				return err
			}
			out, err := v.Validate(cmd.Context(), data)
			if err != nil {
				return err
			}
			s, err := export.Render(out, export.FormatJSON)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), s)
			return nil
		},
	}
	cmd.Flags().StringVar(&policy, "unknown", "", "unknown-key policy: strip, strict or passthrough")
	return cmd
}

func newExportCmd() *cobra.Command {
	var format, title, out string
	var render bool
	var width int
	cmd := &cobra.Command{
		Use:   "export <data-file|->",
		Short: "Export a JSON document as JSON or Markdown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readData(args[0])
			if err != nil {
				return err
			}
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			content, err := export.Render(data, f, export.WithTitle(title))
			if err != nil {
				return err
			}
			if out != "" {
				if err := os.WriteFile(out, []byte(content), 0o644); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "wrote", out)
				return nil
			}
			if render && f == export.FormatMarkdown {
				if content, err = export.RenderTerminal(content, width); err != nil {
					return err
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), content)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "json", "json or markdown")
	cmd.Flags().StringVarP(&title, "title", "t", export.DefaultTitle, "Markdown heading")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write to this file instead of stdout")
	cmd.Flags().BoolVar(&render, "render", false, "style Markdown for the terminal")
	cmd.Flags().IntVar(&width, "width", 80, "terminal word wrap width")
	return cmd
}
