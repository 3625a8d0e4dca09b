package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/reoring/instruct/export"
	"github.com/reoring/instruct/llm"
)

func newCompleteCmd(a *app) *cobra.Command {
	var provider, model, prompt, system, format string
	var stream bool
	cmd := &cobra.Command{
		Use:   "complete <schema-file>",
		Short: "Ask the configured model for data matching a schema",
		Long:  "Reads the prompt from --prompt or stdin and prints the validated answer.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			v, err := compileFile(args[0], cfg.Limits.UnknownPolicy)
			if err != nil {
				return err
			}
			if prompt == "" {
				b, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				prompt = strings.TrimSpace(string(b))
			}
			if prompt == "" {
				return errors.New("empty prompt")
			}
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}

			log := quietLogger(cfg, a.verbose)
			opt := cfg.ProviderOptions(provider, model, "")
			opt.HTTPClient = &http.Client{Timeout: cfg.LLM.Timeout}
			opt.Logger = log
			p, err := llm.NewProvider(opt)
			if err != nil {
				return err
			}

			inv := llm.NewInvoker(p, log)
			inv.MaxRetries = cfg.LLM.MaxRetries
			inv.OnRetry = func(attempt int, err error) {
				fmt.Fprintf(cmd.ErrOrStderr(), "retry %d: %v\n", attempt, err)
			}
			req := llm.Request{
				Model:       opt.Model,
				MaxTokens:   cfg.LLM.MaxTokens,
				Temperature: cfg.LLM.Temperature,
			}
			if system != "" {
				req.Messages = append(req.Messages, llm.Message{Role: llm.RoleSystem, Content: system})
			}
			req.Messages = append(req.Messages, llm.Message{Role: llm.RoleUser, Content: prompt})

			var result any
			if stream {
				result, err = inv.InvokeStream(cmd.Context(), v, req, func(d string) {
					fmt.Fprint(os.Stderr, d)
				})
				fmt.Fprintln(os.Stderr)
			} else {
				result, err = inv.Invoke(cmd.Context(), v, req)
			}
			if err != nil {
				return err
			}
			out, err := export.Render(result, f, export.WithTitle(v.Title()))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&provider, "provider", "", "openai or anthropic (default from config)")
	cmd.Flags().StringVar(&model, "model", "", "model name (default from config or provider)")
	cmd.Flags().StringVarP(&prompt, "prompt", "p", "", "user message")
	cmd.Flags().StringVar(&system, "system", "", "extra system message")
	cmd.Flags().StringVarP(&format, "format", "f", "json", "json or markdown")
	cmd.Flags().BoolVar(&stream, "stream", false, "print deltas to stderr as they arrive")
	return cmd
}
