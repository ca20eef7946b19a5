package cli

import (
	"bufio"
	"context"
	"os"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// askTimeout bounds a single question end to end, matching what the HTTP
// surface tolerates.
const askTimeout = 2 * time.Minute

func newAskCmd(opts *rootOptions) *cobra.Command {
	var query string

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a question about the dataset",
		Long:  "Ask answers one question, or starts an interactive loop when no question is given on a terminal.",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.close()

			question := query
			if question == "" && len(args) > 0 {
				question = strings.Join(args, " ")
			}

			if question != "" {
				return askOnce(a, question, opts.output)
			}

			if !term.IsTerminal(int(os.Stdin.Fd())) {
				return cmd.Usage()
			}
			return askInteractive(a, opts.output)
		},
	}

	cmd.Flags().StringVar(&query, "query", "", "Run a single question non-interactively and exit")
	return cmd
}

func askOnce(a *app, question, output string) error {
	ctx, cancel := context.WithTimeout(context.Background(), askTimeout)
	defer cancel()

	resp, err := a.agent.Ask(ctx, question)
	if err != nil {
		return err
	}
	return renderResponse(resp, output)
}

func askInteractive(a *app, output string) error {
	pterm.DefaultBox.WithPadding(1).Printf("Loaded dataset: %s", a.dataset)
	pterm.Println()

	previewCtx, cancel := context.WithTimeout(context.Background(), askTimeout)
	preview, err := a.engine.Preview(previewCtx, a.dataset, 10)
	cancel()
	if err != nil {
		return err
	}
	if err := renderResult("preview", preview); err != nil {
		return err
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		pterm.Print("Ask a question (:exit to quit): ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		switch strings.ToLower(question) {
		case ":exit", ":quit", "exit", "quit":
			return nil
		}
		if err := askOnce(a, question, output); err != nil {
			pterm.Println(pterm.NewStyle(pterm.FgRed).Sprint("Error: " + err.Error()))
		}
		pterm.Println()
	}
}
