package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"duck-agent/internal/history"
)

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recently answered questions",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}

			store, err := history.Open(cfg.HistoryPath)
			if err != nil {
				return err
			}
			defer store.Close()

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			entries, err := store.List(ctx, limit)
			if err != nil {
				return err
			}

			return renderHistory(entries, opts.output)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum entries to show")
	return cmd
}

func renderHistory(entries []history.Entry, output string) error {
	if output == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		pterm.Println("No history yet.")
		return nil
	}

	data := pterm.TableData{{"when", "intent", "tool", "rows", "latency", "question"}}
	for _, e := range entries {
		data = append(data, []string{
			e.CreatedAt.Format("2006-01-02 15:04"),
			e.Intent,
			e.Tool,
			fmt.Sprint(e.RowCount),
			e.Duration.Truncate(time.Millisecond).String(),
			e.Question,
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}
