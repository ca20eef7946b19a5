package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pterm/pterm"

	"duck-agent/internal/agent"
	"duck-agent/internal/domain"
)

// tableRowCap bounds how many result rows render in the terminal.
const tableRowCap = 20

// renderResponse prints one answered question in the selected format.
func renderResponse(resp *agent.Response, output string) error {
	if output == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	if resp.SQL != "" {
		pterm.DefaultBox.WithTitle("Executed SQL").WithPadding(1).Println(resp.SQL)
	}
	if resp.Result != nil {
		title := resp.Notes
		if title == "" {
			title = string(resp.Intent)
		}
		if err := renderResult(title, resp.Result); err != nil {
			return err
		}
	}

	pterm.Println()
	pterm.Println(pterm.NewStyle(pterm.FgLightCyan, pterm.Bold).Sprint(resp.Answer))
	if resp.Summary != "" {
		pterm.Println()
		pterm.Println(resp.Summary)
	}
	if len(resp.Suggestions) > 0 {
		pterm.Println()
		pterm.Println("Did you mean one of these columns?")
		var items []pterm.BulletListItem
		for _, s := range resp.Suggestions {
			items = append(items, pterm.BulletListItem{Level: 0, Text: s})
		}
		if err := pterm.DefaultBulletList.WithItems(items).Render(); err != nil {
			return err
		}
	}
	for _, caveat := range resp.Caveats {
		pterm.Println(pterm.NewStyle(pterm.FgGray).Sprint("Caveat: " + caveat))
	}
	if resp.RunDir != "" {
		pterm.Println()
		pterm.Printf("Artifacts saved to %s (Latency: %.2fs)\n", resp.RunDir, resp.Latency.Seconds())
	}
	return nil
}

// renderResult prints a tabular result, capped to the first rows.
func renderResult(title string, res *domain.Result) error {
	data := pterm.TableData{res.Columns}
	for i, row := range res.Rows {
		if i >= tableRowCap {
			break
		}
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = fmt.Sprint(v)
		}
		data = append(data, cells)
	}

	pterm.Println(pterm.NewStyle(pterm.Bold).Sprint(title))
	if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
		return err
	}
	if res.RowCount > tableRowCap {
		pterm.Printf("… %d more rows\n", res.RowCount-tableRowCap)
	}
	return nil
}
