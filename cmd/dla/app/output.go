package app

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/viper"
)

const (
	// FormatText is the human-readable table output format.
	FormatText = "table"
	// FormatJSON is the machine-readable output format.
	FormatJSON = "json"
)

// outputFormat resolves a per-command --format value, falling back to the
// persistent --output flag. Anything that is not json renders as a table.
func outputFormat(flagValue string) string {
	format := flagValue
	if format == "" {
		format = viper.GetString("output")
	}
	if format == FormatJSON {
		return FormatJSON
	}
	return FormatText
}

// printJSONOutput prints v as indented JSON to stdout.
func printJSONOutput(v any) error {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %v", err)
	}
	fmt.Println(string(jsonData))
	return nil
}

// renderTable renders a bordered table to stdout.
func renderTable(headers []string, rows [][]string) error {
	table := tablewriter.NewWriter(os.Stdout)
	table.Options(
		tablewriter.WithHeader(headers),
		tablewriter.WithRendition(
			tw.Rendition{
				Borders: tw.Border{
					Left:   tw.State(1),
					Top:    tw.State(1),
					Right:  tw.State(1),
					Bottom: tw.State(1),
				},
			},
		),
		tablewriter.WithAlignment(tw.MakeAlign(len(headers), tw.AlignLeft)),
	)

	for _, row := range rows {
		if err := table.Append(row); err != nil {
			return fmt.Errorf("failed to append row: %w", err)
		}
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}
	return nil
}
