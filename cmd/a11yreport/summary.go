package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/nao1215/a11yreport/internal/model"
	"github.com/nao1215/a11yreport/internal/report"
)

// NewSummaryCmd creates the summary command.
func NewSummaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary [results.json...]",
		Short: "Count affected elements per impact",
		Long: `Summary prints how many elements each impact level affects, per page
and in total. An element is counted under the impact of the rule it
violates.

Examples:
  # Text summary
  a11yreport summary results/*.json

  # Markdown summary for a pull request comment
  a11yreport summary --markdown results/*.json`,
		Args: cobra.ArbitraryArgs,
		RunE: runSummaryCmd,
	}

	cmd.Flags().BoolP("json", "j", false,
		"Output JSON summary (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown summary (mutually exclusive with --json)")
	cmd.Flags().Bool("hide-clean", false,
		"Omit pages without violations from the text summary")
	cmd.MarkFlagsMutuallyExclusive("json", "markdown")

	return cmd
}

func runSummaryCmd(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return errors.New("no results files provided (specify one or more axe results files as arguments)")
	}

	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	markdownOutput, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}
	hideClean, err := cmd.Flags().GetBool("hide-clean")
	if err != nil {
		return err
	}

	pages, err := summarizeFiles(args)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch {
	case jsonOutput:
		return writeSummaryJSON(out, pages)
	case markdownOutput:
		_, err = report.NewMarkdownWriter(out).WriteSummaries(pages)
	default:
		_, err = report.NewSimpleWriter(out, report.WithShowEmpty(!hideClean)).WriteSummaries(pages)
	}
	return err
}

// summarizeFiles loads each results file and summarizes it, in order.
func summarizeFiles(paths []string) ([]report.PageSummary, error) {
	pages := make([]report.PageSummary, 0, len(paths))
	for _, p := range paths {
		res, err := model.LoadResults(p)
		if err != nil {
			return nil, err
		}
		pages = append(pages, report.SummarizePage(res))
	}
	return pages, nil
}

// summaryJSON is the JSON form of the summary command.
type summaryJSON struct {
	Pages []report.PageSummary `json:"pages"`
	Total report.Summary       `json:"total"`
}

func writeSummaryJSON(w io.Writer, pages []report.PageSummary) error {
	out := summaryJSON{Pages: pages}
	for _, p := range pages {
		out.Total.Add(p.Elements)
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(out); err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}
	return nil
}
