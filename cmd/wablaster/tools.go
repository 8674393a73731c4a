package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Kuruzyy/excelwablaster/internal/history"
	"github.com/Kuruzyy/excelwablaster/internal/template"
	"github.com/Kuruzyy/excelwablaster/internal/workbook"
)

func encodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "encode [message]",
		Short: "Transport-encode a message for the MSGS sheet",
		Long:  "Encodes plain text into the percent-encoded form stored in the workbook's\nMSGS sheet. Reads from stdin when no argument is given.",
		RunE: func(cmd *cobra.Command, args []string) error {
			var plain string
			if len(args) > 0 {
				plain = strings.Join(args, " ")
			} else {
				data, err := io.ReadAll(os.Stdin)
				if err != nil {
					return err
				}
				plain = strings.TrimRight(string(data), "\n")
			}
			fmt.Println(template.Encode(plain))
			return nil
		},
	}
}

func validateCmd() *cobra.Command {
	var workbookDir string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the workbook for rows that can never be dispatched",
		Long:  "Loads the workbook and reports contacts whose message, document, or media\ncodes resolve to nothing. Rows with an unknown message code and nothing else\nto send end a run with their status untouched, so they are easy to miss;\nunmapped attachment codes burn both passes on a row that can never deliver.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			if workbookDir != "" {
				cfg.Workbook = workbookDir
			}
			log := setupLogger(cfg.Logging)

			wb, err := workbook.NewLoader(cfg.Workbook, log).Load()
			if err != nil {
				return err
			}

			problems := 0
			for _, c := range wb.Contacts {
				if c.Status.Resolved() || c.AllCodesZero() {
					continue
				}
				var issues []string
				if c.MsgCode != "0" {
					if _, ok := wb.Templates[c.MsgCode]; !ok {
						issues = append(issues, fmt.Sprintf("unknown message code %q", c.MsgCode))
					}
				}
				issues = append(issues, attachmentIssues(c.DocCode, wb.Docs, "document")...)
				issues = append(issues, attachmentIssues(c.MediaCode, wb.Media, "media")...)
				if len(issues) > 0 {
					problems++
					fmt.Printf("%s: %s\n", c.Phone, strings.Join(issues, "; "))
				}
			}

			if problems == 0 {
				fmt.Printf("workbook OK: %d contacts, %d templates\n", len(wb.Contacts), len(wb.Templates))
				return nil
			}
			fmt.Printf("%d contacts with issues\n", problems)
			return nil
		},
	}
	cmd.Flags().StringVarP(&workbookDir, "workbook", "w", "", "campaign workbook directory (overrides config)")
	return cmd
}

// attachmentIssues reports an unmapped code or missing files for one
// attachment mapping.
func attachmentIssues(code string, mapping map[string][]string, kind string) []string {
	if code == "0" {
		return nil
	}
	files, ok := mapping[code]
	if !ok {
		return []string{fmt.Sprintf("unknown %s code %q", kind, code)}
	}
	if len(files) == 0 {
		return []string{fmt.Sprintf("%s code %q has no files", kind, code)}
	}
	var issues []string
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			issues = append(issues, fmt.Sprintf("%s file missing: %s", kind, f))
		}
	}
	return issues
}

func historyCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent campaign runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			log := setupLogger(cfg.Logging)

			store, err := history.NewStore(cfg.History.DBPath, log)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.RecentRuns(context.Background(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Println("no runs recorded")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "STARTED\tWORKBOOK\tSENT\tINVALID\tRETRIED\tSKIPPED\tFINISHED")
			for _, r := range runs {
				finished := "-"
				if r.FinishedAt != nil {
					finished = r.FinishedAt.Format("2006-01-02 15:04")
				}
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
					r.StartedAt.Format("2006-01-02 15:04"), r.Workbook,
					r.Sent, r.Invalid, r.Retried, r.Skipped, finished)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "number of runs to show")
	return cmd
}
