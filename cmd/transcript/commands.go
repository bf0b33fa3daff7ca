package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	transcript "github.com/iKozay/TrackMyDegree-sub000"
	"github.com/iKozay/TrackMyDegree-sub000/parser"
)

func parseCmd(a *app) *cobra.Command {
	var withAnalysis bool
	var xlsxOut string
	var force bool
	var format string

	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Parse a transcript and print it as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.open()
			if err != nil {
				return err
			}

			var opts []transcript.ParseOption
			if force {
				opts = append(opts, transcript.WithForceReparse())
			}
			if format != "" {
				opts = append(opts, transcript.WithFormat(format))
			}
			res, err := e.Parse(cmd.Context(), args[0], opts...)
			if err != nil {
				return err
			}

			if xlsxOut != "" {
				if res.DocumentID == 0 {
					return fmt.Errorf("--xlsx needs the database; drop --no-store")
				}
				if err := writeFileFrom(xlsxOut, func(w io.Writer) error {
					return e.ExportXLSX(cmd.Context(), res.DocumentID, w)
				}); err != nil {
					return err
				}
			}

			if withAnalysis {
				return printJSON(cmd.OutOrStdout(), res)
			}
			return printJSON(cmd.OutOrStdout(), res.Transcript)
		},
	}
	cmd.Flags().BoolVar(&withAnalysis, "analysis", false, "include the course-level analysis and document id")
	cmd.Flags().StringVar(&xlsxOut, "xlsx", "", "also write an Excel workbook to this path")
	cmd.Flags().BoolVar(&force, "force", false, "reparse even if the file is unchanged")
	cmd.Flags().StringVar(&format, "format", "", "override format detection: pdf|txt|json")
	return cmd
}

func tokensCmd(a *app) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "tokens <file>",
		Short: "Dump the positioned tokens extracted from a document",
		Long: `tokens writes the page text and positioned tokens of a document as
JSON. The output can be fed back to "transcript parse" as a .json file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			format := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
			p, err := parser.NewRegistry(a.cfg.StrictPDF, a.logger).Get(format)
			if err != nil {
				return fmt.Errorf("%w: %s", transcript.ErrUnsupportedFormat, format)
			}
			doc, err := p.Parse(cmd.Context(), path)
			if err != nil {
				return fmt.Errorf("%w: %v", transcript.ErrDocumentUnreadable, err)
			}
			if out == "" {
				return parser.WriteTokens(cmd.OutOrStdout(), doc)
			}
			return writeFileFrom(out, func(w io.Writer) error {
				return parser.WriteTokens(w, doc)
			})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "write to a file instead of stdout")
	return cmd
}

func listCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored transcripts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.open()
			if err != nil {
				return err
			}
			docs, err := e.List(cmd.Context())
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tFILE\tSTATUS\tMETHOD\tPAGES\tUPDATED")
			for _, d := range docs {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%s\n", d.ID, d.Filename, d.Status, d.ParseMethod, d.PageCount, d.UpdatedAt)
			}
			return tw.Flush()
		},
	}
}

func showCmd(a *app) *cobra.Command {
	var (
		withAnalysis bool
		terms        bool
		courses      bool
		kind         string
	)

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print a stored transcript as JSON",
		Long: `Print a stored transcript as JSON.

With --terms or --courses the stored rows are printed instead. --kind limits
the course rows to one of: ` + strings.Join(transcript.CourseKinds, ", ") + ".",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			e, err := a.open()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			switch {
			case terms:
				rows, err := e.Terms(cmd.Context(), id)
				if err != nil {
					return err
				}
				return printJSON(out, rows)
			case courses || kind != "":
				rows, err := e.Courses(cmd.Context(), id, kind)
				if err != nil {
					return err
				}
				return printJSON(out, rows)
			}

			res, err := e.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			if withAnalysis {
				return printJSON(out, res)
			}
			return printJSON(out, res.Transcript)
		},
	}
	cmd.Flags().BoolVar(&withAnalysis, "analysis", false, "include the course-level analysis")
	cmd.Flags().BoolVar(&terms, "terms", false, "print the stored term headers")
	cmd.Flags().BoolVar(&courses, "courses", false, "print the stored course rows")
	cmd.Flags().StringVar(&kind, "kind", "", "course kind to print (implies --courses)")
	cmd.MarkFlagsMutuallyExclusive("analysis", "terms", "courses")
	cmd.MarkFlagsMutuallyExclusive("terms", "kind")
	return cmd
}

func exportCmd(a *app) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Write a stored transcript to an Excel workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if out == "" {
				out = fmt.Sprintf("transcript-%d.xlsx", id)
			}
			e, err := a.open()
			if err != nil {
				return err
			}
			if err := writeFileFrom(out, func(w io.Writer) error {
				return e.ExportXLSX(cmd.Context(), id, w)
			}); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output path (default transcript-<id>.xlsx)")
	return cmd
}

func deleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a stored transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			e, err := a.open()
			if err != nil {
				return err
			}
			return e.Delete(cmd.Context(), id)
		},
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid document id %q", s)
	}
	return id, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeFileFrom writes to path and removes the file if fill fails.
func writeFileFrom(path string, fill func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fill(f); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}
