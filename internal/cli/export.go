package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"seostrategy-go/pkg/export"
)

type exportView struct {
	Path       string `json:"path"`
	Format     string `json:"format"`
	Provenance string `json:"provenance"`
}

func newExportCommand(a *App) *cobra.Command {
	var domain, project, format, dir string
	var withBlueprint, stdout bool
	cmd := &cobra.Command{
		Use:   "export <keyword>",
		Short: "Run an analysis and save it as a report file",
		Long: fmt.Sprintf(`Run a keyword analysis and write it as a report.

Supported formats: %s. The file is named after the keyword and today's date
and written to --dir; --stdout prints the document instead.`, strings.Join(export.Formats(), ", ")),
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := a.analyzeOnce(cmd.Context(), strings.Join(args, " "), domain, project, withBlueprint)
			if err != nil {
				return err
			}
			exporter := export.NewExporter(a.log)
			if stdout {
				return exporter.Write(a.Out, result, format)
			}
			path, err := exporter.ExportReport(cmd.Context(), result, format, dir)
			if err != nil {
				return err
			}
			view := exportView{Path: path, Format: strings.ToLower(format), Provenance: string(result.Provenance)}
			return a.render(view, func(w io.Writer) error {
				if result.IsDemo() {
					fmt.Fprintln(w, "Note: the backend was unreachable, the report contains demo data.")
				}
				_, err := fmt.Fprintf(w, "Exported to %s\n", path)
				return err
			})
		},
	}
	f := cmd.Flags()
	f.StringVarP(&format, "format", "f", export.FormatMarkdown, "Report format: "+strings.Join(export.Formats(), ", "))
	f.StringVar(&dir, "dir", ".", "Directory to write the report to")
	f.BoolVar(&stdout, "stdout", false, "Write the report to stdout instead of a file")
	f.StringVar(&domain, "domain", "", "Domain to analyze the keyword for")
	f.BoolVar(&withBlueprint, "blueprint", false, "Also generate a content blueprint")
	f.StringVar(&project, "project", "", "Project ID for the blueprint")
	return cmd
}
