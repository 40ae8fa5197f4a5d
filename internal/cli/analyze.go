package cli

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"seostrategy-go/pkg/analysis"
	"seostrategy-go/pkg/normalizer"
)

func newAnalyzeCommand(a *App) *cobra.Command {
	var domain, project string
	var withBlueprint, interactive bool
	cmd := &cobra.Command{
		Use:   "analyze [keyword]",
		Short: "Run a keyword analysis",
		Long: `Run a keyword analysis against the backend.

With --blueprint the content blueprint is generated in parallel and merged into
the result. With --interactive keywords are read line by line from stdin; a new
keyword supersedes the one still in flight and only the newest result is shown.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if interactive {
				return a.analyzeInteractive(cmd.Context(), domain)
			}
			keyword := strings.Join(args, " ")
			result, err := a.analyzeOnce(cmd.Context(), keyword, domain, project, withBlueprint)
			if err != nil {
				return err
			}
			return a.renderAnalysis(result)
		},
	}
	f := cmd.Flags()
	f.StringVar(&domain, "domain", "", "Domain to analyze the keyword for")
	f.BoolVar(&withBlueprint, "blueprint", false, "Also generate a content blueprint")
	f.StringVar(&project, "project", "", "Project ID for the blueprint")
	f.BoolVarP(&interactive, "interactive", "i", false, "Read keywords from stdin, newest wins")
	return cmd
}

func newBlueprintCommand(a *App) *cobra.Command {
	var project string
	cmd := &cobra.Command{
		Use:   "blueprint <keyword>",
		Short: "Generate a content blueprint",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := a.analysis.GenerateBlueprint(cmd.Context(), strings.Join(args, " "), project)
			if err != nil {
				return err
			}
			bp := &result.Blueprint
			return a.render(bp, func(w io.Writer) error {
				r := newReportWriter(w)
				if result.IsDemo() {
					r.line("%s", r.warn.Render("DEMO DATA: the backend could not be reached; figures below are illustrative."))
				}
				r.blueprint(bp)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&project, "project", "", "Project ID")
	return cmd
}

// analyzeOnce runs the analysis and, when asked, the blueprint request
// concurrently. The blueprint replaces the analysis blueprint when it has one.
func (a *App) analyzeOnce(ctx context.Context, keyword, domain, project string, withBlueprint bool) (*normalizer.Analysis, error) {
	if !withBlueprint {
		return a.analysis.Analyze(ctx, keyword, domain)
	}

	var result, bp *normalizer.Analysis
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		result, err = a.analysis.Analyze(gctx, keyword, domain)
		return err
	})
	g.Go(func() error {
		var err error
		bp, err = a.analysis.GenerateBlueprint(gctx, keyword, project)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if bp.Blueprint.Available && bp.Provenance == result.Provenance {
		result.Blueprint = bp.Blueprint
	}
	result.Warnings = append(result.Warnings, bp.Warnings...)
	return result, nil
}

// analyzeInteractive reads keywords until EOF. Each keyword starts a new
// generation; superseded requests are cancelled and their results dropped.
func (a *App) analyzeInteractive(ctx context.Context, domain string) error {
	seq := analysis.NewSequencer()
	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		firstErr error
		started  int
	)

	for {
		line, err := a.readLine("keyword> ", "")
		if err != nil {
			break
		}
		keyword := strings.TrimSpace(line)
		if keyword == "" {
			continue
		}

		started++
		ticket, runCtx, cancel := seq.BeginContext(ctx)
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer cancel()
			result, err := a.analysis.Analyze(runCtx, keyword, domain)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if seq.Current(ticket) && !errors.Is(err, context.Canceled) {
					a.log.WithError(err).Debug("Interactive analysis failed")
					if firstErr == nil {
						firstErr = err
					}
				}
				return
			}
			if seq.Apply(ticket, result) {
				if err := a.renderAnalysis(result); err != nil && firstErr == nil {
					firstErr = err
				}
			}
		}()
	}
	wg.Wait()

	if started == 0 {
		return analysis.ErrEmptyKeyword
	}
	return firstErr
}

func (a *App) renderAnalysis(result *normalizer.Analysis) error {
	return a.render(result, func(w io.Writer) error {
		return newReportWriter(w).analysis(result)
	})
}
