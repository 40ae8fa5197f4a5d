package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"seostrategy-go/internal/config"
	"seostrategy-go/pkg/analysis"
	"seostrategy-go/pkg/api"
	"seostrategy-go/pkg/authapi"
	"seostrategy-go/pkg/logger"
	"seostrategy-go/pkg/metrics"
	"seostrategy-go/pkg/session"
)

type globalFlags struct {
	configPath     string
	output         string
	metricsFile    string
	baseURL        string
	sessionBackend string
	debug          bool
	demo           bool
}

// App owns the collaborators one CLI invocation needs. They are built in
// setup from the loaded config and released by close.
type App struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer

	// Store replaces the configured session backend when set. Tests use it
	// to carry a session across invocations.
	Store session.Store

	flags globalFlags

	cfg      *config.Config
	log      *logger.Logger
	metrics  *metrics.Recorder
	api      *api.Client
	store    session.Store
	closer   io.Closer
	auth     *authapi.Client
	analysis *analysis.Client
	input    *bufio.Reader
}

func NewApp() *App {
	return &App{In: os.Stdin, Out: os.Stdout, Err: os.Stderr}
}

// Run executes one command line and releases everything it opened.
func (a *App) Run(ctx context.Context, args []string) error {
	root := NewRootCommand(a)
	root.SetArgs(args)
	root.SetIn(a.In)
	root.SetOut(a.Out)
	root.SetErr(a.Err)

	err := root.ExecuteContext(ctx)
	return errors.Join(err, a.close())
}

// Execute is the entry point used by main. It returns the process exit code.
func Execute() int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	app := NewApp()
	if err := app.Run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(app.Err, "Error:", describeError(err))
		return 1
	}
	return 0
}

func (a *App) setup(cmd *cobra.Command) error {
	switch a.flags.output {
	case outputText, outputJSON, outputYAML:
	default:
		return fmt.Errorf("unknown output format %q (want text, json or yaml)", a.flags.output)
	}

	manager := config.NewManager()
	flags := cmd.Flags()
	if flags.Changed("base-url") {
		manager.Set("api.base_url", a.flags.baseURL)
	}
	if flags.Changed("session-backend") {
		manager.Set("session.backend", a.flags.sessionBackend)
	}
	if flags.Changed("demo") {
		manager.Set("analysis.demo_fallback", a.flags.demo)
	}
	if a.flags.debug {
		manager.Set("logger.level", "debug")
	}
	cfg, err := manager.Load(a.flags.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	switch strings.ToLower(cfg.Logger.Output) {
	case "", "stderr":
		a.log = logger.NewWithWriter(cfg.Logger, a.Err)
	default:
		a.log = logger.New(cfg.Logger)
	}
	logger.SetLogger(a.log)
	a.metrics = metrics.NewRecorder()

	a.api, err = api.NewClient(api.ClientConfig{
		BaseURL:          cfg.API.BaseURL,
		Timeout:          cfg.API.Timeout,
		MaxRetries:       cfg.API.MaxRetries,
		RetryDelay:       cfg.API.RetryDelay,
		RateLimit:        cfg.API.RateLimit,
		Burst:            cfg.API.Burst,
		UserAgent:        cfg.API.UserAgent,
		BreakerThreshold: cfg.API.BreakerThreshold,
		BreakerReset:     cfg.API.BreakerReset,
		Connection:       api.DefaultConnectionConfig(),
		Metrics:          a.metrics,
		Logger:           a.log,
	})
	if err != nil {
		return err
	}

	if a.Store != nil {
		a.store = a.Store
	} else {
		store, closer, err := session.Open(cfg.Session, a.log)
		if err != nil {
			return fmt.Errorf("open session store: %w", err)
		}
		a.store, a.closer = store, closer
	}

	a.auth = authapi.NewClient(a.api, a.store, authapi.Options{
		BasePath: cfg.API.AuthPath,
		Logger:   a.log,
		Metrics:  a.metrics,
	})
	a.analysis = analysis.NewClient(a.api, analysis.Options{
		ProcessPath:   cfg.Analysis.ProcessPath,
		BlueprintPath: cfg.Analysis.BlueprintPath,
		DemoFallback:  cfg.Analysis.DemoFallback,
		Logger:        a.log,
		Metrics:       a.metrics,
	})
	a.log.WithFields(map[string]interface{}{
		"config":  manager.ConfigFileUsed(),
		"backend": cfg.Session.Backend,
	}).Debug("CLI initialized")
	return nil
}

func (a *App) close() error {
	var errs []error
	if a.metrics != nil && a.flags.metricsFile != "" {
		if err := a.metrics.WriteTextfile(a.flags.metricsFile); err != nil {
			errs = append(errs, fmt.Errorf("write metrics: %w", err))
		}
	}
	if a.api != nil {
		a.api.Close()
	}
	if a.closer != nil {
		if err := a.closer.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.cfg, a.api, a.store, a.closer, a.auth, a.analysis, a.metrics, a.input = nil, nil, nil, nil, nil, nil, nil, nil
	return errors.Join(errs...)
}

// describeError turns typed errors into the message shown to the user.
func describeError(err error) string {
	var authErr *authapi.AuthError
	var upstream *api.UpstreamError
	switch {
	case errors.As(err, &authErr):
		return authErr.Message
	case errors.Is(err, analysis.ErrEmptyKeyword):
		return analysis.ErrEmptyKeyword.Error()
	case errors.As(err, &upstream):
		return "Analysis failed: " + upstream.Error()
	case api.IsNetworkError(err):
		return "Cannot connect to the backend. Check api.base_url or use --demo for sample data. (" + err.Error() + ")"
	case errors.Is(err, context.Canceled):
		return "Interrupted."
	default:
		return err.Error()
	}
}
