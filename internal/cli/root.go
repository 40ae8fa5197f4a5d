package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCommand builds the seostrategy command tree bound to a.
func NewRootCommand(a *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "seostrategy",
		Short: "SEO strategy client: account management and keyword analysis",
		Long: `seostrategy talks to the SEO strategy backend.

Account commands manage the stored session (login, logout, register, password
reset, email verification, profile). Analysis commands run keyword analyses and
content blueprints and render them as text, JSON or YAML.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configPath, "config", "", "Config file (default: ./seostrategy.yaml or the user config dir)")
	pf.StringVarP(&a.flags.output, "output", "o", outputText, "Output format: text, json or yaml")
	pf.StringVar(&a.flags.metricsFile, "metrics-file", "", "Write Prometheus metrics for this run to a textfile")
	pf.StringVar(&a.flags.baseURL, "base-url", "", "Backend base URL (overrides api.base_url)")
	pf.StringVar(&a.flags.sessionBackend, "session-backend", "", "Session backend: memory, file or sqlite")
	pf.BoolVar(&a.flags.demo, "demo", false, "Serve sample data when the backend is unreachable")
	pf.BoolVar(&a.flags.debug, "debug", false, "Enable debug logging")

	root.AddCommand(
		newLoginCommand(a),
		newLogoutCommand(a),
		newRegisterCommand(a),
		newForgotPasswordCommand(a),
		newResetPasswordCommand(a),
		newVerifyEmailCommand(a),
		newStatusCommand(a),
		newProfileCommand(a),
		newChangePasswordCommand(a),
		newAnalyzeCommand(a),
		newBlueprintCommand(a),
		newExportCommand(a),
	)
	return root
}
