package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/plagscan/plagscan-dashboard/pkg/config"
	"github.com/plagscan/plagscan-dashboard/pkg/logger"
)

var version = "dev"

var (
	gatewayURL    string
	analysisURL   string
	publicBaseURL string
	verbose       bool

	cfg *config.Config
	log = logger.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "plagcheck",
	Short: "Check documents for plagiarism",
	Long: `plagcheck submits a PDF to a plagscan dashboard and prints the report.
Local files go through the dashboard's upload gateway; remote PDFs are
passed to the analysis service by URL.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&gatewayURL, "gateway", "", "upload gateway base URL (default: dashboard.public_base_url)")
	flags.StringVar(&analysisURL, "analysis-url", "", "analysis service base URL (default: analysis.base_url)")
	flags.StringVar(&publicBaseURL, "public-base-url", "", "URL the analysis service uses to reach uploads (default: --gateway)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "log requests to stderr")
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version printed by the version command
func SetVersion(v string) {
	version = v
}

// loadConfig fills unset flags from PLAGSCAN_* settings or config/plagcheck.yaml
func loadConfig(cmd *cobra.Command, _ []string) error {
	c, err := config.Load("plagcheck")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg = c

	if gatewayURL == "" {
		gatewayURL = cfg.Dashboard.PublicBaseURL
	}
	if analysisURL == "" {
		analysisURL = cfg.Analysis.BaseURL
	}
	if publicBaseURL == "" {
		publicBaseURL = gatewayURL
	}

	if verbose {
		log = logger.NewWithWriter("plagcheck", cmd.ErrOrStderr())
	} else {
		log = logger.Nop()
	}
	return nil
}
