package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	analysisclient "github.com/plagscan/plagscan-dashboard/internal/analysis/client"
	"github.com/plagscan/plagscan-dashboard/internal/analysis/domain"
	"github.com/plagscan/plagscan-dashboard/internal/analysis/service"
	"github.com/plagscan/plagscan-dashboard/internal/report"
	uploadclient "github.com/plagscan/plagscan-dashboard/internal/upload/client"
)

var (
	checkFile     string
	checkURL      string
	checkSemantic float64
	checkNgram    float64
	checkFuzzy    float64
	checkOnline   bool
	checkJSON     bool
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Analyze a PDF for plagiarism",
	Long: `Runs one plagiarism analysis and prints the banded result.
A local --file is uploaded first and takes precedence over --url.
Scores above 50% are High, above 30% Medium, anything else Low.`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	defaults := domain.DefaultConfiguration()
	flags := checkCmd.Flags()
	flags.StringVarP(&checkFile, "file", "f", "", "local PDF to upload")
	flags.StringVarP(&checkURL, "url", "u", "", "remote PDF URL")
	flags.Float64Var(&checkSemantic, "semantic", defaults.Thresholds.Semantic, "semantic similarity threshold (0.5-1.0)")
	flags.Float64Var(&checkNgram, "ngram", defaults.Thresholds.Ngram, "n-gram similarity threshold (0.1-0.8)")
	flags.Float64Var(&checkFuzzy, "fuzzy", defaults.Thresholds.Fuzzy, "fuzzy similarity threshold (0.3-0.9)")
	flags.BoolVar(&checkOnline, "online-sources", defaults.CheckOnlineSources, "also search online scholarly sources")
	flags.BoolVar(&checkJSON, "json", false, "output the summary as JSON")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, _ []string) error {
	sub := service.Submission{
		PDFURL: checkURL,
		Config: checkConfiguration(cmd),
	}

	if checkFile != "" {
		f, err := os.Open(checkFile)
		if err != nil {
			return fmt.Errorf("failed to open file: %w", err)
		}
		defer f.Close()
		sub.File = &service.LocalFile{Name: filepath.Base(checkFile), Content: f}
	}

	o := service.NewOrchestrator(uuid.New().String(), service.Dependencies{
		Uploader:      uploadclient.NewGatewayClient(gatewayURL, log),
		Analyzer:      analysisclient.NewAnalysisClient(analysisURL, log),
		PublicBaseURL: publicBaseURL,
	}, log)

	lc, err := o.Submit(cmd.Context(), sub)
	if err != nil {
		if lc.Message != "" {
			return errors.New(lc.Message)
		}
		return err
	}
	if lc.State == domain.StateError {
		return errors.New(lc.Message)
	}

	summary := report.Summarize(lc.Result)
	if checkJSON {
		return outputCheckJSON(cmd, summary)
	}
	outputCheckText(cmd, summary)
	return nil
}

// checkConfiguration prefers explicit flags, then dashboard defaults from config
func checkConfiguration(cmd *cobra.Command) domain.Configuration {
	conf := domain.Configuration{
		CheckOnlineSources: checkOnline,
		Thresholds: domain.Thresholds{
			Semantic: checkSemantic,
			Ngram:    checkNgram,
			Fuzzy:    checkFuzzy,
		},
	}
	if cfg == nil {
		return conf
	}

	flags := cmd.Flags()
	if !flags.Changed("online-sources") {
		conf.CheckOnlineSources = cfg.Dashboard.CheckOnlineSources
	}
	if !flags.Changed("semantic") {
		conf.Thresholds.Semantic = cfg.Dashboard.Thresholds.Semantic
	}
	if !flags.Changed("ngram") {
		conf.Thresholds.Ngram = cfg.Dashboard.Thresholds.Ngram
	}
	if !flags.Changed("fuzzy") {
		conf.Thresholds.Fuzzy = cfg.Dashboard.Thresholds.Fuzzy
	}
	return conf
}

func outputCheckJSON(cmd *cobra.Command, summary report.Summary) error {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputCheckText(cmd *cobra.Command, s report.Summary) {
	if s.Title != "" {
		cmd.Println(s.Title)
		cmd.Println()
	}

	cmd.Printf("Overall:  %s%% (%s)\n", s.OverallPercent, s.BandLabel)
	cmd.Printf("Words:    %d\n", s.WordCount)
	cmd.Printf("AI:       %s%% (%s)\n", s.AIProbability, s.AIVerdict)
	cmd.Println()

	if len(s.Sources) == 0 {
		cmd.Println("No matching sources.")
		return
	}

	cmd.Printf("Sources (%d):\n", s.SourceCount)
	for i, card := range s.Sources {
		title := card.Title
		if title == "" {
			title = "Source " + card.ReferenceID
		}
		cmd.Printf("  [%d] %s (%s%%) %s\n", i+1, title, card.Score, card.Badge)
		if card.Author != "" {
			cmd.Printf("      %s\n", card.Author)
		}
		if card.Link != "" {
			cmd.Printf("      %s\n", card.Link)
		}
	}
}
