package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/plagscan/plagscan-dashboard/internal/report"
	"github.com/plagscan/plagscan-dashboard/pkg/messaging"
)

var watchAMQPURL string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream analysis results as they finish",
	Long: `Subscribes to the dashboard's analysis events on RabbitMQ and prints
one line per finished submission until interrupted.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchAMQPURL, "amqp-url", "", "RabbitMQ URL (default: rabbitmq.url)")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	rcfg := cfg.RabbitMQ
	if watchAMQPURL != "" {
		rcfg.URL = watchAMQPURL
	}
	if rcfg.URL == "" {
		return errors.New("no RabbitMQ URL configured: pass --amqp-url or set PLAGSCAN_RABBITMQ_URL")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rmq, err := messaging.Connect(ctx, &rcfg, log)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	defer rmq.Close()

	consumer, err := messaging.NewConsumer(rmq, log)
	if err != nil {
		return err
	}
	if err := consumer.Subscribe(messaging.ExchangeAnalysisEvents, "analysis.*"); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	handler := func(_ context.Context, event *messaging.Event) error {
		return printEvent(out, event)
	}
	consumer.RegisterHandler(messaging.EventAnalysisCompleted, handler)
	consumer.RegisterHandler(messaging.EventAnalysisFailed, handler)

	cmd.Println("Watching analysis events (Ctrl+C to stop)...")
	return consumer.Run(ctx)
}

func printEvent(w io.Writer, event *messaging.Event) error {
	ts := event.Timestamp.Local().Format("15:04:05")

	switch event.Type {
	case messaging.EventAnalysisCompleted:
		var data messaging.AnalysisCompletedEvent
		if err := event.UnmarshalData(&data); err != nil {
			return fmt.Errorf("invalid %s payload: %w", event.Type, err)
		}
		label := data.Band + " Plagiarism"
		if data.Band == "" {
			label = report.LabelFor(data.OverallScore)
		}
		_, err := fmt.Fprintf(w, "%s  done    %s  %s%% (%s), %d sources  %s\n",
			ts, data.SubmissionID, report.Percent(data.OverallScore), label, data.SourceCount, data.PDFURL)
		return err

	case messaging.EventAnalysisFailed:
		var data messaging.AnalysisFailedEvent
		if err := event.UnmarshalData(&data); err != nil {
			return fmt.Errorf("invalid %s payload: %w", event.Type, err)
		}
		_, err := fmt.Fprintf(w, "%s  failed  %s  %s\n", ts, data.SubmissionID, data.Message)
		return err
	}

	return nil
}
