// Command publish-status waits for a paid event to go live after the
// checkout redirect. It only reads event status.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/beatbookings/publish-api/internal/poller"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var Version = "dev"

// errStillProcessing maps to exit code 2 so scripts can re-run the check.
var errStillProcessing = errors.New("payment still processing")

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:     "publish-status",
		Short:   "Confirm that a paid event has been published",
		Version: Version,
	}
	rootCmd.AddCommand(waitCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if errors.Is(err, errStillProcessing) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func waitCmd() *cobra.Command {
	var (
		apiURL   string
		token    string
		attempts int
		interval time.Duration
	)
	cmd := &cobra.Command{
		Use:   "wait [event-id]",
		Short: "Poll event status until published or the attempt budget runs out",
		Long: `Reads GET /v1/events/{id}/status until the event is published.
Exits 0 when published and 2 when still processing. Running the command
again is the manual re-check.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runWait(ctx, cmd, args[0], apiURL, token, attempts, interval)
		},
	}

	cmd.Flags().StringVar(&apiURL, "api", envOr("PUBLISH_API_URL", "http://localhost:3000"), "API base URL")
	cmd.Flags().StringVar(&token, "token", os.Getenv("PUBLISH_API_TOKEN"), "bearer token")
	cmd.Flags().IntVarP(&attempts, "attempts", "n", poller.DefaultAttempts, "maximum status reads")
	cmd.Flags().DurationVarP(&interval, "interval", "i", poller.DefaultInterval, "wait between reads")

	return cmd
}

func runWait(ctx context.Context, cmd *cobra.Command, eventID, apiURL, token string, attempts int, interval time.Duration) error {
	if token == "" {
		return errors.New("a bearer token is required (--token or PUBLISH_API_TOKEN)")
	}
	p := poller.New(poller.NewHTTPFetcher(apiURL, token), attempts, interval)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Waiting for %s to go live...\n", eventID)
	res, err := p.Poll(ctx, eventID)
	if err != nil {
		return err
	}

	switch res.Outcome {
	case poller.OutcomeSucceeded:
		fmt.Fprintf(out, "Published after %d check(s).\n", res.Attempts)
		return nil
	default:
		fmt.Fprintf(out, "Still processing after %d check(s).\n", res.Attempts)
		if res.LastErr != nil {
			fmt.Fprintf(out, "  Last error: %s\n", res.LastErr)
		}
		fmt.Fprintln(out, "Payment confirmation can take a moment. Run this command again to re-check.")
		return errStillProcessing
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
