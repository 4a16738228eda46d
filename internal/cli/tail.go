package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/voxtape/voxtape/internal/follow"
)

var (
	tailLatest    bool
	tailTimestamp bool
	tailInterval  time.Duration
	tailWarn      float64
)

var tailCmd = &cobra.Command{
	Use:   "tail [session-id]",
	Short: "Follow a session in real-time",
	Long: `Watches a session on the backend and prints changes as they happen:
new transcript turns with their response latency, detected freezes,
metric updates, and recording availability.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTail,
}

func init() {
	tailCmd.Flags().BoolVar(&tailLatest, "latest", false, "follow the newest session")
	tailCmd.Flags().BoolVarP(&tailTimestamp, "timestamp", "t", false, "show timestamps")
	tailCmd.Flags().DurationVarP(&tailInterval, "interval", "i", 0, "poll interval (default from config)")
	tailCmd.Flags().Float64Var(&tailWarn, "warn", 2, "latency threshold in seconds for highlighting")

	rootCmd.AddCommand(tailCmd)
}

func runTail(cmd *cobra.Command, args []string) error {
	client := newClient()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	id := ""
	switch {
	case len(args) > 0:
		id = args[0]
	case tailLatest:
		sessions, err := client.ListSessions(ctx)
		if err != nil {
			return err
		}
		if len(sessions) == 0 {
			return fmt.Errorf("no sessions to follow")
		}
		id = sessions[0].ID
	default:
		return fmt.Errorf("give a session id or use --latest")
	}

	interval := tailInterval
	if interval == 0 {
		interval = time.Duration(cfg.Tail.Interval) * time.Millisecond
	}

	formatter := &follow.Formatter{
		ShowTimestamps: tailTimestamp,
		LatencyWarn:    tailWarn,
	}

	watcher := follow.NewWatcher(client, id, interval)
	go watcher.Start(ctx)

	for {
		select {
		case event, ok := <-watcher.Events():
			if !ok {
				return nil
			}
			fmt.Println(formatter.Format(event))

		case err := <-watcher.Errs():
			if Verbose() {
				fmt.Fprintf(os.Stderr, "poll error: %v\n", err)
			}

		case <-ctx.Done():
			return nil
		}
	}
}
