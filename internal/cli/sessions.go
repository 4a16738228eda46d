package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/voxtape/voxtape/internal/api"
	"github.com/voxtape/voxtape/internal/audio"
	"github.com/voxtape/voxtape/internal/core"
	"github.com/voxtape/voxtape/internal/store"
	"github.com/voxtape/voxtape/internal/timeline"
)

var sessionsLocal bool

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List recorded sessions",
	Long:  `Lists recorded sessions from the backend, or from the local store with --local.`,
	RunE:  runSessions,
}

func init() {
	sessionsCmd.Flags().BoolVarP(&sessionsLocal, "local", "l", false, "list the local store instead of the backend")
	rootCmd.AddCommand(sessionsCmd)
}

// newClient builds the backend client from config and global flags.
func newClient() *api.Client {
	c := api.New(cfg.API.BaseURL, time.Duration(cfg.API.TimeoutSeconds)*time.Second)
	if Verbose() {
		c.SetVerbose(true, func(format string, args ...interface{}) {
			fmt.Fprintf(os.Stderr, format+"\n", args...)
		})
	}
	return c
}

func listSessions(ctx context.Context) ([]core.Session, error) {
	if sessionsLocal {
		st, err := store.Open(cfg.Store.Dir)
		if err != nil {
			return nil, err
		}
		return st.List()
	}
	return newClient().ListSessions(ctx)
}

func runSessions(cmd *cobra.Command, args []string) error {
	sessions, err := listSessions(cmd.Context())
	if err != nil {
		return err
	}

	if JSONOutput() {
		return json.NewEncoder(os.Stdout).Encode(sessions)
	}

	if len(sessions) == 0 {
		fmt.Println("No sessions found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCREATED\tTURNS\tAVG LATENCY\tAUDIO")
	for _, s := range sessions {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
			s.ID,
			humanize.Time(s.CreatedAt),
			len(s.Transcript),
			formatAvgLatency(s),
			formatAudioColumn(s),
		)
	}
	return w.Flush()
}

func formatAvgLatency(s core.Session) string {
	avg, ok := s.LatencyMetrics["average_latency"]
	if !ok {
		avg = core.AverageLatency(s.Transcript)
	}
	if avg == 0 {
		return "-"
	}
	return fmt.Sprintf("%.2fs", avg)
}

// formatAudioColumn reports recording presence, with the probed
// duration when the recording is already local.
func formatAudioColumn(s core.Session) string {
	if !s.HasRecording() {
		return "-"
	}
	if sessionsLocal {
		st, err := store.Open(cfg.Store.Dir)
		if err == nil {
			if path, ok := st.RecordingPath(s.ID); ok {
				if info, err := audio.ProbeFile(path); err == nil {
					return timeline.FormatClock(info.Duration)
				}
			}
		}
	}
	return "yes"
}
