package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/voxtape/voxtape/internal/audio"
	"github.com/voxtape/voxtape/internal/core"
	"github.com/voxtape/voxtape/internal/store"
	"github.com/voxtape/voxtape/internal/timeline"
)

var infoLocal bool

var infoCmd = &cobra.Command{
	Use:   "info <session-id>",
	Short: "Show a session summary",
	Long:  `Prints a non-interactive summary of a session: metadata, latency metrics, freeze events, and recording info.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

func init() {
	infoCmd.Flags().BoolVarP(&infoLocal, "local", "l", false, "read from the local store instead of the backend")
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	id := args[0]

	var session *core.Session
	var audioInfo *audio.Info

	if infoLocal {
		st, err := store.Open(cfg.Store.Dir)
		if err != nil {
			return err
		}
		session, err = st.Get(id)
		if err != nil {
			return err
		}
		if path, ok := st.RecordingPath(id); ok {
			audioInfo, _ = audio.ProbeFile(path)
		}
	} else {
		var err error
		session, err = newClient().GetSession(cmd.Context(), id)
		if err != nil {
			return err
		}
	}

	assistantTurns := session.AssistantTurns()
	recomputed := core.AverageLatency(session.Transcript)

	var markers []timeline.Marker
	if audioInfo != nil {
		markers = timeline.Markers(session.Transcript, timeline.StartTime(session.Transcript), audioInfo.Duration)
	}

	if JSONOutput() {
		out := map[string]interface{}{
			"session":                    session,
			"assistant_turns":            assistantTurns,
			"recomputed_average_latency": recomputed,
		}
		if audioInfo != nil {
			out["audio"] = audioInfo
			out["timeline_markers"] = len(markers)
		}
		return json.NewEncoder(os.Stdout).Encode(out)
	}

	fmt.Printf("Session %s\n", session.ID)
	fmt.Printf("  created:  %s (%s)\n", session.CreatedAt.Format("2006-01-02 15:04:05"), humanize.Time(session.CreatedAt))
	fmt.Printf("  turns:    %d (%d assistant)\n", len(session.Transcript), assistantTurns)

	fmt.Println("\nLatency")
	if stored, ok := session.LatencyMetrics["average_latency"]; ok {
		fmt.Printf("  average (stored):     %.2fs\n", stored)
	}
	fmt.Printf("  average (recomputed): %.2fs\n", recomputed)

	if len(session.FreezeEvents) > 0 {
		fmt.Printf("\nFreezes (%d)\n", len(session.FreezeEvents))
		for _, f := range session.FreezeEvents {
			fmt.Printf("  %.1fs at %s\n", f.Duration, timeline.FormatClock(f.StartTime-timeline.StartTime(session.Transcript)))
		}
	}

	fmt.Println("\nRecording")
	if !session.HasRecording() {
		fmt.Println("  none")
	} else if audioInfo != nil {
		fmt.Printf("  %s, %d Hz, %d ch, %d-bit\n",
			timeline.FormatClock(audioInfo.Duration),
			audioInfo.SampleRate, audioInfo.Channels, audioInfo.BitsPerSample)
		fmt.Printf("  timeline markers: %d\n", len(markers))
	} else {
		fmt.Printf("  %s\n", session.AudioURL)
	}

	return nil
}
