package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/voxtape/voxtape/internal/core"
	verrors "github.com/voxtape/voxtape/internal/errors"
	"github.com/voxtape/voxtape/internal/store"
	"github.com/voxtape/voxtape/internal/tui"
)

var playLocal bool

var playCmd = &cobra.Command{
	Use:   "play [session-id]",
	Short: "Open the session player",
	Long: `Opens the interactive player for a session: audio playback with the
transcript and latency markers on the timeline.

With no session id in a terminal, an interactive picker selects one.
Remote recordings are downloaded to the cache directory first.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPlay,
}

func init() {
	playCmd.Flags().BoolVarP(&playLocal, "local", "l", false, "play from the local store instead of the backend")
	rootCmd.AddCommand(playCmd)
}

func runPlay(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	id := ""
	if len(args) > 0 {
		id = args[0]
	} else {
		picked, err := pickSession(ctx)
		if err != nil {
			return err
		}
		id = picked
	}

	session, audioPath, err := resolveSession(ctx, id)
	if err != nil {
		return err
	}

	setupLogging(true)

	return tui.Run(session, audioPath, tui.Options{
		TickInterval: time.Duration(cfg.Player.TickIntervalMs) * time.Millisecond,
		SeekStep:     time.Duration(cfg.Player.SeekStepSeconds) * time.Second,
	})
}

// pickSession shows an interactive session picker. Outside a terminal
// the session id must be given explicitly.
func pickSession(ctx context.Context) (string, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", fmt.Errorf("no session id given and stdin is not a terminal")
	}

	sessionsLocal = playLocal
	sessions, err := listSessions(ctx)
	if err != nil {
		return "", err
	}
	if len(sessions) == 0 {
		return "", fmt.Errorf("no sessions available")
	}

	var options []huh.Option[string]
	for _, s := range sessions {
		label := fmt.Sprintf("%s  (%d turns", s.ID, len(s.Transcript))
		if avg := formatAvgLatency(s); avg != "-" {
			label += ", avg " + avg
		}
		label += ")"
		if !s.HasRecording() {
			label += " [no audio]"
		}
		options = append(options, huh.NewOption(label, s.ID))
	}

	var selected string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Select a session to review").
				Options(options...).
				Value(&selected),
		),
	)
	if err := form.Run(); err != nil {
		return "", fmt.Errorf("selection cancelled: %w", err)
	}
	return selected, nil
}

// resolveSession fetches the session and makes its recording available
// as a local file. An empty path means the session has no recording;
// the player still opens with the transcript.
func resolveSession(ctx context.Context, id string) (*core.Session, string, error) {
	if playLocal {
		st, err := store.Open(cfg.Store.Dir)
		if err != nil {
			return nil, "", err
		}
		session, err := st.Get(id)
		if err != nil {
			return nil, "", err
		}
		if path, ok := st.RecordingPath(id); ok {
			return session, path, nil
		}
		return session, "", nil
	}

	client := newClient()
	session, err := client.GetSession(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if !session.HasRecording() {
		return session, "", nil
	}

	path, err := client.DownloadRecording(ctx, session.AudioURL, cfg.Store.CacheDir, session.ID)
	if err != nil {
		return nil, "", verrors.WithSuggestion(
			fmt.Errorf("failed to download recording: %w", err),
			"Check that the recorder backend is reachable, or review the transcript with 'voxtape info'",
		)
	}
	return session, path, nil
}
