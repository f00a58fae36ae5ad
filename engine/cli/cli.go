// Package cli holds the lullaby command tree.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/1siamBot/lullaby/engine/config"
	"github.com/1siamBot/lullaby/engine/game"
	"github.com/1siamBot/lullaby/engine/input"
	"github.com/1siamBot/lullaby/engine/metrics"
	"github.com/1siamBot/lullaby/engine/scene"
	"github.com/1siamBot/lullaby/engine/snapshot"
	"github.com/spf13/cobra"
)

type rootFlags struct {
	configPath  string
	scenePath   string
	logLevel    string
	metricsAddr string
}

// WindowFunc shows a game until the window closes.
type WindowFunc func(*game.Game) error

// NewRootCmd builds the command tree. window backs the run command.
func NewRootCmd(window WindowFunc) *cobra.Command {
	f := &rootFlags{}
	root := &cobra.Command{
		Use:          "lullaby",
		Short:        "Billboard scene with camera-distance draw ordering",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&f.configPath, "config", "", "YAML config file")
	root.PersistentFlags().StringVar(&f.scenePath, "scene", "", "scene file (default: built-in scene)")
	root.PersistentFlags().StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error")
	root.PersistentFlags().StringVar(&f.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")

	root.AddCommand(newRunCmd(f, window), newSnapshotCmd(f), newOrderCmd(f))
	return root
}

// session is a loaded game plus the services started for it.
type session struct {
	game    *game.Game
	log     *slog.Logger
	metrics *metrics.Server
}

func (s *session) close() {
	s.game.Shutdown()
	if s.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.metrics.Close(ctx); err != nil {
			s.log.Warn("metrics shutdown", "err", err)
		}
	}
}

func openSession(f *rootFlags, logOut io.Writer) (*session, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}
	if f.logLevel != "" {
		cfg.Log.Level = f.logLevel
	}
	if f.scenePath != "" {
		cfg.Scene = f.scenePath
	}
	if f.metricsAddr != "" {
		cfg.Metrics.Addr = f.metricsAddr
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := config.NewLogger(cfg.Log, logOut)

	sc, err := scene.Load(cfg.Scene)
	if err != nil {
		return nil, err
	}

	s := &session{log: log}
	collector := metrics.NewCollector()
	g, err := game.New(cfg, sc, game.WithLogger(log), game.WithObserver(collector))
	if err != nil {
		return nil, err
	}
	s.game = g

	if cfg.Metrics.Addr != "" {
		srv, err := collector.Serve(cfg.Metrics.Addr, log)
		if err != nil {
			g.Shutdown()
			return nil, fmt.Errorf("metrics: %w", err)
		}
		s.metrics = srv
	}
	return s, nil
}

func newRunCmd(f *rootFlags, window WindowFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Open the scene in a window",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(f, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer s.close()
			if window == nil {
				return fmt.Errorf("no window backend")
			}
			return window(s.game)
		},
	}
}

// scriptedKeys turns --hold names into a poll function.
func scriptedKeys(names []string) (input.PollFunc, error) {
	held := map[input.Key]bool{}
	for _, n := range names {
		k, ok := input.ParseKey(n)
		if !ok {
			return nil, fmt.Errorf("unknown key %q", n)
		}
		held[k] = true
	}
	return func(k input.Key) bool { return held[k] }, nil
}

func simulate(s *session, ticks int, hold []string) error {
	poll, err := scriptedKeys(hold)
	if err != nil {
		return err
	}
	for i := 0; i < ticks; i++ {
		s.game.Step(poll)
	}
	return nil
}

func newSnapshotCmd(f *rootFlags) *cobra.Command {
	var (
		out   string
		ticks int
		hold  []string
	)
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Simulate headless and write the final frame as PNG",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(f, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer s.close()
			if err := simulate(s, ticks, hold); err != nil {
				return err
			}
			img := snapshot.Render(s.game.Frame(), s.game.Atlas)
			if err := snapshot.Save(out, img); err != nil {
				return err
			}
			s.log.Info("snapshot written", "path", out, "ticks", ticks)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "lullaby.png", "output PNG path")
	cmd.Flags().IntVar(&ticks, "ticks", 60, "ticks to simulate first")
	cmd.Flags().StringSliceVar(&hold, "hold", nil, "keys held during the simulation, e.g. w,d")
	return cmd
}

func newOrderCmd(f *rootFlags) *cobra.Command {
	var (
		ticks int
		hold  []string
	)
	cmd := &cobra.Command{
		Use:   "order",
		Short: "Print the draw-order ranking after a headless simulation",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(f, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer s.close()
			if err := simulate(s, ticks, hold); err != nil {
				return err
			}
			return printRanking(cmd.OutOrStdout(), s.game)
		},
	}
	cmd.Flags().IntVar(&ticks, "ticks", 0, "ticks to simulate first")
	cmd.Flags().StringSliceVar(&hold, "hold", nil, "keys held during the simulation, e.g. w,d")
	return cmd
}

func printRanking(out io.Writer, g *game.Game) error {
	pass := g.Ranking()
	if pass.Skipped {
		_, err := fmt.Fprintln(out, "no active camera")
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "camera\t%.2f, %.2f, %.2f\n", pass.Camera.X, pass.Camera.Y, pass.Camera.Z)
	fmt.Fprintln(tw, "RANK\tOBJECT\tKEY\tRAW\tORDER")
	for i, e := range pass.Ranking {
		fmt.Fprintf(tw, "%d\t%s\t%.4f\t%d\t%d\n", i, e.Obj.Name, e.Key, e.Raw, e.Order)
	}
	fmt.Fprintln(tw, strings.Repeat("-", 8))
	return tw.Flush()
}
