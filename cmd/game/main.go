package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/tatianab/cyber-clicker/internal/config"
	"github.com/tatianab/cyber-clicker/internal/engine"
	"github.com/tatianab/cyber-clicker/internal/game"
	"github.com/tatianab/cyber-clicker/internal/models"
	"github.com/tatianab/cyber-clicker/internal/persistence"
	"github.com/tatianab/cyber-clicker/internal/store"
	"github.com/tatianab/cyber-clicker/internal/tui"
	"github.com/tatianab/cyber-clicker/internal/tutor"
)

var (
	// Global flags
	verbose   bool
	gameID    string
	storeName string
	saveDir   string

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "game",
	Short: "Cyber Clicker - learn cybersecurity by defending your network",
	Long: `Cyber Clicker is a terminal incremental game. Collect data packets,
buy security upgrades that earn packets on their own, level up and pick up a
short cybersecurity lesson along the way.

Run without arguments to start playing.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if gameID != "" {
			cfg.GameID = gameID
		}
		if storeName != "" {
			switch storeName {
			case store.BackendFile, store.BackendSQLite, store.BackendMemory:
				cfg.Store = storeName
			default:
				return fmt.Errorf("unknown store %q (want file, sqlite or memory)", storeName)
			}
		}
		if saveDir != "" {
			cfg.SaveDir = saveDir
			cfg.DBPath = filepath.Join(saveDir, "clicker.db")
			cfg.LogFile = filepath.Join(saveDir, "clicker.log")
		}

		zc := zap.NewProductionConfig()
		zc.Level = zap.NewAtomicLevelAt(cfg.LogLevel)
		if verbose {
			zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		// The TUI owns the terminal, so it logs to a file instead.
		if cmd == cmd.Root() {
			if err := os.MkdirAll(cfg.SaveDir, 0755); err != nil {
				return fmt.Errorf("failed to create save directory: %w", err)
			}
			zc.OutputPaths = []string{cfg.LogFile}
			zc.ErrorOutputPaths = []string{cfg.LogFile}
		}
		logger, err = zc.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger = logger.With(zap.String("game", cfg.GameID))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return play(cmd.Context())
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the saved game and unlocked achievements",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd.Context(), func(sess *game.Session) error {
			st, err := sess.State()
			if err != nil {
				return err
			}
			eng := sess.Engine()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Game:        %s\n", cfg.GameID)
			fmt.Fprintf(out, "Packets:     %.0f\n", math.Floor(st.Currency))
			fmt.Fprintf(out, "Click power: %g\n", st.ClickPower)
			fmt.Fprintf(out, "Auto rate:   %g/s\n", st.AutoRate)
			fmt.Fprintf(out, "Level:       %d (%.1f/%.0f XP)\n", st.Level, st.Experience, eng.Threshold(st.Level))
			fmt.Fprintln(out, "Achievements:")
			as, _ := sess.Achievements()
			if len(as) == 0 {
				fmt.Fprintln(out, "  (none yet)")
			}
			for _, a := range as {
				fmt.Fprintf(out, "  * %s - %s\n", a.Name, a.Description)
			}
			return nil
		})
	},
}

var upgradesCmd = &cobra.Command{
	Use:   "upgrades",
	Short: "List upgrades with their current prices",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd.Context(), func(sess *game.Session) error {
			st, err := sess.State()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for i, u := range sess.Engine().Catalog().List() {
				cost := engine.UpgradeCost(u, st.Owned(u.ID))
				fmt.Fprintf(out, "%d. %-26s cost %8.0f  owned %3d  +%g %s\n",
					i+1, u.Name, cost, st.Owned(u.ID), u.EffectMagnitude, u.Target)
			}
			return nil
		})
	},
}

var clickCmd = &cobra.Command{
	Use:   "click [n]",
	Short: "Collect packets without opening the game",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n := 1
		if len(args) == 1 {
			v, err := strconv.Atoi(args[0])
			if err != nil || v < 1 {
				return fmt.Errorf("click count must be a positive integer, got %q", args[0])
			}
			n = v
		}
		return withSession(cmd.Context(), func(sess *game.Session) error {
			for i := 0; i < n; i++ {
				if err := sess.ManualAction(cmd.Context()); err != nil {
					return err
				}
			}
			st, _ := sess.State()
			fmt.Fprintf(cmd.OutOrStdout(), "Clicked %d times. Packets: %.0f, level %d.\n", n, math.Floor(st.Currency), st.Level)
			return nil
		})
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Start over from a fresh save",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := store.Open(cfg.StoreOptions())
		if err != nil {
			return err
		}
		defer s.Close()
		gw := persistence.NewGateway(s, cfg.GameID, logger)
		if !gw.Save(cmd.Context(), models.DefaultState()) {
			return fmt.Errorf("failed to write fresh save for %s", cfg.GameID)
		}
		logger.Info("Game reset")
		fmt.Fprintf(cmd.OutOrStdout(), "Game %s reset.\n", cfg.GameID)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&gameID, "game", "", "Game instance id (separate saves per id)")
	rootCmd.PersistentFlags().StringVar(&storeName, "store", "", "Storage backend: file, sqlite or memory")
	rootCmd.PersistentFlags().StringVar(&saveDir, "save-dir", "", "Directory for saves and logs")

	rootCmd.AddCommand(statusCmd, upgradesCmd, clickCmd, resetCmd)
}

// newSession wires the store, gateway and engine for the configured game.
func newSession() (*game.Session, func() error, error) {
	cat, err := models.DefaultCatalog()
	if err != nil {
		return nil, nil, err
	}
	s, err := store.Open(cfg.StoreOptions())
	if err != nil {
		return nil, nil, err
	}
	gw := persistence.NewGateway(s, cfg.GameID, logger)
	sess := game.NewSession(engine.New(engine.DefaultRules(), cat), gw, game.Options{
		SaveInterval: cfg.SaveInterval,
		TickInterval: cfg.TickInterval,
		Logger:       logger,
	})
	return sess, s.Close, nil
}

// withSession loads the game, runs fn against it and saves on the way out.
func withSession(ctx context.Context, fn func(*game.Session) error) error {
	sess, closeStore, err := newSession()
	if err != nil {
		return err
	}
	defer closeStore()
	if err := sess.Load(ctx); err != nil {
		return err
	}
	defer sess.Close(context.Background())
	return fn(sess)
}

func play(ctx context.Context) error {
	sess, closeStore, err := newSession()
	if err != nil {
		return err
	}
	defer closeStore()

	tu, closeTutor := tutor.New(ctx, cfg.GeminiAPIKey, logger)
	defer closeTutor()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runGame(ctx, sess, func(ctx context.Context) error {
		return tui.Run(ctx, sess, tu)
	})
}

// runGame runs the UI until it returns or ctx is cancelled, then closes the
// session so the last save is written either way.
func runGame(ctx context.Context, sess *game.Session, ui func(context.Context) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return ui(ctx)
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down", zap.Error(context.Cause(ctx)))
		return sess.Close(context.Background())
	})
	return g.Wait()
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
