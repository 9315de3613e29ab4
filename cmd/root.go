package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/notequiz/internal/cache"
	"github.com/abhisek/notequiz/internal/config"
	"github.com/abhisek/notequiz/internal/logging"
	"github.com/abhisek/notequiz/internal/observability"
	"github.com/abhisek/notequiz/internal/store"
)

// appState is what PersistentPreRunE prepares for every subcommand.
type appState struct {
	cfg           *config.Config
	log           *logging.Logger
	shutdownTrace observability.Shutdown
}

var rt = appState{log: logging.Nop()}

var rootCmd = &cobra.Command{
	Use:   "notequiz",
	Short: "Turn study notes into quizzes",
	Long: "NoteQuiz reads a study note, extracts its key concepts with an LLM " +
		"and quizzes you on them, explaining the answers you get wrong.",
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if rt.shutdownTrace != nil {
			if err := rt.shutdownTrace(context.Background()); err != nil {
				rt.log.Warn("flush traces", "error", err)
			}
		}
		rt.log.Sync()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("db", "", "Path to SQLite database file (overrides NOTEQUIZ_DB env var)")
	pf.String("config", "", "Path to a YAML config file")
	pf.Bool("debug", false, "Log at debug level to stderr")
	pf.Bool("trace", false, "Print OpenTelemetry spans to stderr")

	rootCmd.AddCommand(quizCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(versionCmd)
}

func setup(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	rt.cfg = cfg

	debug, _ := cmd.Flags().GetBool("debug")
	log, err := logging.New(cfg.Log.Level, debug)
	if err != nil {
		return err
	}
	rt.log = log

	trace, _ := cmd.Flags().GetBool("trace")
	if trace || cfg.Trace.Enabled {
		shutdown, err := observability.InitTracing(os.Stderr, version, log)
		if err != nil {
			return fmt.Errorf("init tracing: %w", err)
		}
		rt.shutdownTrace = shutdown
	}
	return nil
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then the config file's db key, then NOTEQUIZ_DB and the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	if rt.cfg != nil && rt.cfg.DB != "" {
		return rt.cfg.DB, store.EnsureDir(rt.cfg.DB)
	}
	return store.DefaultDBPath()
}

func openStore(cmd *cobra.Command) (*store.Store, error) {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}

// openCache connects the configured cache backend. The returned func
// releases it.
func openCache(ctx context.Context) (cache.Store, func(), error) {
	cc := rt.cfg.Cache
	if cc.Backend == "redis" {
		rs, err := cache.DialRedis(ctx, cache.RedisOptions{
			Addr:     cc.Redis.Addr,
			Password: cc.Redis.Password,
			DB:       cc.Redis.DB,
			Prefix:   cc.Redis.Prefix,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("connect redis cache: %w", err)
		}
		return rs, func() { rs.Close() }, nil
	}

	dir := cc.Dir
	if dir == "" {
		d, err := cache.DefaultDir()
		if err != nil {
			return nil, nil, err
		}
		dir = d
	}
	fs, err := cache.NewFileStore(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("open cache dir: %w", err)
	}
	return fs, func() {}, nil
}
