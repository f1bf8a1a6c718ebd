// pkg/cli/run.go
package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/DanCorvesor/environ-policies/pkg/config"
	"github.com/DanCorvesor/environ-policies/pkg/connector"
	"github.com/DanCorvesor/environ-policies/pkg/model"
	"github.com/DanCorvesor/environ-policies/pkg/persister"
	"github.com/DanCorvesor/environ-policies/pkg/session"
)

var (
	kindFlag       string
	conflictFlag   string
	cleanedDirFlag string
	dryRunFlag     bool
)

var runCmd = &cobra.Command{
	Use:   "run <file>...",
	Short: "Process one or more input files, each in its own session",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runFiles,
}

func init() {
	runCmd.Flags().StringVar(&kindFlag, "kind", "", "Record kind override (companies|policies); detected from the file name by default")
	runCmd.Flags().StringVar(&conflictFlag, "conflict", "replace", "Conflict policy: replace, append or fail-if-exists")
	runCmd.Flags().StringVar(&cleanedDirFlag, "cleaned-dir", "", "Directory to write cleaned copies of the input files into")
	runCmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "Clean and validate only; skip persistence")
	rootCmd.AddCommand(runCmd)
}

func runFiles(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := buildLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	policy, err := model.ParseConflictPolicy(conflictFlag)
	if err != nil {
		return err
	}

	var opts []session.Option
	if kindFlag != "" {
		kind, err := model.ParseKind(kindFlag)
		if err != nil {
			return err
		}
		opts = append(opts, session.WithKind(kind))
	}
	opts = append(opts, session.WithListDelimiter(cfg.ListDelimiter))

	ctx := cmd.Context()

	var store session.Store
	if !dryRunFlag {
		conn, err := connector.NewPostgresConnector(ctx, cfg.Postgres, logger)
		if err != nil {
			return err
		}
		defer conn.Close()
		if err := conn.Validate(ctx); err != nil {
			return err
		}
		store = persister.NewPersister(conn.DB(), logger, cfg.Postgres.Schema)
	}

	failed := 0
	for _, path := range args {
		if err := processFile(ctx, cfg, logger, store, path, policy, opts); err != nil {
			logger.Error("Session failed",
				zap.String("path", path),
				zap.Error(err))
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(args))
	}
	return nil
}

func processFile(ctx context.Context, cfg *config.Config, logger *zap.Logger, store session.Store, path string, policy model.ConflictPolicy, opts []session.Option) error {
	sess, err := session.New(path, store, logger, opts...)
	if err != nil {
		return err
	}

	table, err := cfg.TableFor(sess.Kind().String())
	if err != nil {
		return err
	}

	if dryRunFlag {
		if _, err := sess.Load(); err != nil {
			return err
		}
		if _, err := sess.Clean(); err != nil {
			return err
		}
		if _, err := sess.Validate(); err != nil {
			return err
		}
	} else {
		if ensurer, ok := store.(tableEnsurer); ok {
			if err := ensurer.EnsureTable(ctx, sess.Kind(), table); err != nil {
				return err
			}
		}
		if _, err := sess.Run(ctx, table, policy); err != nil {
			return err
		}
	}

	if cleanedDirFlag != "" {
		out := filepath.Join(cleanedDirFlag, "cleaned_"+filepath.Base(path))
		if err := sess.WriteCleaned(out, cfg.ListDelimiter); err != nil {
			return err
		}
	}

	logResult(logger, sess.Result())
	return nil
}

type tableEnsurer interface {
	EnsureTable(ctx context.Context, kind model.Kind, table string) error
}

func logResult(logger *zap.Logger, result *session.Result) {
	fields := []zap.Field{
		zap.String("session_id", result.SessionID.String()),
		zap.String("path", result.Path),
		zap.String("kind", result.Kind.String()),
		zap.String("state", string(result.State)),
		zap.Int("rows_valid", result.RowsValid),
		zap.Int("rows_rejected", result.RowsRejected),
	}
	if result.Cleaning != nil {
		fields = append(fields,
			zap.Int("rows_dropped", result.Cleaning.RowsDropped),
			zap.Int("cells_degraded", len(result.Cleaning.Operations)),
			zap.Int("flagged", len(result.Cleaning.Flagged)))
	}
	if result.Write != nil {
		fields = append(fields,
			zap.Int64("rows_written", result.Write.RowsWritten),
			zap.Int("write_conflicts", len(result.Write.Conflicts)),
			zap.Int64("table_count", result.Write.TableCount))
	}
	logger.Info("Session finished", fields...)
}
