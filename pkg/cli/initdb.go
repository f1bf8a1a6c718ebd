// pkg/cli/initdb.go
package cli

import (
	"github.com/spf13/cobra"

	"github.com/DanCorvesor/environ-policies/pkg/connector"
	"github.com/DanCorvesor/environ-policies/pkg/model"
	"github.com/DanCorvesor/environ-policies/pkg/persister"
)

var initDBCmd = &cobra.Command{
	Use:   "init-db",
	Short: "Create the destination tables if they do not exist",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger, err := buildLogger(cfg)
		if err != nil {
			return err
		}
		defer logger.Sync()

		ctx := cmd.Context()
		conn, err := connector.NewPostgresConnector(ctx, cfg.Postgres, logger)
		if err != nil {
			return err
		}
		defer conn.Close()
		if err := conn.Validate(ctx); err != nil {
			return err
		}

		p := persister.NewPersister(conn.DB(), logger, cfg.Postgres.Schema)
		if err := p.EnsureTable(ctx, model.KindCompany, cfg.CompaniesTable); err != nil {
			return err
		}
		return p.EnsureTable(ctx, model.KindPolicy, cfg.PoliciesTable)
	},
}

func init() {
	rootCmd.AddCommand(initDBCmd)
}
