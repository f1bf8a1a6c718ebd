// pkg/cli/report.go
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DanCorvesor/environ-policies/pkg/connector"
	"github.com/DanCorvesor/environ-policies/pkg/query"
)

var jurisdictionFlag string

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "List active policies for a jurisdiction with geography update lag",
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

		table := fmt.Sprintf("%s.%s", cfg.Postgres.Schema, cfg.PoliciesTable)
		svc := query.NewService(conn.DB(), logger, table)
		policies, err := svc.ActiveForJurisdiction(ctx, jurisdictionFlag)
		if err != nil {
			return err
		}

		if len(policies) == 0 {
			fmt.Printf("No active policies updated in the last 90 days for %q\n", jurisdictionFlag)
			return nil
		}
		for _, p := range policies {
			fmt.Printf("%s\t%s\tupdated %s\tavg geography lag %.1f days\n",
				p.ID, p.Name, p.UpdatedDate.Format("2006-01-02"), p.AvgDaysSinceUpdate)
		}
		return nil
	},
}

func init() {
	reportCmd.Flags().StringVar(&jurisdictionFlag, "jurisdiction", "", "Customer jurisdiction to match against policy geography")
	_ = reportCmd.MarkFlagRequired("jurisdiction")
	rootCmd.AddCommand(reportCmd)
}
