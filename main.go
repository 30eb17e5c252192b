package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "clinic-hms",
		Short: "Clinic management API with durable identifier allocation",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(backfillCmd())
	rootCmd.AddCommand(syncCountersCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update tables and raise counters to existing identifiers",
		RunE: func(cmd *cobra.Command, args []string) error {
			skipSync, _ := cmd.Flags().GetBool("skip-sync")

			app, err := newApplication(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			if skipSync {
				app.logger.Info().Msg("tables migrated, counter sync skipped")
				return nil
			}
			report, err := app.syncCounters(cmd.Context())
			if err != nil {
				return err
			}
			app.logger.Info().
				Int("hospital_id_bases", len(report.HospitalIDs)).
				Int64("patient_uhid", report.PatientUHID).
				Int("bill_clinics", len(report.Bills)).
				Msg("migration complete")
			return nil
		},
	}
	cmd.Flags().Bool("skip-sync", false, "only migrate tables")
	return cmd
}

func backfillCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backfill-uhid",
		Short: "Assign UHIDs to patients stored without one",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApplication(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			assigned, err := app.backfillUHIDs(cmd.Context())
			if err != nil {
				return err
			}
			app.logger.Info().Int("assigned", assigned).Msg("uhid backfill complete")
			return nil
		},
	}
}

func syncCountersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync-counters",
		Short: "Raise every counter to the highest identifier already stored",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApplication(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			report, err := app.syncCounters(cmd.Context())
			if err != nil {
				return err
			}
			for base, value := range report.HospitalIDs {
				app.logger.Info().Str("scope", base).Int64("value", value).Msg("hospital id counter")
			}
			app.logger.Info().Int64("value", report.PatientUHID).Msg("patient uhid counter")
			return nil
		},
	}
}
