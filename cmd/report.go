package cmd

import (
	"encoding/json"
	"fmt"

	"pingwatch/internal/incident"
	"pingwatch/internal/models"
	"pingwatch/internal/net/database"

	"github.com/spf13/cobra"
)

var reportFlags struct {
	logFile string
	url     string
	last    int
	db      string
}

type incidentReport struct {
	LogFile string                  `json:"log_file"`
	Summary incident.Summary        `json:"summary"`
	Recent  []incident.Record       `json:"recent"`
	History []models.HistorySummary `json:"history,omitempty"`
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate a report from the incident log",
	Long: `Replay the incident log and print a JSON report with the number of
incidents by type and by URL, plus the most recent records.

With --db, the per-URL probe history stored by 'run' is summarized as well.`,
	Run: func(cmd *cobra.Command, args []string) {
		flags := cmd.Flags()

		logFile := settings.IncidentLog
		if flags.Changed("log") {
			logFile = reportFlags.logFile
		}

		last := settings.RecentIncidents
		if flags.Changed("last") {
			last = reportFlags.last
		}

		dbPath := settings.Database
		if flags.Changed("db") {
			dbPath = reportFlags.db
		}

		records, err := incident.ReplayFile(logFile)
		if err != nil {
			models.Response{
				Message: fmt.Sprintf("failed to replay incident log: %v", err),
			}.Print()
			exit(ExitErrorConfig, "failed to replay incident log %s", logFile)
		}

		records = incident.Filter(records, reportFlags.url)

		report := incidentReport{
			LogFile: logFile,
			Summary: incident.Summarize(records, ""),
			Recent:  incident.Tail(records, last),
		}
		if report.Recent == nil {
			report.Recent = []incident.Record{}
		}

		if dbPath != "" {
			db, err := database.InitializeDatabase(dbPath)
			if err != nil {
				models.Response{
					Message: "failed to initialize sqlite database",
				}.Print()
				exit(ExitErrorConnection, "failed to open database %s: %v", dbPath, err)
			}
			defer db.Close()

			report.History, err = db.Summary()
			if err != nil {
				exit(ExitErrorConnection, "failed to summarize history: %v", err)
			}
		}

		output, err := json.Marshal(report)
		if err != nil {
			models.Response{
				Message: "Error while encoding result",
			}.Print()
			exit(ExitErrorInvalidArgs, "failed to encode report: %v", err)
		}

		fmt.Println(string(output))
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringVar(&reportFlags.logFile, "log", "", "incident log to replay (default from config)")
	reportCmd.Flags().StringVarP(&reportFlags.url, "url", "u", "", "only report incidents for this URL")
	reportCmd.Flags().IntVar(&reportFlags.last, "last", 0, "number of recent incidents to include (default from config)")
	reportCmd.Flags().StringVar(&reportFlags.db, "db", "", "probe history database to summarize (default from config)")
}
