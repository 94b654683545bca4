package cmd

import (
	"context"
	"os/signal"
	"strings"
	"syscall"

	"pingwatch/internal/api"
	"pingwatch/internal/configuration"
	"pingwatch/internal/helper"
	"pingwatch/internal/incident"
	"pingwatch/internal/monitor"
	"pingwatch/internal/net"
	"pingwatch/internal/net/database"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var runFlags struct {
	urls    []string
	timeout string
	delay   string
	logFile string
	format  string
	noTime  bool
}

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Starts probing the configured websites until interrupted",
	Long: `The 'run' command starts the probe loop.
Every target is checked in order, each failed check is appended to the
incident log, and a summary is printed on Ctrl+C.

Example:
  pingwatch run --config /path/to/your/pingwatch.yml
  pingwatch run --url https://example.com --timeout 60s --delay 5s`,
	Run: func(cmd *cobra.Command, args []string) {
		applyRunFlags(cmd, settings)

		if err := settings.Validate(); err != nil {
			exit(ExitErrorConfig, "invalid configuration: %v", err)
		}

		incidents, err := incident.NewLogger(settings.IncidentLog, settings.IncidentFormat)
		if err != nil {
			exit(ExitErrorConfig, "failed to prepare incident log: %v", err)
		}

		prober := net.NewProber(net.NetworkConfig{
			UserAgent:       settings.UserAgent,
			FollowRedirects: settings.FollowRedirects,
			SkipSSL:         settings.SkipSSL,
		})

		opts := monitor.Options{
			Delay:           settings.Delay,
			RecentIncidents: settings.RecentIncidents,
			NoTime:          runFlags.noTime,
		}

		var db *database.Database
		if settings.Database != "" {
			db, err = database.InitializeDatabase(settings.Database)
			if err != nil {
				exit(ExitErrorConnection, "failed to initialize database: %v", err)
			}
			defer db.Close()
			opts.History = db
		}

		if hook := net.NewWebhook(settings.Webhook); hook != nil {
			opts.Notifier = hook
		}

		uptimeMonitor, err := monitor.NewUptimeMonitor(settings.Targets, prober, incidents, opts)
		if err != nil {
			exit(ExitErrorConfig, "error initializing monitor: %v", err)
		}

		if !settings.API.Enabled {
			if err := uptimeMonitor.Start(); err != nil {
				exit(ExitErrorConfig, "monitor stopped: %v", err)
			}
			return
		}

		if err := runWithAPI(uptimeMonitor, db); err != nil {
			exit(ExitErrorConnection, "%v", err)
		}
	},
}

// runWithAPI runs the monitor and the status API under one signal context.
// If the API fails to start the monitor is stopped as well.
func runWithAPI(m *monitor.UptimeMonitor, db *database.Database) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := api.NewServer(api.ServerConfig{
		Bind:          settings.API.Bind,
		Port:          settings.API.Port,
		ConfigPath:    configuration.Config.ConfigFile,
		RatePerMinute: settings.API.RatePerMinute,
		Burst:         settings.API.Burst,
	}, m, db)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return m.Run(ctx)
	})
	g.Go(server.Start)
	g.Go(func() error {
		<-ctx.Done()
		server.Shutdown()
		return nil
	})

	return g.Wait()
}

// applyRunFlags lets command line flags override the loaded configuration.
func applyRunFlags(cmd *cobra.Command, s *configuration.Settings) {
	flags := cmd.Flags()

	if len(runFlags.urls) > 0 {
		s.Targets = nil
		for _, u := range runFlags.urls {
			s.Targets = append(s.Targets, configuration.ParseTarget(configuration.MonitorConfig{URL: u}))
		}
	}

	if flags.Changed("timeout") {
		timeout := helper.ParseDuration(runFlags.timeout, configuration.DEFAULT_TIMEOUT)
		for i := range s.Targets {
			s.Targets[i].Timeout = timeout
		}
	}

	if flags.Changed("delay") {
		s.Delay = helper.ParseDuration(runFlags.delay, configuration.DEFAULT_DELAY)
	}

	if flags.Changed("log-file") {
		s.IncidentLog = runFlags.logFile
	}

	if flags.Changed("format") {
		s.IncidentFormat = incident.Format(strings.ToLower(runFlags.format))
	}

	for _, t := range s.EnabledTargets() {
		log.Debug().Str("target", t.String()).Msg("target configured")
	}
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringArrayVarP(&runFlags.urls, "url", "u", nil, "URL to probe (repeatable, replaces configured targets)")
	runCmd.Flags().StringVar(&runFlags.timeout, "timeout", configuration.DEFAULT_TIMEOUT, "per probe timeout, e.g. 60s")
	runCmd.Flags().StringVar(&runFlags.delay, "delay", configuration.DEFAULT_DELAY, "pause between rounds, e.g. 5s")
	runCmd.Flags().StringVar(&runFlags.logFile, "log-file", configuration.INCIDENT_LOG_PATH, "incident log path")
	runCmd.Flags().StringVar(&runFlags.format, "format", string(incident.FormatText), "incident log format: text or json")
	runCmd.Flags().BoolVar(&runFlags.noTime, "no-time", false, "hide time in status lines")
}
