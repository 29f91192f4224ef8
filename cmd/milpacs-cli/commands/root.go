package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"milpacs-backend/internal/components/configutil"
	"milpacs-backend/internal/components/telemetry"
	"milpacs-backend/internal/fetch"

	"github.com/spf13/cobra"
)

var (
	configPath *string
	debug      *bool
	dumpDir    *string
)

var (
	cfg     Config
	tel     telemetry.API
	otelSdk telemetry.Telemetry
	client  *fetch.Client
)

func init() {
	configPath = rootCmd.PersistentFlags().String("config", "config.json5", "The config file to read, relative paths are searched for from the working directory upwards.")
	debug = rootCmd.PersistentFlags().Bool("debug", false, "Log debug messages.")
	dumpDir = rootCmd.PersistentFlags().String("dump", "", "A directory to write every http response to.")
}

var rootCmd = &cobra.Command{
	Use:   "milpacs-cli",
	Short: "milpacs-cli scrapes the unit forum and audits personnel files.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(*debug)

		var err error
		if filepath.IsAbs(*configPath) {
			cfg, err = configutil.ReadConfig[Config](*configPath)
		} else {
			cfg, err = configutil.ReadRecursively[Config](*configPath)
		}
		if err != nil {
			fatal("failed to read config", err)
		}
		if cfg.BaseUrl == "" {
			fatal("invalid config", fmt.Errorf("base_url is required"))
		}

		otelSdk, err = telemetry.Setup(cmd.Context(), "milpacs-cli", cfg.Telemetry)
		if err != nil {
			fatal("failed to setup telemetry", err)
		}
		otelApi, err := telemetry.NewOtelAPI(telemetry.SlogAPI{})
		if err != nil {
			fatal("failed to create telemetry api", err)
		}
		tel = otelApi
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
		defer cancel()
		err := otelSdk.Shutdown(ctx)
		if err != nil {
			slog.Warn("failed to flush telemetry", "err", err)
		}
	},
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func fatal(msg string, err error) {
	slog.Error(msg, "err", err)
	os.Exit(1)
}

// session returns the forum client, logging in on first use when credentials are configured.
func session(ctx context.Context) *fetch.Client {
	if client != nil {
		return client
	}

	opts := fetch.Options{RequestsPerSecond: cfg.RequestsPerSecond}
	if *dumpDir != "" {
		dump, err := fetch.NewDump(*dumpDir)
		if err != nil {
			fatal("failed to create dump directory", err)
		}
		opts.Dump = dump
	}

	c, err := fetch.NewClient(cfg.BaseUrl, opts, tel)
	if err != nil {
		fatal("failed to create client", err)
	}
	if cfg.Username != "" {
		slog.Info("logging in", "username", cfg.Username)
		err = c.Login(ctx, cfg.Username, cfg.Password)
		if err != nil {
			fatal("failed to login", err)
		}
	}
	client = c
	return client
}

func parseId(name, arg string) int64 {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		fatal(fmt.Sprintf("invalid %s", name), fmt.Errorf("%q is not a positive integer", arg))
	}
	return id
}
