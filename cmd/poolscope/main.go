package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"

	"github.com/horizen-tools/poolscope/internal/common"
	"github.com/horizen-tools/poolscope/internal/config"
	"github.com/horizen-tools/poolscope/internal/logger"
	"github.com/horizen-tools/poolscope/internal/metrics"
	"github.com/horizen-tools/poolscope/internal/rpc"
	"github.com/horizen-tools/poolscope/internal/store"
	syncer "github.com/horizen-tools/poolscope/internal/sync"
	"github.com/horizen-tools/poolscope/internal/verify"
	"github.com/horizen-tools/poolscope/pkg/api"
	pkgconfig "github.com/horizen-tools/poolscope/pkg/config"
	pkgsync "github.com/horizen-tools/poolscope/pkg/sync"
)

const version = "1.0.0"

var (
	configPath string

	repairTo     uint64
	exportFrom   uint64
	exportFormat string
	exportOutput string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "poolscope",
	Short: "Poolscope - Shielded pool value tracker",
	Long: `Poolscope tracks the total shielded pool value of a Horizen-style chain
as an append-only per-block time series. It synchronizes the series from a
node's JSON-RPC interface, verifies its structural integrity and serves it
to chart consumers.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Extend the stored series to the current chain tip",
	Long: `Fetch the shielded pool value for every missing height and append the
results to the configured store. A run interrupted by an unreachable height
keeps everything fetched before it; the next run resumes from there.`,
	RunE: runSync,
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check the stored series for gaps, duplicates and negative values",
	RunE:  runVerify,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the stored series as CSV or JSON",
	RunE:  runExport,
}

var importCmd = &cobra.Command{
	Use:   "import <csv-file>",
	Short: "Import a legacy CSV series file into the configured store",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the series over a read-only HTTP API",
	RunE:  runServe,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration utilities",
}

var configSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON Schema of the configuration file",
	RunE:  runConfigSchema,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to configuration file")

	verifyCmd.Flags().Uint64Var(&repairTo, "repair-to", 0,
		"truncate the store to this height (explicit repair, rewrites the store)")

	exportCmd.Flags().Uint64Var(&exportFrom, "from-height", 0, "export entries at or above this height")
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "output format: csv or json")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default stdout)")

	configCmd.AddCommand(configSchemaCmd)
	rootCmd.AddCommand(syncCmd, verifyCmd, exportCmd, importCmd, serveCmd, configCmd)
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nShutting down gracefully...")
		cancel()
	}()

	return ctx, cancel
}

func runSync(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	log := logger.NewComponentLoggerFromConfig(common.ComponentSynchronizer, cfg.Logging)

	metricsServer, err := startMetrics(ctx, cfg, log)
	if err != nil {
		return err
	}
	if metricsServer != nil {
		defer func() {
			if err := metricsServer.Stop(ctx); err != nil {
				log.Warnf("Failed to stop metrics server: %v", err)
			}
		}()
	}

	seriesStore, maintenance, err := store.New(
		cfg.Store,
		cfg.Sync.GenesisHeight,
		logger.NewComponentLoggerFromConfig(common.ComponentStore, cfg.Logging),
	)
	if err != nil {
		return fmt.Errorf("failed to open series store: %w", err)
	}
	defer seriesStore.Close()

	if maintenance != nil {
		go maintenance.Start(ctx)
	}

	rpcClient := rpc.NewClient(cfg.Node, logger.NewComponentLoggerFromConfig(common.ComponentRPC, cfg.Logging))
	defer rpcClient.Close()

	synchronizer, err := syncer.New(cfg.Sync, rpcClient, seriesStore, log)
	if err != nil {
		return fmt.Errorf("failed to create synchronizer: %w", err)
	}

	result, err := synchronizer.Run(ctx)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	switch result.Status {
	case pkgsync.StatusComplete:
		log.Infof("Series is current at height %d (%d new entries)", result.FinalHeight, result.NewEntries)
		return nil
	case pkgsync.StatusPartial:
		// Entries before the failed height are already committed; a rerun
		// resumes from there. Exit non-zero so schedulers retry.
		return fmt.Errorf("sync stopped at height %d after %d new entries: %w",
			result.FailedHeight, result.NewEntries, result.Cause)
	case pkgsync.StatusUnavailable:
		return fmt.Errorf("chain tip unavailable: %w", result.Cause)
	default:
		return fmt.Errorf("unknown sync status %q", result.Status)
	}
}

func runVerify(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	seriesStore, _, err := store.New(
		cfg.Store,
		cfg.Sync.GenesisHeight,
		logger.NewComponentLoggerFromConfig(common.ComponentStore, cfg.Logging),
	)
	if err != nil {
		return fmt.Errorf("failed to open series store: %w", err)
	}
	defer seriesStore.Close()

	entries, err := seriesStore.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load series: %w", err)
	}

	if cmd.Flags().Changed("repair-to") {
		truncated := entries.Truncate(repairTo)
		if len(truncated) == len(entries) {
			fmt.Printf("Nothing to repair: series already ends at or below height %d\n", repairTo)
		} else {
			if err := seriesStore.Rewrite(ctx, truncated); err != nil {
				return fmt.Errorf("failed to rewrite series: %w", err)
			}
			fmt.Printf("Series truncated from %d to %d entries (up to height %d)\n",
				len(entries), len(truncated), repairTo)
			entries = truncated
		}
	}

	verifier := verify.New(
		cfg.Verify.DropToleranceDecimal(),
		logger.NewComponentLoggerFromConfig(common.ComponentVerifier, cfg.Logging),
	)

	result := verifier.Verify(entries)
	for _, warning := range result.Warnings {
		fmt.Printf("warning: %s\n", warning.String())
	}

	if !result.Valid {
		return fmt.Errorf("series invalid at height %d: %s", result.AtHeight, result.Reason)
	}

	fmt.Printf("Series OK: %d entries, %d warnings\n", len(entries), len(result.Warnings))
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	seriesStore, _, err := store.New(
		cfg.Store,
		cfg.Sync.GenesisHeight,
		logger.NewComponentLoggerFromConfig(common.ComponentStore, cfg.Logging),
	)
	if err != nil {
		return fmt.Errorf("failed to open series store: %w", err)
	}
	defer seriesStore.Close()

	entries, err := seriesStore.LoadFrom(ctx, exportFrom)
	if err != nil {
		return fmt.Errorf("failed to load series: %w", err)
	}

	out := os.Stdout
	if exportOutput != "" {
		f, err := os.Create(exportOutput)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	switch exportFormat {
	case "csv":
		if err := store.WriteEntries(out, entries); err != nil {
			return fmt.Errorf("failed to write CSV: %w", err)
		}
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(entries); err != nil {
			return fmt.Errorf("failed to write JSON: %w", err)
		}
	default:
		return fmt.Errorf("unknown export format %q, expected 'csv' or 'json'", exportFormat)
	}

	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open import file: %w", err)
	}
	defer f.Close()

	entries, err := store.ReadEntries(f)
	if err != nil {
		return fmt.Errorf("failed to parse import file: %w", err)
	}

	seriesStore, _, err := store.New(
		cfg.Store,
		cfg.Sync.GenesisHeight,
		logger.NewComponentLoggerFromConfig(common.ComponentStore, cfg.Logging),
	)
	if err != nil {
		return fmt.Errorf("failed to open series store: %w", err)
	}
	defer seriesStore.Close()

	if err := seriesStore.Rewrite(ctx, entries); err != nil {
		return fmt.Errorf("failed to import series: %w", err)
	}

	fmt.Printf("Imported %d entries into the %s store\n", len(entries), cfg.Store.Backend)
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.API == nil || !cfg.API.Enabled {
		return fmt.Errorf("api.enabled must be true for the serve command")
	}

	ctx, cancel := signalContext()
	defer cancel()

	log := logger.NewComponentLoggerFromConfig(common.ComponentAPI, cfg.Logging)

	metricsServer, err := startMetrics(ctx, cfg, log)
	if err != nil {
		return err
	}
	if metricsServer != nil {
		defer func() {
			if err := metricsServer.Stop(ctx); err != nil {
				log.Warnf("Failed to stop metrics server: %v", err)
			}
		}()
	}

	seriesStore, maintenance, err := store.New(
		cfg.Store,
		cfg.Sync.GenesisHeight,
		logger.NewComponentLoggerFromConfig(common.ComponentStore, cfg.Logging),
	)
	if err != nil {
		return fmt.Errorf("failed to open series store: %w", err)
	}
	defer seriesStore.Close()

	if maintenance != nil {
		go maintenance.Start(ctx)
	}

	rpcClient := rpc.NewClient(cfg.Node, logger.NewComponentLoggerFromConfig(common.ComponentRPC, cfg.Logging))
	defer rpcClient.Close()

	verifier := verify.New(
		cfg.Verify.DropToleranceDecimal(),
		logger.NewComponentLoggerFromConfig(common.ComponentVerifier, cfg.Logging),
	)

	apiServer := api.NewServer(cfg.API, seriesStore, verifier, rpcClient, log)
	return apiServer.Start(ctx)
}

func runConfigSchema(cmd *cobra.Command, args []string) error {
	reflector := jsonschema.Reflector{
		ExpandedStruct: true,
		DoNotReference: false,
	}

	schema := reflector.Reflect(&pkgconfig.Config{})
	schema.Title = "Poolscope configuration"

	encoded, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal schema: %w", err)
	}

	fmt.Println(string(encoded))
	return nil
}

// startMetrics starts the Prometheus metrics server when enabled.
func startMetrics(ctx context.Context, cfg *pkgconfig.Config, log *logger.Logger) (*metrics.Server, error) {
	if cfg.Metrics == nil || !cfg.Metrics.Enabled {
		return nil, nil
	}

	server := metrics.NewServer(cfg.Metrics)
	if err := server.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start metrics server: %w", err)
	}
	log.Infof("Metrics server started on %s%s", cfg.Metrics.ListenAddress, cfg.Metrics.Path)

	return server, nil
}
