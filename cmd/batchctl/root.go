package main

import (
	"context"
	"os"

	"github.com/rpggio/batchreport/internal/app"
	"github.com/rpggio/batchreport/internal/config"
	"github.com/rpggio/batchreport/internal/domain/batch"
	"github.com/rpggio/batchreport/internal/logging"
	"github.com/spf13/cobra"
)

type cli struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:   "batchctl",
		Short: "Inspect batch windows, approve batches and export batch reports",
		Long: `batchctl reads the plant's security, alarm and trend logs directly.

Batch windows are reconstructed from the start and end markers in the
security log. Batches are addressed by their start and end keys
(YYYYMMDDHHmmssfff), as printed by "batchctl batches --json".

Configuration comes from the same YAML file and BATCHREPORT_* environment
variables as the server.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", os.Getenv("BATCHREPORT_CONFIG_PATH"), "YAML config file")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "override the configured log level (debug, info, warn, error)")

	root.AddCommand(
		c.batchesCmd(),
		c.showCmd(),
		c.reportCmd(),
		c.requestCmd(),
		c.approveCmd(),
		c.activityCmd(),
	)
	return root
}

// open loads configuration and wires the stores. Logs go to stderr so command
// output stays pipeable.
func (c *cli) open(ctx context.Context, readOnly bool) (*app.App, config.Config, error) {
	cfg, err := config.LoadFrom(c.configPath)
	if err != nil {
		return nil, config.Config{}, err
	}
	level := cfg.Log.Level
	if c.logLevel != "" {
		level = c.logLevel
	}
	logger, _, err := logging.New(logging.Options{Level: level, Output: os.Stderr})
	if err != nil {
		return nil, config.Config{}, err
	}
	a, err := app.Open(ctx, cfg, logger, app.Options{ReadOnly: readOnly})
	if err != nil {
		return nil, config.Config{}, err
	}
	return a, cfg, nil
}

type keyFlags struct {
	start string
	end   string
}

func (k *keyFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&k.start, "start", "", "batch start key (YYYYMMDDHHmmssfff)")
	cmd.Flags().StringVar(&k.end, "end", "", "batch end key (YYYYMMDDHHmmssfff)")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
}

// window resolves the flags to a reconstructed batch window.
func (k *keyFlags) window(ctx context.Context, a *app.App) (batch.Window, error) {
	key, err := batch.ParseKey(a.Codec, k.start, k.end)
	if err != nil {
		return batch.Window{}, err
	}
	return a.Batches.Find(ctx, key)
}
