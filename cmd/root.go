package cmd

import (
	"fmt"
	"os"

	"github.com/Mohsinsiddi/invoicex/internal/config"
	"github.com/Mohsinsiddi/invoicex/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Version is the current release. Overridable via build ldflags:
//
//	go build -ldflags "-X github.com/Mohsinsiddi/invoicex/cmd.Version=1.2.3" .
var Version = "0.1.0"

var (
	cfgDir      string
	cfg         *config.Config
	logger      = zap.NewNop()
	verbose     bool
	assumeYes   bool
	networkFlag string
	walletFlag  string
)

// rootCmd is the top-level command.
var rootCmd = &cobra.Command{
	Use:   "invoicex",
	Short: "Invoice tokenization wallet bridge for Hedera",
	Long: `invoicex signs and submits invoice marketplace transactions through the
Hedera JSON-RPC relay.

  Describe contract arguments, call marketplace contracts, transfer HBAR and
  invoice tokens, associate tokens, and manage the wallets that sign them.

Global flags --network and --wallet override the configured defaults for a
single invocation. Every setting can also come from an INVOICEX_* environment
variable, e.g. INVOICEX_NETWORK=mainnet.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = logging.New(verbose)

		// Load config (skip for commands that don't need it).
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		var err error
		cfg, err = config.Load(cfgDir)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		logger.Debug("config loaded", zap.String("dir", cfg.Dir()), zap.String("network", cfg.Network))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorLine(err))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgDir, "config", "", "config directory (default: $INVOICEX_CONFIG_DIR or ~/.invoicex)")
	rootCmd.PersistentFlags().StringVarP(&networkFlag, "network", "n", "", "Hedera network: testnet|mainnet|previewnet (default: config)")
	rootCmd.PersistentFlags().StringVarP(&walletFlag, "wallet", "w", "", "wallet name (default: config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging on stderr")
	rootCmd.PersistentFlags().BoolVarP(&assumeYes, "yes", "y", false, "skip confirmation prompts")

	// Register all sub-commands.
	rootCmd.AddCommand(
		initCmd,
		networkCmd,
		walletCmd,
		accountCmd,
		paramsCmd,
		callCmd,
		hbarCmd,
		tokenCmd,
		signCmd,
		verifyCmd,
	)
}
