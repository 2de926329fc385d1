package cmd

import (
	"fmt"

	"github.com/Mohsinsiddi/invoicex/internal/hedera"
	"github.com/Mohsinsiddi/invoicex/internal/ui"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Interactive setup wizard",
	Long:  "Launch the interactive setup wizard to choose a network, keyring backend and optional watch-only wallet.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(ui.Banner())

		names := lo.Map(hedera.Networks(), func(n hedera.Network, _ int) string { return n.Name })
		result, err := ui.RunWizard(names)
		if err != nil {
			return err
		}
		if result.Cancelled {
			fmt.Println(ui.Meta("Cancelled."))
			return nil
		}

		if result.Network != "" {
			if err := cfg.SetNetwork(result.Network); err != nil {
				return err
			}
		}
		if result.KeyringBackend != "" {
			cfg.KeyringBackend = result.KeyringBackend
		}

		if result.WalletAddress != "" {
			if err := addWizardWallet(cmd, result); err != nil {
				fmt.Println(ui.Warn(fmt.Sprintf("Could not add wallet: %v", err)))
			}
		}

		if err := cfg.Save(); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		fmt.Println(ui.Success("invoicex configured! Run `invoicex --help` to explore commands."))
		return nil
	},
}

func addWizardWallet(cmd *cobra.Command, result *ui.WizardResult) error {
	network, err := activeNetwork()
	if err != nil {
		return err
	}
	addr, err := resolveAccount(cmd.Context(), network, result.WalletAddress)
	if err != nil {
		return err
	}
	mgr, err := newWalletManager()
	if err != nil {
		return err
	}
	if _, err := mgr.Add(result.WalletName, addr.Hex()); err != nil {
		return err
	}
	if err := mgr.SetDefault(result.WalletName); err != nil {
		return err
	}
	cfg.DefaultWallet = result.WalletName
	fmt.Println(ui.Success(fmt.Sprintf("Watch-only wallet %q added: %s", result.WalletName, ui.Addr(addr.Hex()))))
	return nil
}
