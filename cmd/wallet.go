package cmd

import (
	"fmt"

	"github.com/Mohsinsiddi/invoicex/internal/ui"
	"github.com/Mohsinsiddi/invoicex/internal/wallet"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

var walletKeyFlag string

var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Manage signing and watch-only wallets",
}

var walletAddCmd = &cobra.Command{
	Use:   "add <name> [address]",
	Short: "Add a wallet",
	Long: `Add a signing wallet (--key) or a watch-only wallet (address).

The address of a watch-only wallet may be an EVM address or an account ID,
which is stored as its long-zero address.

Examples:
  invoicex wallet add treasury --key 0xac09...
  invoicex wallet add buyer 0.0.1234`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		mgr, err := newWalletManager()
		if err != nil {
			return err
		}

		if walletKeyFlag != "" {
			w, err := mgr.AddWithKey(name, walletKeyFlag)
			if err != nil {
				return err
			}
			fmt.Println(ui.Success(fmt.Sprintf("Signing wallet %q added: %s", name, ui.Addr(w.Address))))
			fmt.Println(ui.Hint(fmt.Sprintf("Set as default with: invoicex wallet use %s", name)))
			return nil
		}

		if len(args) < 2 {
			return fmt.Errorf("address required for watch-only wallet\n  Usage: invoicex wallet add <name> <address>\n  Or for signing: invoicex wallet add <name> --key <private-key>")
		}
		network, err := activeNetwork()
		if err != nil {
			return err
		}
		addr, err := resolveAccount(cmd.Context(), network, args[1])
		if err != nil {
			return err
		}
		w, err := mgr.Add(name, addr.Hex())
		if err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Watch-only wallet %q added: %s", name, ui.Addr(w.Address))))
		fmt.Println(ui.Hint(fmt.Sprintf("Set as default with: invoicex wallet use %s", name)))
		return nil
	},
}

var walletListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all wallets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := newWalletManager()
		if err != nil {
			return err
		}
		wallets, err := mgr.List()
		if err != nil {
			return err
		}

		if len(wallets) == 0 {
			fmt.Println(ui.Info("No wallets configured yet."))
			fmt.Println(ui.Hint("Add one with: invoicex wallet add myWallet 0.0.1234"))
			return nil
		}

		t := ui.NewTable([]ui.Column{
			{Title: "Name", Width: 16},
			{Title: "Address", Width: 44},
			{Title: "Type", Width: 12},
			{Title: "Default", Width: 8},
		})
		for _, w := range wallets {
			def := ""
			if w.IsDefault || w.Name == cfg.DefaultWallet {
				def = ui.StyleSuccess.Render("✓")
			}
			t.AddRow(ui.Row{
				ui.Val(w.Name),
				ui.Addr(w.Address),
				ui.Meta(walletTypeLabel(w.Type)),
				def,
			})
		}
		fmt.Println(t.Render())
		fmt.Println(ui.Meta(fmt.Sprintf("%d wallet(s) configured", len(wallets))))
		return nil
	},
}

var walletRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a wallet and its stored key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if !assumeYes && !ui.ConfirmDanger(fmt.Sprintf("Remove wallet %q?", name)) {
			fmt.Println(ui.Meta("Cancelled."))
			return nil
		}
		mgr, err := newWalletManager()
		if err != nil {
			return err
		}
		if err := mgr.Remove(name); err != nil {
			return err
		}
		if cfg.DefaultWallet == name {
			cfg.DefaultWallet = ""
			if err := cfg.Save(); err != nil {
				return err
			}
		}
		fmt.Println(ui.Success(fmt.Sprintf("Wallet %q removed.", name)))
		return nil
	},
}

var walletUseCmd = &cobra.Command{
	Use:   "use <name>",
	Short: "Set the default wallet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := newWalletManager()
		if err != nil {
			return err
		}
		return setDefaultWallet(mgr, args[0])
	},
}

var walletPickCmd = &cobra.Command{
	Use:   "pick",
	Short: "Choose the default wallet interactively",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := newWalletManager()
		if err != nil {
			return err
		}
		wallets, err := mgr.List()
		if err != nil {
			return err
		}
		if len(wallets) == 0 {
			fmt.Println(ui.Info("No wallets configured yet."))
			return nil
		}

		items := lo.Map(wallets, func(w *wallet.Wallet, _ int) ui.PickerItem {
			return ui.PickerItem{
				Label:    w.Name,
				SubLabel: ui.TruncateAddr(w.Address) + "  " + walletTypeLabel(w.Type),
				Value:    w.Name,
			}
		})
		name, err := ui.PickItem("Select default wallet", items)
		if err != nil {
			return err
		}
		if name == "" {
			fmt.Println(ui.Meta("Cancelled."))
			return nil
		}
		return setDefaultWallet(mgr, name)
	},
}

var walletGenerateCmd = &cobra.Command{
	Use:   "generate <name>",
	Short: "Generate a new ECDSA wallet",
	Long: `Generate a new secp256k1 keypair and store the private key in the keyring.

The key is shown ONCE after creation. Fund the address with HBAR to
auto-create its Hedera account.

Re-export later with: invoicex wallet export <name>`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		mgr, err := newWalletManager()
		if err != nil {
			return err
		}
		w, err := mgr.Generate(name)
		if err != nil {
			return err
		}
		hexKey, err := mgr.ExportKey(name)
		if err != nil {
			return err
		}

		fmt.Println()
		fmt.Printf("  %s  %s\n", ui.Meta("Wallet :"), ui.Val(w.Name))
		fmt.Printf("  %s  %s\n\n", ui.Meta("Address:"), ui.Addr(w.Address))
		fmt.Println(ui.DangerBox(
			ui.Warn("SAVE YOUR PRIVATE KEY — shown only once. Never share it.") + "\n\n" +
				ui.Val(hexKey) + "\n\n" +
				ui.Hint("Store it in a password manager."),
		))
		fmt.Println(ui.Hint("  Re-export anytime: invoicex wallet export " + name))
		fmt.Println()
		return nil
	},
}

var walletExportCmd = &cobra.Command{
	Use:   "export <name>",
	Short: "Reveal the private key of a signing wallet",
	Long: `Retrieve and display the stored private key for a signing wallet.

You must type the wallet name exactly to confirm before the key is shown.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		fmt.Println()
		fmt.Println(ui.Warn("  You are about to reveal a private key. Keep it secret."))
		fmt.Println()
		if input := ui.PromptInput(fmt.Sprintf("  Type wallet name %q to confirm", name)); input != name {
			fmt.Println()
			fmt.Println(ui.Err("  Name mismatch — export cancelled."))
			return nil
		}

		mgr, err := newWalletManager()
		if err != nil {
			return err
		}
		hexKey, err := mgr.ExportKey(name)
		if err != nil {
			return err
		}

		fmt.Println()
		fmt.Println(ui.DangerBox(
			ui.Warn("PRIVATE KEY — do not share this with anyone.") + "\n\n" + ui.Val(hexKey),
		))
		fmt.Println()
		return nil
	},
}

// walletOrDefault returns the named wallet, or the default when name is empty.
func walletOrDefault(mgr *wallet.Manager, name string) (*wallet.Wallet, error) {
	if name == "" {
		w, err := mgr.Default()
		if err != nil {
			return nil, fmt.Errorf("%w\n  Pass an account or set a default with `invoicex wallet use <name>`", err)
		}
		return w, nil
	}
	return mgr.Get(name)
}

func setDefaultWallet(mgr *wallet.Manager, name string) error {
	if err := mgr.SetDefault(name); err != nil {
		return err
	}
	cfg.DefaultWallet = name
	if err := cfg.Save(); err != nil {
		return err
	}
	fmt.Println(ui.Success(fmt.Sprintf("Default wallet set to %q.", name)))
	fmt.Println(ui.Hint("This wallet signs every transaction unless --wallet is given."))
	return nil
}

func walletTypeLabel(t string) string {
	switch t {
	case wallet.TypeSigning:
		return "signing"
	case wallet.TypeWatchOnly:
		return "watch-only"
	default:
		return t
	}
}

func init() {
	walletAddCmd.Flags().StringVar(&walletKeyFlag, "key", "", "private key (hex) for a signing wallet")

	walletCmd.AddCommand(walletAddCmd, walletListCmd, walletRemoveCmd, walletUseCmd,
		walletPickCmd, walletGenerateCmd, walletExportCmd)
}
