package cmd

import (
	"context"
	"fmt"

	"github.com/Mohsinsiddi/invoicex/internal/bridge"
	"github.com/Mohsinsiddi/invoicex/internal/chain"
	"github.com/Mohsinsiddi/invoicex/internal/hedera"
	"github.com/Mohsinsiddi/invoicex/internal/ui"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

var (
	hbarTo     string
	hbarAmount string
	hbarTx     txOptions
)

var hbarCmd = &cobra.Command{
	Use:   "hbar",
	Short: "Send HBAR and check balances",
}

var hbarSendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send HBAR to an account or EVM address",
	Long: `Send HBAR from the signing wallet.

Amounts are in HBAR with at most 8 decimals (1 tinybar).

Examples:
  invoicex hbar send --to 0.0.1234 --amount 1.5
  invoicex hbar send --to 0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266 --amount 0.25 --dry-run`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if hbarTo == "" {
			return fmt.Errorf("--to is required")
		}
		if hbarAmount == "" {
			return fmt.Errorf("--amount is required")
		}
		if _, err := hedera.ParseHbar(hbarAmount); err != nil {
			return err
		}

		network, err := activeNetwork()
		if err != nil {
			return err
		}
		fmt.Println(ui.KeyValueBlock("HBAR Transfer", [][2]string{
			{"To", ui.Addr(hbarTo)},
			{"Amount", hbarAmount + " " + network.CurrencySymbol},
			{"Network", ui.NetworkName(network.Name)},
		}))
		if !hbarTx.dryRun && !confirm("Broadcast this transfer?") {
			fmt.Println(ui.Meta("Cancelled."))
			return nil
		}

		br, err := newBridge(cmd.Context(), hbarTx)
		if err != nil {
			return err
		}
		return submitWithSpinner("Sending HBAR...", network, func() (*bridge.TxResult, error) {
			return br.TransferHBAR(cmd.Context(), hbarTo, hbarAmount)
		})
	},
}

var hbarBalanceCmd = &cobra.Command{
	Use:   "balance [account]",
	Short: "Show the HBAR balance of an account (default: the active wallet)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		network, err := activeNetwork()
		if err != nil {
			return err
		}

		var ref string
		if len(args) == 1 {
			ref = args[0]
		} else {
			mgr, err := newWalletManager()
			if err != nil {
				return err
			}
			w, err := walletOrDefault(mgr, walletName())
			if err != nil {
				return err
			}
			ref = w.Address
		}

		addr, err := resolveAccount(cmd.Context(), network, ref)
		if err != nil {
			return err
		}

		bal, err := chain.NewEVMClient(network.RelayURL).GetBalance(cmd.Context(), addr)
		if err != nil {
			return err
		}
		fmt.Println(ui.KeyValueBlock("Balance", [][2]string{
			{"Account", ui.Addr(ref)},
			{"Address", ui.Addr(addr.Hex())},
			{"Balance", ui.Val(hedera.WeibarToHbar(bal) + " " + network.CurrencySymbol)},
			{"Network", ui.NetworkName(network.Name)},
		}))
		return nil
	},
}

// resolveAccount maps an account ID to its EVM address through the mirror
// node, falling back to the long-zero address.
func resolveAccount(ctx context.Context, network hedera.Network, ref string) (common.Address, error) {
	if common.IsHexAddress(ref) || network.MirrorNodeURL == "" {
		return hedera.ToEVMAddress(ref)
	}
	id, err := hedera.ParseEntityID(ref)
	if err != nil {
		return common.Address{}, err
	}
	if err := id.VerifyChecksum(network); err != nil {
		return common.Address{}, err
	}
	addr, err := hedera.NewMirrorClient(network.MirrorNodeURL).AccountEVMAddress(ctx, id.String())
	if err != nil {
		logger.Debug("mirror lookup failed, using long-zero address")
		return id.EVMAddress(), nil
	}
	return addr, nil
}

func init() {
	hbarSendCmd.Flags().StringVar(&hbarTo, "to", "", "recipient account ID or EVM address (required)")
	hbarSendCmd.Flags().StringVar(&hbarAmount, "amount", "", "amount in HBAR (required)")
	hbarSendCmd.Flags().BoolVar(&hbarTx.dryRun, "dry-run", false, "sign but do not broadcast")
	hbarSendCmd.Flags().BoolVar(&hbarTx.noWait, "no-wait", false, "do not wait for the receipt")
	hbarCmd.AddCommand(hbarSendCmd, hbarBalanceCmd)
}
