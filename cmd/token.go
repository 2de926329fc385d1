package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/Mohsinsiddi/invoicex/internal/bridge"
	"github.com/Mohsinsiddi/invoicex/internal/contract"
	"github.com/Mohsinsiddi/invoicex/internal/hedera"
	"github.com/Mohsinsiddi/invoicex/internal/ui"
	"github.com/spf13/cobra"
)

// ── flag vars ─────────────────────────────────────────────────────────────────

var (
	tokenKindFlag   string
	tokenDecimals   int
	tokenLookup     bool
	tokenTo         string
	tokenAmount     string
	tokenSerial     int64
	tokenTx         txOptions
	tokenTransferTx txOptions
	tokenNFTTx      txOptions
)

// ── root token command ────────────────────────────────────────────────────────

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage and move invoice tokens",
	Long: `Register invoice tokens and move them between accounts.

Tokens are referenced by a registry name or directly by entity ID (0.0.5005).

Sub-commands:
  invoicex token add          — register a fungible share token or NFT collection
  invoicex token list         — list registered tokens
  invoicex token remove       — forget a token
  invoicex token info         — show mirror node metadata
  invoicex token associate    — associate the wallet with a token
  invoicex token transfer     — transfer fungible shares
  invoicex token transfer-nft — transfer an invoice NFT`,
}

// ── registry ──────────────────────────────────────────────────────────────────

var tokenAddCmd = &cobra.Command{
	Use:   "add <name> <token-id>",
	Short: "Register a token on the active network",
	Long: `Register a token under a short name.

With --lookup the kind and decimals are read from the mirror node.

Examples:
  invoicex token add inv42 0.0.5005 --decimals 2
  invoicex token add invoices 0.0.6006 --kind nft
  invoicex token add inv43 0.0.5010 --lookup`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		network, err := activeNetwork()
		if err != nil {
			return err
		}
		kind, err := contract.ParseKind(tokenKindFlag)
		if err != nil {
			return err
		}
		entry := &contract.Entry{
			Name:     args[0],
			Network:  network.Name,
			TokenID:  args[1],
			Kind:     kind,
			Decimals: tokenDecimals,
		}

		id, err := hedera.ParseEntityID(args[1])
		if err != nil {
			return err
		}
		if err := id.VerifyChecksum(network); err != nil {
			return err
		}

		if tokenLookup {
			info, err := hedera.NewMirrorClient(network.MirrorNodeURL).TokenInfo(cmd.Context(), id.String())
			if err != nil {
				return fmt.Errorf("looking up %s: %w", id, err)
			}
			entry.Decimals = info.Decimals
			entry.Kind = contract.KindFungible
			if info.NonFungible {
				entry.Kind = contract.KindNFT
			}
		}

		reg, err := tokenRegistry()
		if err != nil {
			return err
		}
		if err := reg.Add(entry); err != nil {
			return err
		}
		if err := reg.Save(); err != nil {
			return err
		}

		addr, _ := entry.Address()
		fmt.Println(ui.Success(fmt.Sprintf("Token %q registered on %s: %s (%s)",
			entry.Name, network.Name, ui.Addr(entry.TokenID), entry.Kind)))
		fmt.Println(ui.Meta("EVM address: " + addr))
		return nil
	},
}

var tokenListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered tokens",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := tokenRegistry()
		if err != nil {
			return err
		}
		entries := reg.All()
		if len(entries) == 0 {
			fmt.Println(ui.Info("No tokens registered yet."))
			fmt.Println(ui.Hint("Add one with: invoicex token add <name> 0.0.5005"))
			return nil
		}

		t := ui.NewTable([]ui.Column{
			{Title: "Name", Width: 16},
			{Title: "Network", Width: 11},
			{Title: "Token ID", Width: 16},
			{Title: "Kind", Width: 9},
			{Title: "Decimals", Width: 8},
		})
		for _, e := range entries {
			dec := ""
			if e.Kind == contract.KindFungible {
				dec = fmt.Sprintf("%d", e.Decimals)
			}
			t.AddRow(ui.Row{e.Name, e.Network, e.TokenID, string(e.Kind), dec})
		}
		fmt.Println(t.Render())
		fmt.Println(ui.Meta(fmt.Sprintf("%d token(s) registered", len(entries))))
		return nil
	},
}

var tokenRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a token from the registry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		network, err := activeNetwork()
		if err != nil {
			return err
		}
		reg, err := tokenRegistry()
		if err != nil {
			return err
		}
		if err := reg.Remove(args[0], network.Name); err != nil {
			return err
		}
		if err := reg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Token %q removed from %s.", args[0], network.Name)))
		return nil
	},
}

var tokenInfoCmd = &cobra.Command{
	Use:   "info <token>",
	Short: "Show token metadata from the mirror node",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		network, entry, err := resolveToken(args[0], contract.KindFungible)
		if err != nil {
			return err
		}
		info, err := hedera.NewMirrorClient(network.MirrorNodeURL).TokenInfo(cmd.Context(), entry.TokenID)
		if err != nil {
			return err
		}
		kind := "fungible"
		if info.NonFungible {
			kind = "nft"
		}
		addr, _ := entry.Address()
		fmt.Println(ui.KeyValueBlock("Token", [][2]string{
			{"Token ID", ui.Addr(info.TokenID)},
			{"Name", ui.Val(info.Name)},
			{"Symbol", info.Symbol},
			{"Kind", kind},
			{"Decimals", fmt.Sprintf("%d", info.Decimals)},
			{"EVM Address", ui.Addr(addr)},
			{"Network", ui.NetworkName(network.Name)},
		}))
		return nil
	},
}

// ── transactions ──────────────────────────────────────────────────────────────

var tokenAssociateCmd = &cobra.Command{
	Use:   "associate <token>",
	Short: "Associate the signing wallet with a token",
	Long: `Associate the signing wallet's account with a token so it can receive it.
Hedera accounts must be associated before they hold a token.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		network, entry, err := resolveToken(args[0], contract.KindFungible)
		if err != nil {
			return err
		}
		fmt.Println(ui.KeyValueBlock("Associate Token", [][2]string{
			{"Token", ui.Addr(entry.TokenID)},
			{"Network", ui.NetworkName(network.Name)},
		}))
		if !tokenTx.dryRun && !confirm("Associate this token?") {
			fmt.Println(ui.Meta("Cancelled."))
			return nil
		}

		br, err := newBridge(cmd.Context(), tokenTx)
		if err != nil {
			return err
		}
		return submitWithSpinner("Associating...", network, func() (*bridge.TxResult, error) {
			return br.AssociateToken(cmd.Context(), entry.TokenID)
		})
	},
}

var tokenTransferCmd = &cobra.Command{
	Use:   "transfer <token>",
	Short: "Transfer fungible invoice shares",
	Long: `Transfer a fungible token. --amount is in display units; the token's
decimals come from the registry, --decimals, or the mirror node.

Examples:
  invoicex token transfer inv42 --to 0.0.1234 --amount 12.5
  invoicex token transfer 0.0.5005 --to 0.0.1234 --amount 100 --decimals 0`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if tokenTo == "" || tokenAmount == "" {
			return fmt.Errorf("--to and --amount are required")
		}
		network, entry, err := resolveToken(args[0], contract.KindFungible)
		if err != nil {
			return err
		}
		if entry.Kind != contract.KindFungible {
			return fmt.Errorf("%s is an NFT collection — use `invoicex token transfer-nft`", entry.Name)
		}

		decimals, err := tokenDecimalsFor(cmd, network, entry)
		if err != nil {
			return err
		}
		raw, err := hedera.ParseTokenAmount(tokenAmount, decimals)
		if err != nil {
			return err
		}
		if !raw.IsInt64() || raw.Sign() <= 0 {
			return fmt.Errorf("%w: %s must be positive and fit in int64 base units", hedera.ErrInvalidAmount, tokenAmount)
		}

		fmt.Println(ui.KeyValueBlock("Token Transfer", [][2]string{
			{"Token", ui.Addr(entry.TokenID)},
			{"To", ui.Addr(tokenTo)},
			{"Amount", fmt.Sprintf("%s (%s base units)", hedera.FormatTokenAmount(raw, decimals), raw)},
			{"Network", ui.NetworkName(network.Name)},
		}))
		if !tokenTransferTx.dryRun && !confirm("Broadcast this transfer?") {
			fmt.Println(ui.Meta("Cancelled."))
			return nil
		}

		br, err := newBridge(cmd.Context(), tokenTransferTx)
		if err != nil {
			return err
		}
		return submitWithSpinner("Transferring...", network, func() (*bridge.TxResult, error) {
			return br.TransferFungibleToken(cmd.Context(), tokenTo, entry.TokenID, raw.Int64())
		})
	},
}

var tokenTransferNFTCmd = &cobra.Command{
	Use:   "transfer-nft <token>",
	Short: "Transfer an invoice NFT",
	Long: `Transfer one NFT serial from the signing wallet.

Example:
  invoicex token transfer-nft invoices --to 0.0.1234 --serial 7`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if tokenTo == "" {
			return fmt.Errorf("--to is required")
		}
		if tokenSerial <= 0 {
			return fmt.Errorf("--serial must be a positive serial number")
		}
		network, entry, err := resolveToken(args[0], contract.KindNFT)
		if err != nil {
			return err
		}
		if entry.Kind != contract.KindNFT {
			return fmt.Errorf("%s is a fungible token — use `invoicex token transfer`", entry.Name)
		}

		fmt.Println(ui.KeyValueBlock("NFT Transfer", [][2]string{
			{"Token", ui.Addr(entry.TokenID)},
			{"Serial", fmt.Sprintf("%d", tokenSerial)},
			{"To", ui.Addr(tokenTo)},
			{"Network", ui.NetworkName(network.Name)},
		}))
		if !tokenNFTTx.dryRun && !confirm("Broadcast this transfer?") {
			fmt.Println(ui.Meta("Cancelled."))
			return nil
		}

		br, err := newBridge(cmd.Context(), tokenNFTTx)
		if err != nil {
			return err
		}
		return submitWithSpinner("Transferring NFT...", network, func() (*bridge.TxResult, error) {
			return br.TransferNonFungibleToken(cmd.Context(), tokenTo, entry.TokenID, tokenSerial)
		})
	},
}

// resolveToken finds a token by registry name or entity ID on the active
// network.
func resolveToken(ref string, kind contract.Kind) (hedera.Network, *contract.Entry, error) {
	network, err := activeNetwork()
	if err != nil {
		return hedera.Network{}, nil, err
	}
	reg, err := tokenRegistry()
	if err != nil {
		return hedera.Network{}, nil, err
	}
	entry, err := reg.Resolve(ref, network.Name, kind)
	if errors.Is(err, contract.ErrTokenNotFound) {
		return hedera.Network{}, nil, fmt.Errorf("%w\n  Register it with `invoicex token add` or pass an entity ID", err)
	}
	if err != nil {
		return hedera.Network{}, nil, err
	}
	if id, err := hedera.ParseEntityID(ref); err == nil {
		if err := id.VerifyChecksum(network); err != nil {
			return hedera.Network{}, nil, err
		}
	}
	return network, entry, nil
}

// tokenDecimalsFor picks the decimals for an amount: --decimals, then the
// registry entry, then the mirror node.
func tokenDecimalsFor(cmd *cobra.Command, network hedera.Network, entry *contract.Entry) (int, error) {
	if cmd.Flags().Changed("decimals") {
		return tokenDecimals, nil
	}
	reg, err := tokenRegistry()
	if err != nil {
		return 0, err
	}
	if stored, err := reg.Get(entry.Name, network.Name); err == nil {
		return stored.Decimals, nil
	}
	return mirrorDecimals(cmd.Context(), network, entry.TokenID)
}

func mirrorDecimals(ctx context.Context, network hedera.Network, tokenID string) (int, error) {
	info, err := hedera.NewMirrorClient(network.MirrorNodeURL).TokenInfo(ctx, tokenID)
	if err != nil {
		return 0, fmt.Errorf("token %s is not registered and its decimals could not be looked up (pass --decimals): %w", tokenID, err)
	}
	return info.Decimals, nil
}

func init() {
	tokenAddCmd.Flags().StringVar(&tokenKindFlag, "kind", "fungible", "fungible|nft")
	tokenAddCmd.Flags().IntVar(&tokenDecimals, "decimals", 0, "token decimals (fungible only)")
	tokenAddCmd.Flags().BoolVar(&tokenLookup, "lookup", false, "read kind and decimals from the mirror node")

	tokenAssociateCmd.Flags().BoolVar(&tokenTx.dryRun, "dry-run", false, "sign but do not broadcast")
	tokenAssociateCmd.Flags().BoolVar(&tokenTx.noWait, "no-wait", false, "do not wait for the receipt")

	tokenTransferCmd.Flags().StringVar(&tokenTo, "to", "", "recipient account ID or EVM address (required)")
	tokenTransferCmd.Flags().StringVar(&tokenAmount, "amount", "", "amount in display units (required)")
	tokenTransferCmd.Flags().IntVar(&tokenDecimals, "decimals", 0, "override token decimals")
	tokenTransferCmd.Flags().BoolVar(&tokenTransferTx.dryRun, "dry-run", false, "sign but do not broadcast")
	tokenTransferCmd.Flags().BoolVar(&tokenTransferTx.noWait, "no-wait", false, "do not wait for the receipt")

	tokenTransferNFTCmd.Flags().StringVar(&tokenTo, "to", "", "recipient account ID or EVM address (required)")
	tokenTransferNFTCmd.Flags().Int64Var(&tokenSerial, "serial", 0, "NFT serial number (required)")
	tokenTransferNFTCmd.Flags().BoolVar(&tokenNFTTx.dryRun, "dry-run", false, "sign but do not broadcast")
	tokenTransferNFTCmd.Flags().BoolVar(&tokenNFTTx.noWait, "no-wait", false, "do not wait for the receipt")

	tokenCmd.AddCommand(tokenAddCmd, tokenListCmd, tokenRemoveCmd, tokenInfoCmd,
		tokenAssociateCmd, tokenTransferCmd, tokenTransferNFTCmd)
}
