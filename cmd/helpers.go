package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/99designs/keyring"
	"github.com/Mohsinsiddi/invoicex/internal/bridge"
	"github.com/Mohsinsiddi/invoicex/internal/chain"
	"github.com/Mohsinsiddi/invoicex/internal/config"
	"github.com/Mohsinsiddi/invoicex/internal/contract"
	"github.com/Mohsinsiddi/invoicex/internal/hedera"
	"github.com/Mohsinsiddi/invoicex/internal/params"
	"github.com/Mohsinsiddi/invoicex/internal/ui"
	"github.com/Mohsinsiddi/invoicex/internal/wallet"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// envKeyringPassword unlocks the file keyring without a terminal prompt.
const envKeyringPassword = config.EnvPrefix + "_KEYRING_PASSWORD"

// parseParamSpec parses a --param flag of the form "type:name:value". The
// value may itself contain colons. Address values may be given as entity IDs.
func parseParamSpec(spec string) (params.Param, error) {
	parts := strings.SplitN(spec, ":", 3)
	if len(parts) != 3 || strings.TrimSpace(parts[0]) == "" {
		return params.Param{}, fmt.Errorf("invalid --param %q — expected type:name:value", spec)
	}
	p := params.Param{
		Type:  strings.TrimSpace(parts[0]),
		Name:  strings.TrimSpace(parts[1]),
		Value: parts[2],
	}
	if p.Type == "address" {
		if id, err := hedera.ParseEntityID(parts[2]); err == nil {
			p.Value = id.EVMAddress()
		}
	}
	return p, nil
}

// buildParams fills a builder from --param flags in the order given.
func buildParams(specs []string) (*params.Builder, error) {
	b := params.New()
	for _, spec := range specs {
		p, err := parseParamSpec(spec)
		if err != nil {
			return nil, err
		}
		b.Add(p)
	}
	return b, nil
}

// activeNetwork resolves --network against the config.
func activeNetwork() (hedera.Network, error) {
	n, err := cfg.ResolveNetwork(networkFlag)
	if err != nil {
		names := lo.Map(hedera.Networks(), func(n hedera.Network, _ int) string { return n.Name })
		return hedera.Network{}, fmt.Errorf("%w — choose one of %s", err, strings.Join(names, ", "))
	}
	return n, nil
}

// openKeystore opens the keyring configured for this config dir.
func openKeystore() (*wallet.Keystore, error) {
	ksCfg := wallet.KeystoreConfig{
		FileDir:  cfg.KeyringDir(),
		FileOnly: cfg.FileKeyringOnly(),
	}
	if pw := os.Getenv(envKeyringPassword); pw != "" {
		ksCfg.Password = keyring.FixedStringPrompt(pw)
	}
	return wallet.OpenKeystore(ksCfg)
}

// newWalletManager creates a Manager backed by the config-dir JSON store and
// the keyring.
func newWalletManager() (*wallet.Manager, error) {
	ks, err := openKeystore()
	if err != nil {
		return nil, err
	}
	return wallet.NewManager(
		wallet.WithStore(wallet.NewJSONStore(cfg.WalletsPath())),
		wallet.WithKeystore(ks),
	), nil
}

// walletName returns --wallet, falling back to the configured default.
func walletName() string {
	if walletFlag != "" {
		return walletFlag
	}
	return cfg.DefaultWallet
}

// loadSigner returns the signer for --wallet (or the default wallet) and
// verifies it can sign.
func loadSigner() (*wallet.Signer, error) {
	mgr, err := newWalletManager()
	if err != nil {
		return nil, err
	}
	s, err := mgr.Signer(walletName())
	if errors.Is(err, wallet.ErrWalletNotFound) {
		return nil, fmt.Errorf("%w\n  Run `invoicex wallet list` or set a default with `invoicex wallet use <name>`", err)
	}
	if err != nil {
		return nil, err
	}
	if !s.Wallet().CanSign() {
		return nil, fmt.Errorf("wallet %q is watch-only and cannot sign transactions\n  To add a signing wallet: invoicex wallet add <name> --key <private-key>", s.Wallet().Name)
	}
	return s, nil
}

// txOptions are the per-command submission flags.
type txOptions struct {
	dryRun bool
	noWait bool
}

// newBridge wires the relay client, mirror node, signer and logger together
// and checks the relay serves the selected network.
func newBridge(ctx context.Context, opts txOptions) (*bridge.Bridge, error) {
	network, err := activeNetwork()
	if err != nil {
		return nil, err
	}
	signer, err := loadSigner()
	if err != nil {
		return nil, err
	}

	bopts := []bridge.Option{
		bridge.WithLogger(logger.With(zap.String("network", network.Name))),
		bridge.WithDryRun(opts.dryRun),
	}
	if network.MirrorNodeURL != "" {
		bopts = append(bopts, bridge.WithResolver(hedera.NewMirrorClient(network.MirrorNodeURL)))
	}
	if cfg.WaitForReceipt && !opts.noWait {
		bopts = append(bopts, bridge.WithReceiptWait(config.TxConfirmTimeout))
	}

	b := bridge.New(chain.NewEVMClient(network.RelayURL), signer, network, bopts...)

	checkCtx, cancel := context.WithTimeout(ctx, config.RelayCheckTimeout)
	defer cancel()
	if err := b.EnsureNetwork(checkCtx); err != nil {
		return nil, err
	}
	return b, nil
}

// tokenRegistry loads the token registry from the config dir.
func tokenRegistry() (*contract.Registry, error) {
	reg := contract.NewRegistry(cfg.TokensPath())
	if err := reg.Load(); err != nil {
		return nil, err
	}
	return reg, nil
}

// confirm asks unless --yes was given.
func confirm(prompt string) bool {
	if assumeYes {
		return true
	}
	return ui.Confirm(prompt)
}

// submitWithSpinner runs fn behind a spinner and prints its result.
func submitWithSpinner(msg string, network hedera.Network, fn func() (*bridge.TxResult, error)) error {
	spin := ui.NewSpinner(msg)
	spin.Start()
	res, err := fn()
	spin.Stop()

	if res != nil {
		fmt.Println(txResultBlock(res, network))
	}
	if err != nil {
		return err
	}
	switch {
	case res.DryRun:
		fmt.Println(ui.Info("Dry run — transaction signed but not broadcast."))
	case res.Receipt != nil:
		fmt.Println(ui.Success("Transaction confirmed!"))
	default:
		fmt.Println(ui.Success("Transaction sent!"))
	}
	if url := network.TxURL(res.Hash.Hex()); url != "" && !res.DryRun {
		fmt.Println(ui.Meta(url))
	}
	return nil
}

// txResultBlock renders a submitted transaction.
func txResultBlock(res *bridge.TxResult, network hedera.Network) string {
	pairs := [][2]string{
		{"Network", ui.NetworkName(network.Name)},
		{"From", ui.Addr(res.From.Hex())},
		{"To", ui.Addr(res.To.Hex())},
	}
	if id, err := hedera.EntityIDFromSolidityAddress(res.To.Hex()); err == nil && hedera.IsLongZero(res.To) {
		pairs = append(pairs, [2]string{"Entity", ui.Addr(id.String())})
	}
	if res.Value != nil && res.Value.Sign() > 0 {
		pairs = append(pairs, [2]string{"Value", hedera.WeibarToHbar(res.Value) + " " + network.CurrencySymbol})
	}
	if len(res.Data) > 0 {
		pairs = append(pairs, [2]string{"Selector", hexutil.Encode(res.Data[:min(4, len(res.Data))])})
	}
	pairs = append(pairs,
		[2]string{"Nonce", fmt.Sprintf("%d", res.Nonce)},
		[2]string{"Gas Limit", fmt.Sprintf("%d", res.GasLimit)},
		[2]string{"Hash", ui.Addr(res.Hash.Hex())},
	)
	if res.DryRun {
		pairs = append(pairs, [2]string{"Raw Tx", res.RawTx})
	}
	if r := res.Receipt; r != nil {
		status := ui.Success("success")
		if r.Status == 0 {
			status = ui.Err("reverted")
		}
		pairs = append(pairs,
			[2]string{"Status", status},
			[2]string{"Block", fmt.Sprintf("%d", r.BlockNumber)},
			[2]string{"Gas Used", fmt.Sprintf("%d", r.GasUsed)},
		)
	}
	return ui.KeyValueBlock("Transaction", pairs)
}

// errorLine formats a top-level error, with a hint for common failures.
func errorLine(err error) string {
	line := ui.Err(err.Error())
	switch {
	case chain.IsUserRejected(err):
		line += "\n" + ui.Hint("The request was rejected by the signer.")
	case errors.Is(err, bridge.ErrWrongNetwork):
		line += "\n" + ui.Hint("Check --network or INVOICEX_RELAY_URL.")
	case errors.Is(err, params.ErrUnsupportedType):
		line += "\n" + ui.Hint("Run `invoicex params types` for the supported type tags.")
	}
	return line
}
