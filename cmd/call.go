package cmd

import (
	"context"
	"fmt"
	"math/big"

	"github.com/Mohsinsiddi/invoicex/internal/bridge"
	"github.com/Mohsinsiddi/invoicex/internal/chain"
	"github.com/Mohsinsiddi/invoicex/internal/contract"
	"github.com/Mohsinsiddi/invoicex/internal/hedera"
	"github.com/Mohsinsiddi/invoicex/internal/ui"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
)

var (
	callParams     []string
	callGas        int64
	callStructured bool
	callRead       bool
	callTx         txOptions
)

var callCmd = &cobra.Command{
	Use:   "call <contract> <function>",
	Short: "Call a marketplace contract function",
	Long: `Execute a contract function with arguments given as --param type:name:value.

By default the arguments are rendered into a declaration
"function <name>(<type> <name>, ...)" and encoded from their positional
values. With --structured they are encoded through the typed parameter
aggregate instead. Both produce the same calldata for supported types.

The contract may be an entity ID (0.0.5005) or an EVM address.

Examples:
  invoicex call 0.0.5005 buyShares --param uint256:invoiceId:42 --param uint256:shares:10
  invoicex call 0.0.5005 listInvoice --param string:ref:INV-001 --gas 300000 --dry-run
  invoicex call 0.0.5005 sharesOf --param address:holder:0.0.1234 --read`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		contractRef, function := args[0], args[1]
		b, err := buildParams(callParams)
		if err != nil {
			return err
		}

		if callRead {
			return readContract(cmd.Context(), contractRef, function, b.SignatureFragment(), b.PositionalValues())
		}

		network, err := activeNetwork()
		if err != nil {
			return err
		}
		gas := "estimate"
		if callGas != bridge.NoGasLimit {
			gas = fmt.Sprintf("%d", callGas)
		}
		fmt.Println(ui.KeyValueBlock("Contract Call", [][2]string{
			{"Contract", ui.Addr(contractRef)},
			{"Function", ui.Val(contract.FunctionDeclaration(function, b.SignatureFragment()))},
			{"Gas Limit", gas},
			{"Network", ui.NetworkName(network.Name)},
		}))
		if !callTx.dryRun && !confirm("Sign and broadcast this call?") {
			fmt.Println(ui.Meta("Cancelled."))
			return nil
		}

		br, err := newBridge(cmd.Context(), callTx)
		if err != nil {
			return err
		}
		return submitWithSpinner(fmt.Sprintf("Calling %s...", function), network, func() (*bridge.TxResult, error) {
			if callStructured {
				return br.ExecuteStructured(cmd.Context(), contractRef, function, b, callGas)
			}
			return br.ExecuteContractFunction(cmd.Context(), contractRef, function, b, callGas)
		})
	},
}

// readContract runs a read-only eth_call and prints the returned words.
func readContract(ctx context.Context, contractRef, function, fragment string, values []string) error {
	network, err := activeNetwork()
	if err != nil {
		return err
	}
	entry, err := contract.ParseSignature(contract.FunctionDeclaration(function, fragment))
	if err != nil {
		return err
	}
	_, data, err := contract.EncodeCalldata(entry, values)
	if err != nil {
		return err
	}
	to, err := hedera.ToEVMAddress(contractRef)
	if err != nil {
		return err
	}

	msg := chain.CallMsg{To: &to, Data: data}
	if s, err := loadSigner(); err == nil {
		msg.From = s.Address()
	}

	spin := ui.NewSpinner(fmt.Sprintf("Calling %s on %s...", function, network.Name))
	spin.Start()
	out, err := chain.NewEVMClient(network.RelayURL).CallContract(ctx, msg)
	spin.Stop()
	if err != nil {
		return fmt.Errorf("contract call failed: %w", err)
	}

	pairs := [][2]string{
		{"Contract", ui.Addr(contractRef)},
		{"Function", ui.Val(entry.Signature())},
		{"Result", hexutil.Encode(out)},
	}
	for i, w := range resultWords(out) {
		pairs = append(pairs, [2]string{fmt.Sprintf("Word[%d]", i), w})
	}
	fmt.Println(ui.KeyValueBlock("Contract Read", pairs))
	return nil
}

// resultWords splits ABI return data into 32-byte words shown as decimals.
// Words wide enough to be an ECDSA alias also show it as an address.
func resultWords(out []byte) []string {
	var words []string
	for i := 0; i+32 <= len(out); i += 32 {
		word := out[i : i+32]
		n := new(big.Int).SetBytes(word)
		s := n.String()
		if n.BitLen() > 96 && n.BitLen() <= 160 {
			s += "  " + ui.Meta(common.BytesToAddress(word).Hex())
		}
		words = append(words, s)
	}
	return words
}

func init() {
	callCmd.Flags().StringArrayVarP(&callParams, "param", "p", nil, "argument as type:name:value (repeatable, in call order)")
	callCmd.Flags().Int64Var(&callGas, "gas", bridge.NoGasLimit, "gas limit (-1 estimates)")
	callCmd.Flags().BoolVar(&callStructured, "structured", false, "encode through the typed parameter aggregate")
	callCmd.Flags().BoolVar(&callRead, "read", false, "run a read-only eth_call instead of a transaction")
	callCmd.Flags().BoolVar(&callTx.dryRun, "dry-run", false, "sign but do not broadcast")
	callCmd.Flags().BoolVar(&callTx.noWait, "no-wait", false, "do not wait for the receipt")
}
