package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/Mohsinsiddi/invoicex/internal/contract"
	"github.com/Mohsinsiddi/invoicex/internal/params"
	"github.com/Mohsinsiddi/invoicex/internal/ui"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
)

var (
	paramSpecs     []string
	paramsFormat   string
	paramsFunction string
)

var paramsCmd = &cobra.Command{
	Use:   "params",
	Short: "Describe contract-call arguments and render them",
}

var paramsRenderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render --param arguments for both submission paths",
	Long: `Render a list of contract-call arguments the way each submission path sees them.

  signature   "<type> <name>" pairs joined by ", " (wrapped into a declaration with --function)
  values      the positional argument strings, as JSON
  structured  the typed ABI types and encoding (calldata with --function)

Arguments are given in call order as --param type:name:value. Array values are
comma-separated; structured array tags end in "Array" (uint256Array).

Examples:
  invoicex params render --param address:recipient:0.0.1234 --param uint256:amount:1000
  invoicex params render --function transfer --format structured \
    --param address:recipient:0x000000000000000000000000000000000000138d \
    --param uint256:amount:1000`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := buildParams(paramSpecs)
		if err != nil {
			return err
		}
		return renderParams(cmd.OutOrStdout(), b, paramsFunction, paramsFormat)
	},
}

var paramsTypesCmd = &cobra.Command{
	Use:   "types",
	Short: "List the type tags the structured path supports",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		tags := params.SupportedTypes()
		fmt.Fprintln(out, strings.Join(tags, "\n"))
		fmt.Fprintln(out, ui.Meta(fmt.Sprintf("%d type tags", len(tags))))
		return nil
	},
}

// renderParams prints the requested projections of b.
func renderParams(out io.Writer, b *params.Builder, function, format string) error {
	want := func(f string) bool { return format == "all" || format == f }
	switch format {
	case "all", "signature", "values", "structured":
	default:
		return fmt.Errorf("unknown --format %q — use signature, values, structured or all", format)
	}

	if want("signature") {
		fragment := b.SignatureFragment()
		if function != "" {
			decl := contract.FunctionDeclaration(function, fragment)
			entry, err := contract.ParseSignature(decl)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, ui.KeyValueBlock("Signature", [][2]string{
				{"Declaration", decl},
				{"Canonical", entry.Signature()},
			}))
		} else {
			fmt.Fprintln(out, ui.KeyValueBlock("Signature", [][2]string{{"Fragment", fragment}}))
		}
	}

	if want("values") {
		data, err := json.Marshal(b.PositionalValues())
		if err != nil {
			return err
		}
		pairs := [][2]string{{"Values", string(data)}}
		if function != "" {
			entry, err := contract.ParseSignature(contract.FunctionDeclaration(function, b.SignatureFragment()))
			if err != nil {
				return err
			}
			hexStr, _, err := contract.EncodeCalldata(entry, b.PositionalValues())
			if err != nil {
				return err
			}
			pairs = append(pairs, [2]string{"Calldata", hexStr})
		}
		fmt.Fprintln(out, ui.KeyValueBlock("Positional", pairs))
	}

	if want("structured") {
		fp, err := b.Structured()
		if err != nil {
			return err
		}
		encoded, err := fp.Encode()
		if err != nil {
			return err
		}
		pairs := [][2]string{
			{"Types", "(" + strings.Join(fp.Types(), ",") + ")"},
			{"Encoded", hexutil.Encode(encoded)},
		}
		if function != "" {
			calldata, err := fp.Calldata(function)
			if err != nil {
				return err
			}
			pairs = append(pairs, [2]string{"Calldata", hexutil.Encode(calldata)})
		}
		fmt.Fprintln(out, ui.KeyValueBlock("Structured", pairs))
	}
	return nil
}

func init() {
	paramsRenderCmd.Flags().StringArrayVarP(&paramSpecs, "param", "p", nil, "argument as type:name:value (repeatable, in call order)")
	paramsRenderCmd.Flags().StringVarP(&paramsFormat, "format", "f", "all", "signature|values|structured|all")
	paramsRenderCmd.Flags().StringVar(&paramsFunction, "function", "", "function name to build a declaration and calldata for")
	paramsCmd.AddCommand(paramsRenderCmd, paramsTypesCmd)
}
