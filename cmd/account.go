package cmd

import (
	"fmt"

	"github.com/Mohsinsiddi/invoicex/internal/hedera"
	"github.com/Mohsinsiddi/invoicex/internal/ui"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

var (
	accountMirror   bool
	accountContract bool
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Convert between Hedera entity IDs and EVM addresses",
}

var accountAddressCmd = &cobra.Command{
	Use:   "address <entity-id|address>",
	Short: "Show the EVM address of an entity ID, or the entity ID of a long-zero address",
	Long: `Convert an entity ID to its long-zero EVM address, with its checksum on the
active network. A long-zero address is converted back to its entity ID.

With --mirror the mirror node is asked for the account's ECDSA alias (or the
contract's EVM address with --contract).

Examples:
  invoicex account address 0.0.1234
  invoicex account address 0.0.1234 --mirror
  invoicex account address 0x00000000000000000000000000000000000004d2`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		network, err := activeNetwork()
		if err != nil {
			return err
		}
		ref := args[0]

		if common.IsHexAddress(ref) {
			addr := common.HexToAddress(ref)
			if !hedera.IsLongZero(addr) {
				fmt.Println(ui.KeyValueBlock("Account", [][2]string{
					{"EVM Address", ui.Addr(addr.Hex())},
					{"Kind", "ECDSA alias (no entity ID encoded)"},
				}))
				return nil
			}
			id, err := hedera.EntityIDFromSolidityAddress(addr.Hex())
			if err != nil {
				return err
			}
			fmt.Println(ui.KeyValueBlock("Account", [][2]string{
				{"EVM Address", ui.Addr(addr.Hex())},
				{"Entity ID", ui.Addr(id.String())},
				{"Checksummed", id.StringWithChecksum(network)},
				{"Network", ui.NetworkName(network.Name)},
			}))
			return nil
		}

		id, err := hedera.ParseEntityID(ref)
		if err != nil {
			return err
		}
		if err := id.VerifyChecksum(network); err != nil {
			return err
		}
		pairs := [][2]string{
			{"Entity ID", ui.Addr(id.String())},
			{"Checksummed", id.StringWithChecksum(network)},
			{"Long-Zero", ui.Addr("0x" + id.ToSolidityAddress())},
			{"Network", ui.NetworkName(network.Name)},
		}

		if accountMirror {
			mirror := hedera.NewMirrorClient(network.MirrorNodeURL)
			var addr common.Address
			if accountContract {
				addr, err = mirror.ContractEVMAddress(cmd.Context(), id.String())
			} else {
				addr, err = mirror.AccountEVMAddress(cmd.Context(), id.String())
			}
			if err != nil {
				return err
			}
			pairs = append(pairs, [2]string{"EVM Address", ui.Addr(addr.Hex())})
		}

		fmt.Println(ui.KeyValueBlock("Account", pairs))
		return nil
	},
}

func init() {
	accountAddressCmd.Flags().BoolVar(&accountMirror, "mirror", false, "look up the EVM address on the mirror node")
	accountAddressCmd.Flags().BoolVar(&accountContract, "contract", false, "treat the entity as a contract (with --mirror)")

	accountCmd.AddCommand(accountAddressCmd)
}
