package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/Mohsinsiddi/invoicex/internal/chain"
	"github.com/Mohsinsiddi/invoicex/internal/config"
	"github.com/Mohsinsiddi/invoicex/internal/hedera"
	"github.com/Mohsinsiddi/invoicex/internal/ui"
	"github.com/spf13/cobra"
)

var networkPing bool

var networkCmd = &cobra.Command{
	Use:   "network",
	Short: "Manage the Hedera network",
}

var networkListCmd = &cobra.Command{
	Use:   "list",
	Short: "List supported Hedera networks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		t := ui.NewTable([]ui.Column{
			{Title: "Name", Width: 11},
			{Title: "Chain ID", Width: 9},
			{Title: "Relay", Width: 34},
			{Title: "Mirror Node", Width: 40},
			{Title: "Active", Width: 6},
		})
		networks := hedera.Networks()
		for _, n := range networks {
			active := ""
			if n.Name == cfg.Network {
				active = ui.StyleSuccess.Render("✓")
			}
			t.AddRow(ui.Row{
				ui.NetworkName(n.Name),
				n.ChainIDHex(),
				n.RelayURL,
				n.MirrorNodeURL,
				active,
			})
		}
		fmt.Println(t.Render())
		fmt.Println(ui.Meta(fmt.Sprintf("%d networks", len(networks))))
		return nil
	},
}

var networkShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the active network and its endpoints",
	Long: `Show the network commands run against, including endpoint overrides.

With --ping the relay is queried for its chain ID and latest block.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		network, err := activeNetwork()
		if err != nil {
			return err
		}
		pairs := [][2]string{
			{"Network", ui.NetworkName(network.Name)},
			{"Chain ID", fmt.Sprintf("%s (%s)", network.ChainIDHex(), network.ChainID)},
			{"Relay", network.RelayURL},
			{"Mirror Node", network.MirrorNodeURL},
			{"Explorer", network.ExplorerURL},
		}

		if networkPing {
			ctx, cancel := context.WithTimeout(cmd.Context(), config.RelayCheckTimeout)
			defer cancel()
			client := chain.NewEVMClient(network.RelayURL)
			latency, block, err := client.Ping(ctx)
			if err != nil {
				pairs = append(pairs, [2]string{"Relay Status", ui.Err(err.Error())})
			} else {
				pairs = append(pairs,
					[2]string{"Latency", latency.Round(time.Millisecond).String()},
					[2]string{"Block", fmt.Sprintf("%d", block)},
				)
				if id, err := client.ChainID(ctx); err == nil && id.Cmp(network.ChainID) != 0 {
					pairs = append(pairs, [2]string{"Relay Chain ID", ui.Warn("0x" + id.Text(16) + " does not match")})
				}
			}
		}

		fmt.Println(ui.KeyValueBlock("Network", pairs))
		return nil
	},
}

var networkUseCmd = &cobra.Command{
	Use:   "use <network>",
	Short: "Set the default network",
	Long: `Set the default network and persist it to config. Relay and mirror
node overrides belong to the previous network and are cleared.

Examples:
  invoicex network use testnet
  invoicex network use mainnet`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.SetNetwork(args[0]); err != nil {
			return fmt.Errorf("%w — run `invoicex network list` to see all networks", err)
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success("Default network set to " + ui.NetworkName(cfg.Network)))
		return nil
	},
}

func init() {
	networkShowCmd.Flags().BoolVar(&networkPing, "ping", false, "query the relay for liveness")

	networkCmd.AddCommand(networkListCmd, networkShowCmd, networkUseCmd)
}
