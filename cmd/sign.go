package cmd

import (
	"fmt"

	"github.com/Mohsinsiddi/invoicex/internal/ui"
	"github.com/Mohsinsiddi/invoicex/internal/wallet"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
)

var (
	verifySig     string
	verifyAddress string
)

var signCmd = &cobra.Command{
	Use:   "sign <message>",
	Short: "Sign a message with EIP-191 (personal_sign)",
	Long: `Sign a plaintext message using EIP-191 personal_sign, e.g. to attest
an invoice hash off-chain.

Examples:
  invoicex sign "invoice INV-0042 sha256:9f86d0..."
  invoicex sign "login nonce: 12345" --wallet treasury`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		message := args[0]

		s, err := loadSigner()
		if err != nil {
			return err
		}
		sig, err := s.SignMessage([]byte(message))
		if err != nil {
			return fmt.Errorf("signing failed: %w", err)
		}

		sigHex := hexutil.Encode(sig)
		addr := s.Address().Hex()
		fmt.Println(ui.KeyValueBlock("Message Signed", [][2]string{
			{"Signer", ui.Addr(addr)},
			{"Message", message},
			{"Signature", sigHex},
		}))
		fmt.Println(ui.Hint("Verify: invoicex verify \"" + message + "\" --sig " + sigHex + " --address " + addr))
		return nil
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify <message>",
	Short: "Verify an EIP-191 signed message",
	Long: `Recover the signer of an EIP-191 message and optionally compare it to
an expected EVM address or account ID.

Examples:
  invoicex verify "hello" --sig 0x... --address 0.0.1234
  invoicex verify "hello" --sig 0x...`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		message := args[0]
		if verifySig == "" {
			return fmt.Errorf("--sig is required — provide the hex signature")
		}
		sig, err := hexutil.Decode(verifySig)
		if err != nil {
			return fmt.Errorf("invalid signature hex: %w", err)
		}

		recovered, err := wallet.VerifyMessage([]byte(message), sig)
		if err != nil {
			return fmt.Errorf("verification failed: %w", err)
		}

		pairs := [][2]string{
			{"Message", message},
			{"Recovered Signer", ui.Addr(recovered.Hex())},
		}
		if verifyAddress != "" {
			network, err := activeNetwork()
			if err != nil {
				return err
			}
			expected, err := resolveAccount(cmd.Context(), network, verifyAddress)
			if err != nil {
				return err
			}
			if expected == recovered {
				pairs = append(pairs, [2]string{"Match", ui.Success("signature is valid — signer matches")})
			} else {
				pairs = append(pairs,
					[2]string{"Expected", ui.Addr(expected.Hex())},
					[2]string{"Match", ui.Err("signature does NOT match expected address")},
				)
			}
		}

		fmt.Println(ui.KeyValueBlock("Signature Verification", pairs))
		return nil
	},
}

func init() {
	verifyCmd.Flags().StringVar(&verifySig, "sig", "", "hex signature to verify (required)")
	verifyCmd.Flags().StringVar(&verifyAddress, "address", "", "expected signer EVM address or account ID")
}
