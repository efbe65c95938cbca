package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/zamaforge/zforge/internal/service/transaction"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var (
	faucetCmd = &cobra.Command{
		Use:   "faucet",
		Short: "Claim ZamaForge test tokens",
	}

	faucetInfoCmd = &cobra.Command{
		Use:   "info",
		Short: "Show the claim fee and amount",
		Args:  cobra.NoArgs,
		RunE:  runFaucetInfo,
	}

	faucetClaimCmd = &cobra.Command{
		Use:   "claim",
		Short: "Pay the claim fee and receive confidential test tokens",
		Args:  cobra.NoArgs,
		RunE:  runFaucetClaim,
	}
)

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(faucetCmd)
	faucetCmd.AddCommand(faucetInfoCmd, faucetClaimCmd)
}

type faucetView struct {
	Airdrop string `json:"airdrop"`
	Token   string `json:"token"`
	Fee     string `json:"fee_eth"`
	Amount  string `json:"claim_amount"`
}

func (v faucetView) RenderText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "Airdrop:  %s\nToken:    %s\nFee:      %s ETH\nAmount:   %s cZAMA\n",
		v.Airdrop, v.Token, v.Fee, v.Amount)
	return err
}

func runFaucetInfo(cmd *cobra.Command, _ []string) error {
	a, err := newApp(appOptions{})
	if err != nil {
		return err
	}
	defer a.close()

	info, err := a.tokenSvc.FaucetInfo(cmd.Context())
	if err != nil {
		return err
	}
	return formatter.Print(faucetView{
		Airdrop: info.Airdrop.Hex(),
		Token:   info.Token.Hex(),
		Fee:     info.FormattedFee(),
		Amount:  info.FormattedAmount(),
	})
}

func runFaucetClaim(cmd *cobra.Command, _ []string) error {
	a, err := newApp(appOptions{Unlock: true})
	if err != nil {
		return err
	}
	defer a.close()

	defer reportProgress(a.txs.Tracker(transaction.KindClaim))()
	res, err := a.txs.ClaimFaucet(cmd.Context())
	if err != nil {
		return err
	}

	// the claimed amount is encrypted; any revealed value is stale now
	a.balances.Invalidate(a.contracts.forgeToken)

	messenger.Success("Claim submitted; run 'zforge balance decrypt cZAMA' once it is confirmed")
	// Amount carries the fee paid, in wei.
	return formatter.Print(newTxView(res, 18, "ETH"))
}
