package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/zamaforge/zforge/internal/output"
	"github.com/zamaforge/zforge/internal/service/balance"
	"github.com/zamaforge/zforge/internal/tokenstore"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var (
	balanceCmd = &cobra.Command{
		Use:   "balance",
		Short: "Show and decrypt balances",
	}

	balanceShowCmd = &cobra.Command{
		Use:   "show [token]",
		Short: "Show balances of tracked tokens",
		Long: `Show balances of every tracked token, or of one. Confidential balances
are shown as "encrypted" until they are decrypted with 'balance decrypt'.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runBalanceShow,
	}

	balanceDecryptCmd = &cobra.Command{
		Use:   "decrypt <token>",
		Short: "Decrypt a confidential balance",
		Long: `Decrypt a confidential balance through the relayer. The wallet signs a
time-limited authorization; the revealed value is remembered locally.`,
		Example: `  zforge balance decrypt cZAMA`,
		Args:    cobra.ExactArgs(1),
		RunE:    runBalanceDecrypt,
	}
)

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(balanceCmd)
	balanceCmd.AddCommand(balanceShowCmd, balanceDecryptCmd)
}

type balanceRow struct {
	Symbol    string `json:"symbol"`
	Token     string `json:"token"`
	Encrypted bool   `json:"encrypted"`
	Balance   string `json:"balance"`
	Handle    string `json:"handle,omitempty"`
	Error     string `json:"error,omitempty"`
}

type balanceView struct {
	Owner    string       `json:"owner"`
	Balances []balanceRow `json:"balances"`
}

func (v balanceView) RenderText(w io.Writer) error {
	t := output.NewTable("SYMBOL", "BALANCE", "TYPE", "TOKEN")
	t.AlignRight(1)
	for _, b := range v.Balances {
		typ := string(tokenstore.TypeERC20)
		if b.Encrypted {
			typ = string(tokenstore.TypeEncrypted)
		}
		bal := b.Balance
		if b.Error != "" {
			bal = "error"
		}
		t.AddRow(b.Symbol, bal, typ, b.Token)
	}
	return t.Render(w)
}

func newBalanceRow(v *balance.View) balanceRow {
	row := balanceRow{
		Symbol:    v.Symbol,
		Token:     v.Token.Hex(),
		Encrypted: v.Encrypted,
		Balance:   v.Display(),
		Handle:    v.Handle,
	}
	if v.DecryptErr != nil {
		row.Error = v.DecryptErr.Error()
	}
	return row
}

func runBalanceShow(cmd *cobra.Command, args []string) error {
	a, err := newApp(appOptions{RequireWallet: true})
	if err != nil {
		return err
	}
	defer a.close()

	tokens, err := a.requireTokens()
	if err != nil {
		return err
	}

	list := tokens.List()
	if len(args) == 1 {
		tok, findErr := tokens.Find(args[0])
		if findErr != nil {
			return findErr
		}
		list = []tokenstore.Token{tok}
	}

	view := balanceView{Owner: a.owner.Hex()}
	for _, tok := range list {
		row, refreshErr := a.refreshRow(cmd.Context(), tok)
		if refreshErr != nil {
			if len(list) == 1 {
				return refreshErr
			}
			logger.Error("refreshing %s: %v", tok.Symbol, refreshErr)
			row = balanceRow{Symbol: tok.Symbol, Token: tok.Contract.Hex(), Encrypted: tok.IsBalanceEncrypted, Error: refreshErr.Error()}
		}
		view.Balances = append(view.Balances, row)
	}
	return formatter.Print(view)
}

// refreshRow reads one balance and mirrors it into the token list.
func (a *app) refreshRow(ctx context.Context, tok tokenstore.Token) (balanceRow, error) {
	v, err := a.balances.Refresh(ctx, balance.Request{Token: tok.Contract, Owner: a.owner, Encrypted: tok.IsBalanceEncrypted})
	if err != nil {
		return balanceRow{}, err
	}
	if !v.Encrypted {
		display := v.Display()
		if _, err := a.tokens.Update(tok.ID, func(t *tokenstore.Token) { t.Balance = display }); err != nil {
			logger.Error("saving balance of %s: %v", tok.Symbol, err)
		}
	}
	return newBalanceRow(v), nil
}

func runBalanceDecrypt(cmd *cobra.Command, args []string) error {
	a, err := newApp(appOptions{Unlock: true})
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()
	tok, err := a.prepareToken(ctx, args[0], true)
	if err != nil {
		return err
	}

	messenger.Step("Requesting decryption...")
	v, err := a.balances.Decrypt(ctx, tok.Contract)
	if err != nil {
		return err
	}
	if v.DecryptErr != nil {
		messenger.Warn("Decryption failed: %v", v.DecryptErr)
	} else if v.Encrypted {
		messenger.Success("Balance decrypted")
	}
	return formatter.Print(balanceView{Owner: a.owner.Hex(), Balances: []balanceRow{newBalanceRow(v)}})
}
