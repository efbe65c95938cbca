package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/zamaforge/zforge/internal/chain"
	"github.com/zamaforge/zforge/internal/service/balance"
	"github.com/zamaforge/zforge/internal/service/transaction"
	"github.com/zamaforge/zforge/internal/tokenstore"
	zferr "github.com/zamaforge/zforge/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var (
	transferCmd = &cobra.Command{
		Use:   "transfer <token> <to> <amount>",
		Short: "Send tokens",
		Long: `Send tokens to another address. With --confidential the amount is
encrypted locally and sent through confidentialTransfer, so it never
appears on chain in the clear.`,
		Example: `  zforge transfer USDC 0xRecipient 25
  zforge transfer cZAMA 0xRecipient 1.5 --confidential`,
		Args: cobra.ExactArgs(3),
		RunE: runTransfer,
	}

	wrapCmd = &cobra.Command{
		Use:   "wrap <token> <amount>",
		Short: "Convert plain tokens into their confidential counterpart",
		Long: `Wrap an ERC-20 through the factory. When the factory's allowance is
too low, an approval is sent first; run wrap again once it is mined.`,
		Args: cobra.ExactArgs(2),
		RunE: runWrap,
	}

	unwrapCmd = &cobra.Command{
		Use:   "unwrap <token> <amount>",
		Short: "Convert confidential tokens back to plain",
		Args:  cobra.ExactArgs(2),
		RunE:  runUnwrap,
	}

	transferConfidential bool
)

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(transferCmd, wrapCmd, unwrapCmd)
	transferCmd.Flags().BoolVar(&transferConfidential, "confidential", false, "encrypt the amount and use confidentialTransfer")
}

// txView is the printable result of one orchestrator.
type txView struct {
	Kind          string `json:"kind"`
	TxHash        string `json:"tx_hash"`
	From          string `json:"from"`
	To            string `json:"to"`
	Amount        string `json:"amount"`
	Symbol        string `json:"symbol,omitempty"`
	NeedsApproval bool   `json:"needs_approval,omitempty"`
	Status        string `json:"status"`
	BlockNumber   uint64 `json:"block_number,omitempty"`
}

func (v txView) RenderText(w io.Writer) error {
	amount := v.Amount
	if v.Symbol != "" {
		amount += " " + v.Symbol
	}
	_, err := fmt.Fprintf(w, "Kind:    %s\nTx:      %s\nFrom:    %s\nTo:      %s\nAmount:  %s\nStatus:  %s\n",
		v.Kind, v.TxHash, v.From, v.To, amount, v.Status)
	if err == nil && v.NeedsApproval {
		_, err = fmt.Fprintln(w, "Approval submitted; run the command again once it is confirmed.")
	}
	return err
}

func newTxView(res *transaction.Result, decimals uint8, symbol string) txView {
	v := txView{
		Kind:          string(res.Kind),
		TxHash:        res.TxHash.Hex(),
		From:          res.From.Hex(),
		To:            res.To.Hex(),
		Symbol:        symbol,
		NeedsApproval: res.NeedsApproval,
		Status:        "submitted",
	}
	if res.Amount != nil {
		v.Amount = chain.FormatDecimalAmount(res.Amount, decimals)
	}
	if res.Receipt != nil {
		v.Status = "confirmed"
		v.BlockNumber = res.Receipt.BlockNumber
	}
	return v
}

// reportProgress forwards orchestrator phases to the messenger.
func reportProgress(t *transaction.Tracker) func() {
	return t.Subscribe(func(s transaction.State) {
		if line := progressLine(s); line != "" {
			messenger.Step("%s", line)
		} else if s.Failed() {
			logger.Error("%v", s.Err)
		}
	})
}

func progressLine(s transaction.State) string {
	switch {
	case s.IsEncrypting():
		return "Encrypting amount..."
	case s.IsSubmitting():
		return "Submitting transaction..."
	case s.IsConfirming():
		return "Waiting for confirmation..."
	default:
		return ""
	}
}

// prepareToken resolves query and loads its balance so local checks can run.
// encrypted only applies to raw addresses that are not in the token list.
func (a *app) prepareToken(ctx context.Context, query string, encrypted bool) (tokenstore.Token, error) {
	tok, err := a.lookupToken(query)
	if err == nil {
		encrypted = tok.IsBalanceEncrypted
	} else {
		addr, parseErr := chain.ParseAddress(query)
		if parseErr != nil {
			return tokenstore.Token{}, err
		}
		typ := tokenstore.TypeERC20
		if encrypted {
			typ = tokenstore.TypeEncrypted
		}
		tok = tokenstore.NewToken("", "", 0, typ, addr)
	}

	view, err := a.balances.Refresh(ctx, balance.Request{
		Token:     tok.Contract,
		Owner:     a.owner,
		Encrypted: encrypted,
	})
	if err != nil {
		return tokenstore.Token{}, err
	}
	tok.Decimals, tok.Symbol = view.Decimals, view.Symbol
	return tok, nil
}

func runTransfer(cmd *cobra.Command, args []string) error {
	to, err := chain.ParseAddress(args[1])
	if err != nil {
		return err
	}

	a, err := newApp(appOptions{Unlock: true})
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()
	tok, err := a.prepareToken(ctx, args[0], transferConfidential)
	if err != nil {
		return err
	}

	if tok.IsBalanceEncrypted != transferConfidential {
		hint := "Add --confidential to send a confidential token"
		if !tok.IsBalanceEncrypted {
			hint = "Drop --confidential to send a plain ERC-20 token"
		}
		return zferr.WithSuggestion(zferr.WithDetails(zferr.ErrInvalidInput, map[string]string{"token": args[0]}), hint)
	}

	req := &transaction.TransferRequest{Token: tok.Contract, To: to, Amount: args[2], Decimals: tok.Decimals}
	var res *transaction.Result
	if transferConfidential {
		defer reportProgress(a.txs.Tracker(transaction.KindConfidentialTransfer))()
		res, err = a.txs.ConfidentialTransfer(ctx, req)
	} else {
		defer reportProgress(a.txs.Tracker(transaction.KindPlainTransfer))()
		res, err = a.txs.PlainTransfer(ctx, req)
	}
	if err != nil {
		return err
	}

	messenger.Success("Transfer sent")
	return formatter.Print(newTxView(res, tok.Decimals, tok.Symbol))
}

func runWrap(cmd *cobra.Command, args []string) error {
	a, err := newApp(appOptions{Unlock: true})
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()
	tok, err := a.prepareToken(ctx, args[0], false)
	if err != nil {
		return err
	}
	if tok.IsBalanceEncrypted {
		return zferr.WithSuggestion(
			zferr.WithDetails(zferr.ErrInvalidInput, map[string]string{"token": tok.Symbol}),
			"Only plain ERC-20 tokens can be wrapped; use unwrap for confidential tokens",
		)
	}

	defer reportProgress(a.txs.Tracker(transaction.KindWrap))()
	res, err := a.txs.Wrap(ctx, &transaction.WrapRequest{Token: tok.Contract, Amount: args[1], Decimals: tok.Decimals})
	if err != nil {
		return err
	}

	if res.NeedsApproval {
		messenger.Warn("Factory allowance was too low; approval submitted")
	} else {
		messenger.Success("Wrap submitted")
		if counterpart, ok := a.settleWrap(ctx, tok.Contract); ok {
			messenger.Info("Confidential token: %s", counterpart.Hex())
		}
	}
	return formatter.Print(newTxView(res, tok.Decimals, tok.Symbol))
}

// settleWrap forgets the decrypted balance of the confidential counterpart
// of underlying, which the wrap has just credited.
func (a *app) settleWrap(ctx context.Context, underlying common.Address) (common.Address, bool) {
	counterpart, err := a.tokenSvc.ConfidentialCounterpart(ctx, underlying)
	if err != nil {
		logger.Debug("no confidential counterpart for %s: %v", underlying.Hex(), err)
		return common.Address{}, false
	}
	a.balances.Invalidate(counterpart)
	return counterpart, true
}

func runUnwrap(cmd *cobra.Command, args []string) error {
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
	if !tok.IsBalanceEncrypted {
		return zferr.WithSuggestion(
			zferr.WithDetails(zferr.ErrInvalidInput, map[string]string{"token": args[0]}),
			"Only confidential tokens can be unwrapped",
		)
	}

	defer reportProgress(a.txs.Tracker(transaction.KindUnwrap))()
	res, err := a.txs.Unwrap(ctx, &transaction.UnwrapRequest{Token: tok.Contract, Amount: args[1], Decimals: tok.Decimals})
	if err != nil {
		return err
	}

	messenger.Success("Unwrap submitted")
	return formatter.Print(newTxView(res, tok.Decimals, tok.Symbol))
}
