package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/zamaforge/zforge/internal/chain"
	"github.com/zamaforge/zforge/internal/output"
	"github.com/zamaforge/zforge/internal/tokenstore"
	zferr "github.com/zamaforge/zforge/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var (
	tokenCmd = &cobra.Command{
		Use:   "token",
		Short: "Manage the token list",
		Long: `Manage the tokens shown for the current wallet. The list is stored per
wallet address; the ZamaForge faucet token is always present.`,
	}

	tokenListCmd = &cobra.Command{
		Use:   "list",
		Short: "List tracked tokens",
		Args:  cobra.NoArgs,
		RunE:  runTokenList,
	}

	tokenAddCmd = &cobra.Command{
		Use:   "add <address>",
		Short: "Add a token to the list",
		Long: `Add a token by contract address. Name, symbol and decimals are read
from the contract unless all three are given as flags.`,
		Example: `  zforge token add 0x1c7D4B196Cb0C7B01d743Fbc6116a902379C7238
  zforge token add 0xAbC... --type encrypted --name "Confidential USDC" --symbol cUSDC --decimals 6`,
		Args: cobra.ExactArgs(1),
		RunE: runTokenAdd,
	}

	tokenRemoveCmd = &cobra.Command{
		Use:     "remove <token>",
		Aliases: []string{"rm"},
		Short:   "Remove a token by address, id or symbol",
		Args:    cobra.ExactArgs(1),
		RunE:    runTokenRemove,
	}

	tokenClearCmd = &cobra.Command{
		Use:   "clear",
		Short: "Remove every user-added token",
		Args:  cobra.NoArgs,
		RunE:  runTokenClear,
	}

	tokenInfoCmd = &cobra.Command{
		Use:   "info <token>",
		Short: "Show on-chain token metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  runTokenInfo,
	}

	tokenType     string
	tokenName     string
	tokenSymbol   string
	tokenDecimals int
)

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.AddCommand(tokenListCmd, tokenAddCmd, tokenRemoveCmd, tokenClearCmd, tokenInfoCmd)

	tokenAddCmd.Flags().StringVar(&tokenType, "type", string(tokenstore.TypeERC20), "token type: erc20 or encrypted")
	tokenAddCmd.Flags().StringVar(&tokenName, "name", "", "token name")
	tokenAddCmd.Flags().StringVar(&tokenSymbol, "symbol", "", "token symbol")
	tokenAddCmd.Flags().IntVar(&tokenDecimals, "decimals", -1, "token decimals")
}

// tokenListView renders the token list as a table.
type tokenListView struct {
	Owner  string             `json:"owner"`
	Tokens []tokenstore.Token `json:"tokens"`
}

func (v tokenListView) RenderText(w io.Writer) error {
	if len(v.Tokens) == 0 {
		_, err := fmt.Fprintln(w, "No tokens.")
		return err
	}
	t := output.NewTable("SYMBOL", "NAME", "TYPE", "BALANCE", "ADDRESS")
	t.AlignRight(3)
	for _, tok := range v.Tokens {
		t.AddRow(tok.Symbol, tok.Name, string(tok.Type), tokenBalance(tok), tok.Contract.Hex())
	}
	return t.Render(w)
}

// tokenBalance is the display balance of a list entry.
func tokenBalance(t tokenstore.Token) string {
	if raw, ok := t.Decrypted(); ok {
		return chain.FormatDecimalAmount(raw, t.Decimals)
	}
	if t.IsBalanceEncrypted {
		return "encrypted"
	}
	if t.Balance == "" {
		return "0"
	}
	return t.Balance
}

type tokenView struct {
	Token tokenstore.Token `json:"token"`
}

func (v tokenView) RenderText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "%s (%s)\n  id:       %s\n  type:     %s\n  decimals: %d\n  address:  %s\n",
		v.Token.Name, v.Token.Symbol, v.Token.ID, v.Token.Type, v.Token.Decimals, v.Token.Contract.Hex())
	return err
}

type tokenInfoView struct {
	Address     string `json:"address"`
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	Decimals    uint8  `json:"decimals"`
	TotalSupply string `json:"total_supply"`
	Balance     string `json:"balance,omitempty"`
	Counterpart string `json:"confidential_counterpart,omitempty"`
}

func (v tokenInfoView) RenderText(w io.Writer) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%s)\n", v.Name, v.Symbol)
	fmt.Fprintf(&sb, "  address:      %s\n", v.Address)
	fmt.Fprintf(&sb, "  decimals:     %d\n", v.Decimals)
	fmt.Fprintf(&sb, "  total supply: %s\n", v.TotalSupply)
	if v.Balance != "" {
		fmt.Fprintf(&sb, "  balance:      %s\n", v.Balance)
	}
	if v.Counterpart != "" {
		fmt.Fprintf(&sb, "  confidential: %s\n", v.Counterpart)
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func runTokenList(_ *cobra.Command, _ []string) error {
	a, err := newApp(appOptions{RequireWallet: true})
	if err != nil {
		return err
	}
	defer a.close()

	tokens, err := a.requireTokens()
	if err != nil {
		return err
	}
	return formatter.Print(tokenListView{Owner: tokens.Owner().Hex(), Tokens: tokens.List()})
}

func runTokenAdd(cmd *cobra.Command, args []string) error {
	addr, err := chain.ParseAddress(args[0])
	if err != nil {
		return err
	}
	typ, err := tokenstore.ParseType(tokenType)
	if err != nil {
		return err
	}

	a, err := newApp(appOptions{RequireWallet: true})
	if err != nil {
		return err
	}
	defer a.close()

	tokens, err := a.requireTokens()
	if err != nil {
		return err
	}

	name, symbol, decimals := tokenName, tokenSymbol, tokenDecimals
	if name == "" || symbol == "" || decimals < 0 {
		info, infoErr := a.tokenSvc.TokenInfo(cmd.Context(), addr, common.Address{})
		if infoErr != nil {
			return zferr.WithSuggestion(infoErr, "Pass --name, --symbol and --decimals to add the token offline")
		}
		if name == "" {
			name = info.Name
		}
		if symbol == "" {
			symbol = info.Symbol
		}
		if decimals < 0 {
			decimals = int(info.Decimals)
		}
	}
	if decimals > 255 {
		return zferr.WithDetails(zferr.ErrInvalidInput, map[string]string{"decimals": fmt.Sprintf("%d", decimals)})
	}

	added, err := tokens.Add(tokenstore.NewToken(name, symbol, uint8(decimals), typ, addr)) //nolint:gosec // G115: bounded above
	if err != nil {
		return err
	}
	logger.Debug("added token %s (%s)", added.Symbol, added.Contract.Hex())
	messenger.Success("Added %s", added.Symbol)
	return formatter.Print(tokenView{Token: added})
}

func runTokenRemove(_ *cobra.Command, args []string) error {
	a, err := newApp(appOptions{RequireWallet: true})
	if err != nil {
		return err
	}
	defer a.close()

	tokens, err := a.requireTokens()
	if err != nil {
		return err
	}
	tok, err := tokens.Find(args[0])
	if err != nil {
		return err
	}
	if err := tokens.Remove(tok.ID); err != nil {
		return err
	}
	messenger.Success("Removed %s", tok.Symbol)
	return formatter.Print(tokenView{Token: tok})
}

func runTokenClear(cmd *cobra.Command, _ []string) error {
	a, err := newApp(appOptions{RequireWallet: true})
	if err != nil {
		return err
	}
	defer a.close()

	tokens, err := a.requireTokens()
	if err != nil {
		return err
	}
	ok, err := confirmAction(cmd.Context(), "Remove every user-added token")
	if err != nil {
		return err
	}
	if !ok {
		return zferr.WithSuggestion(zferr.ErrInvalidInput, "Aborted; nothing was removed")
	}
	if err := tokens.Clear(); err != nil {
		return err
	}
	messenger.Success("Token list cleared")
	return formatter.Print(tokenListView{Owner: tokens.Owner().Hex(), Tokens: tokens.List()})
}

func runTokenInfo(cmd *cobra.Command, args []string) error {
	a, err := newApp(appOptions{})
	if err != nil {
		return err
	}
	defer a.close()

	addr, err := a.resolveToken(args[0])
	if err != nil {
		return err
	}

	info, err := a.tokenSvc.TokenInfo(cmd.Context(), addr, a.owner)
	if err != nil {
		return err
	}
	view := tokenInfoView{
		Address:     info.Address.Hex(),
		Name:        info.Name,
		Symbol:      info.Symbol,
		Decimals:    info.Decimals,
		TotalSupply: info.FormattedSupply(),
	}
	if a.owner != (common.Address{}) {
		view.Balance = info.FormattedBalance()
	}
	if counterpart, lookupErr := a.tokenSvc.ConfidentialCounterpart(cmd.Context(), addr); lookupErr == nil {
		view.Counterpart = counterpart.Hex()
	} else {
		logger.Debug("no confidential counterpart for %s: %v", addr.Hex(), lookupErr)
	}
	return formatter.Print(view)
}

// resolveToken accepts an address, or an id or symbol from the token list.
func (a *app) resolveToken(query string) (common.Address, error) {
	if common.IsHexAddress(query) {
		return chain.ParseAddress(query)
	}
	tok, err := a.lookupToken(query)
	if err != nil {
		return common.Address{}, err
	}
	return tok.Contract, nil
}

// lookupToken finds a list entry. Without a wallet, the faucet token is
// the only one known.
func (a *app) lookupToken(query string) (tokenstore.Token, error) {
	if a.tokens != nil {
		return a.tokens.Find(query)
	}
	ft := faucetToken(a.contracts.forgeToken)
	if strings.EqualFold(query, ft.Symbol) || query == ft.ID || strings.EqualFold(query, ft.Contract.Hex()) {
		return ft, nil
	}
	return tokenstore.Token{}, zferr.WithDetails(zferr.ErrTokenNotFound, map[string]string{"token": query})
}
