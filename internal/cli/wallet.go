package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/zamaforge/zforge/internal/secret"
	"github.com/zamaforge/zforge/internal/wallet"
	zferr "github.com/zamaforge/zforge/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var (
	walletCmd = &cobra.Command{
		Use:   "wallet",
		Short: "Manage the signing wallet",
	}

	walletImportCmd = &cobra.Command{
		Use:   "import",
		Short: "Import a wallet from a recovery phrase",
		Long: `Import a BIP39 recovery phrase. The signing key is derived at
m/44'/60'/0'/0/0 and the phrase is stored encrypted with your password.`,
		Example: `  zforge wallet import
  zforge wallet import --force`,
		Args: cobra.NoArgs,
		RunE: runWalletImport,
	}

	walletShowCmd = &cobra.Command{
		Use:   "show",
		Short: "Show the wallet address",
		Args:  cobra.NoArgs,
		RunE:  runWalletShow,
	}

	walletForce bool
)

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(walletCmd)
	walletCmd.AddCommand(walletImportCmd, walletShowCmd)
	walletImportCmd.Flags().BoolVar(&walletForce, "force", false, "replace an existing wallet")
}

// walletView is the printable wallet summary.
type walletView struct {
	Address   string    `json:"address"`
	Path      string    `json:"derivation_path"`
	CreatedAt time.Time `json:"created_at"`
	File      string    `json:"file"`
}

func (v walletView) RenderText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "Address:  %s\nPath:     %s\nCreated:  %s\nFile:     %s\n",
		v.Address, v.Path, v.CreatedAt.Format(time.RFC3339), v.File)
	return err
}

func runWalletImport(_ *cobra.Command, _ []string) error {
	store := wallet.NewStore(cfg.Home)
	if store.Exists() && !walletForce {
		return zferr.WithSuggestion(zferr.ErrWalletExists, "Pass --force to replace the existing wallet")
	}

	phrase, err := promptMnemonicFn()
	if err != nil {
		return err
	}
	if err := wallet.ValidateMnemonic(phrase); err != nil {
		return err
	}

	password, err := promptNewPasswordFn()
	if err != nil {
		return err
	}
	defer secret.Zero(password)

	w, err := store.Import(phrase, password, walletForce)
	if err != nil {
		return err
	}
	logger.Debug("imported wallet %s", w.Address.Hex())

	messenger.Success("Wallet imported")
	return formatter.Print(walletView{Address: w.Address.Hex(), Path: w.Path, CreatedAt: w.CreatedAt, File: store.Path()})
}

func runWalletShow(_ *cobra.Command, _ []string) error {
	store := wallet.NewStore(cfg.Home)
	w, err := store.Load()
	if err != nil {
		return err
	}
	return formatter.Print(walletView{Address: w.Address.Hex(), Path: w.Path, CreatedAt: w.CreatedAt, File: store.Path()})
}
