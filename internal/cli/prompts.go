package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/zamaforge/zforge/internal/secret"
	zferr "github.com/zamaforge/zforge/pkg/errors"
)

// minPasswordLength is enforced when a new wallet password is chosen.
const minPasswordLength = 8

// Prompt hooks, replaced in tests.
//
//nolint:gochecknoglobals // swapped by tests
var (
	promptPasswordFn    = promptPassword
	promptNewPasswordFn = promptNewPassword
	promptMnemonicFn    = promptMnemonic
	promptConfirmFn     = promptConfirm
)

// promptPassword reads a password without echo. The caller zeroes it.
func promptPassword(prompt string) ([]byte, error) {
	out(os.Stderr, "%s", prompt)
	password, err := term.ReadPassword(int(os.Stdin.Fd())) //nolint:gosec // G115: Fd() fits in int
	outln(os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("reading password: %w", err)
	}
	return password, nil
}

// promptNewPassword reads a password twice and checks both entries match.
func promptNewPassword() ([]byte, error) {
	password, err := promptPassword("Choose a wallet password: ")
	if err != nil {
		return nil, err
	}
	if len(password) < minPasswordLength {
		secret.Zero(password)
		return nil, zferr.WithSuggestion(zferr.ErrInvalidInput,
			fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	confirm, err := promptPassword("Confirm password: ")
	if err != nil {
		secret.Zero(password)
		return nil, err
	}
	defer secret.Zero(confirm)

	if string(password) != string(confirm) {
		secret.Zero(password)
		return nil, zferr.WithSuggestion(zferr.ErrInvalidInput, "passwords do not match")
	}
	return password, nil
}

// promptMnemonic reads the recovery phrase without echo.
func promptMnemonic() (string, error) {
	outln(os.Stderr, "Enter your recovery phrase (12 or 24 words, input hidden):")
	phrase, err := promptPassword("> ")
	if err != nil {
		return "", err
	}
	defer secret.Zero(phrase)
	return string(phrase), nil
}

// promptConfirm asks a y/N question on the terminal.
func promptConfirm(question string) bool {
	out(os.Stderr, "%s [y/N]: ", question)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

// confirmAction gates wallet signatures and transactions. It satisfies
// eth.ConfirmFunc; --yes approves without asking.
func confirmAction(ctx context.Context, action string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if assumeYes {
		return true, nil
	}
	return promptConfirmFn(action + "?"), nil
}
