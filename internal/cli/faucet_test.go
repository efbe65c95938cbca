package cli

import (
	"bytes"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zamaforge/zforge/internal/config"
	zferr "github.com/zamaforge/zforge/pkg/errors"
)

func TestFaucetInfo(t *testing.T) {
	newTestHome(t)
	newFakeChain(t, map[string][]any{
		"CLAIM_FEE":    {bigInt("1000000000000000")},
		"CLAIM_AMOUNT": {bigInt("100000000")},
		"decimals":     {uint8(6)},
	}).serve()

	stdout, _, err := runCommand(t, "faucet", "info", "-o", "json")
	require.NoError(t, err)

	var view faucetView
	decodeJSON(t, stdout, &view)
	assert.Equal(t, "0.001", view.Fee)
	assert.Equal(t, "100.0", view.Amount)
	assert.Equal(t, common.HexToAddress(config.DefaultAirdropContract).Hex(), view.Airdrop)

	var buf bytes.Buffer
	require.NoError(t, view.RenderText(&buf))
	assert.Contains(t, buf.String(), "0.001 ETH")
}

func TestFaucetInfo_MissingAirdrop(t *testing.T) {
	home := newTestHome(t)
	c := config.Defaults()
	c.Contracts.Airdrop = ""
	require.NoError(t, config.Save(c, config.Path(home)))

	_, _, err := runCommand(t, "faucet", "info")
	require.ErrorIs(t, err, zferr.ErrMissingContract)
}

func TestFaucetClaim_RequiresWallet(t *testing.T) {
	newTestHome(t)
	_, _, err := runCommand(t, "faucet", "claim")
	require.ErrorIs(t, err, zferr.ErrWalletNotFound)
}
