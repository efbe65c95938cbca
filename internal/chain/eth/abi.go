package eth

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Contract ABIs used by the dashboard. Encrypted amounts cross the ABI as
// bytes32 handles (externalEuint64) with a separate input proof.
const (
	erc20JSON = `[
	{"type":"function","name":"name","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
	{"type":"function","name":"symbol","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
	{"type":"function","name":"decimals","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]},
	{"type":"function","name":"totalSupply","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"allowance","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"approve","stateMutability":"nonpayable","inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"transfer","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]}
]`

	confidentialTokenJSON = `[
	{"type":"function","name":"name","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
	{"type":"function","name":"symbol","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
	{"type":"function","name":"decimals","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]},
	{"type":"function","name":"underlying","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
	{"type":"function","name":"confidentialBalanceOf","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"bytes32"}]},
	{"type":"function","name":"confidentialTransfer","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"encryptedAmount","type":"bytes32"},{"name":"inputProof","type":"bytes"}],"outputs":[{"name":"","type":"bytes32"}]},
	{"type":"function","name":"unwrap","stateMutability":"nonpayable","inputs":[{"name":"from","type":"address"},{"name":"to","type":"address"},{"name":"encryptedAmount","type":"bytes32"},{"name":"inputProof","type":"bytes"}],"outputs":[]}
]`

	factoryJSON = `[
	{"type":"function","name":"wrapERC20","stateMutability":"nonpayable","inputs":[{"name":"erc20","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"getConfidentialToken","stateMutability":"view","inputs":[{"name":"erc20","type":"address"}],"outputs":[{"name":"","type":"address"}]},
	{"type":"function","name":"getERC20","stateMutability":"view","inputs":[{"name":"confidentialToken","type":"address"}],"outputs":[{"name":"","type":"address"}]}
]`

	airdropJSON = `[
	{"type":"function","name":"claimTokens","stateMutability":"payable","inputs":[{"name":"token","type":"address"}],"outputs":[]},
	{"type":"function","name":"CLAIM_FEE","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"CLAIM_AMOUNT","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]}
]`
)

// Parsed ABIs.
//
//nolint:gochecknoglobals // Parsed once from constant JSON
var (
	ERC20ABI             = mustParseABI(erc20JSON)
	ConfidentialTokenABI = mustParseABI(confidentialTokenJSON)
	FactoryABI           = mustParseABI(factoryJSON)
	AirdropABI           = mustParseABI(airdropJSON)
)

func mustParseABI(def string) *abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic("invalid contract ABI: " + err.Error())
	}
	return &parsed
}
