// Package chain holds the network descriptor the wallet and SDK bind to,
// plus amount scaling, retry and rate limiting shared by the transports.
package chain

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	zferr "github.com/zamaforge/zforge/pkg/errors"
)

// CoinTypeETH is the BIP44 coin type used for signing keys.
const CoinTypeETH uint32 = 60

// Network describes one chain and the fhEVM infrastructure deployed on it.
type Network struct {
	Name           string
	ChainID        uint64
	RPC            string
	RelayerURL     string
	GatewayChainID uint64

	ACLContract                        common.Address
	KMSContract                        common.Address
	InputVerifierContract              common.Address
	VerifyingContractDecryption        common.Address
	VerifyingContractInputVerification common.Address
}

// Key identifies the network binding; two networks with the same key can
// share an SDK instance.
func (n Network) Key() string {
	return fmt.Sprintf("%d|%s", n.ChainID, strings.ToLower(n.RelayerURL))
}

// Validate checks that the SDK can be bound to the network.
func (n Network) Validate() error {
	if n.ChainID == 0 {
		return zferr.WithDetails(zferr.ErrConfigInvalid, map[string]string{"field": "chain_id"})
	}
	if n.RelayerURL == "" {
		return zferr.WithDetails(zferr.ErrConfigInvalid, map[string]string{"field": "relayer_url"})
	}
	if n.VerifyingContractDecryption == (common.Address{}) {
		return zferr.WithDetails(zferr.ErrMissingContract, map[string]string{"field": "verifying_contract_decryption"})
	}
	return nil
}

// ParseAddress validates a hex address and returns it in checksummed form.
// The zero address is rejected.
func ParseAddress(s string) (common.Address, error) {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) {
		return common.Address{}, zferr.WithDetails(zferr.ErrInvalidAddress, map[string]string{"address": s})
	}
	addr := common.HexToAddress(s)
	if addr == (common.Address{}) {
		return common.Address{}, zferr.WithDetails(zferr.ErrInvalidAddress, map[string]string{"address": s})
	}
	return addr, nil
}
