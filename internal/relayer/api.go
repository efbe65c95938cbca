package relayer

import (
	"context"
	"net/http"
)

// KeyInfo describes the network's public encryption key.
type KeyInfo struct {
	PublicKeyID string `json:"publicKeyId"`
	// PublicKey is the recipient string inputs are sealed to.
	PublicKey string `json:"publicKey"`
}

// InputProofRequest asks the relayer to verify an encrypted input.
type InputProofRequest struct {
	ContractChainID string `json:"contractChainId"`
	ContractAddress string `json:"contractAddress"`
	UserAddress     string `json:"userAddress"`
	// Ciphertext is hex without 0x prefix.
	Ciphertext string `json:"ciphertextWithInputVerification"`
	ExtraData  string `json:"extraData"`
}

// InputProofResponse carries the handles the verifier computed and its signatures.
type InputProofResponse struct {
	Handles    []string `json:"handles"`
	Signatures []string `json:"signatures"`
}

// HandleContractPair names one ciphertext and the contract holding it.
type HandleContractPair struct {
	Handle          string `json:"handle"`
	ContractAddress string `json:"contractAddress"`
}

// RequestValidity bounds the lifetime of a decryption signature.
type RequestValidity struct {
	StartTimestamp string `json:"startTimestamp"`
	DurationDays   string `json:"durationDays"`
}

// UserDecryptRequest is a signed request to re-encrypt ciphertexts to the
// user's ephemeral public key. The private key never leaves the client.
type UserDecryptRequest struct {
	HandleContractPairs []HandleContractPair `json:"handleContractPairs"`
	RequestValidity     RequestValidity      `json:"requestValidity"`
	ContractsChainID    string               `json:"contractsChainId"`
	ContractAddresses   []string             `json:"contractAddresses"`
	UserAddress         string               `json:"userAddress"`
	Signature           string               `json:"signature"`
	PublicKey           string               `json:"publicKey"`
	ExtraData           string               `json:"extraData"`
}

// DecryptedShare is one re-encrypted result sealed to the user's public key.
type DecryptedShare struct {
	Payload   string `json:"payload"`
	Signature string `json:"signature"`
}

// KeyInfo fetches the network public key.
func (c *Client) KeyInfo(ctx context.Context) (*KeyInfo, error) {
	var out KeyInfo
	if err := c.do(ctx, http.MethodGet, PathKeyURL, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// InputProof submits an encrypted input for verification.
func (c *Client) InputProof(ctx context.Context, req *InputProofRequest) (*InputProofResponse, error) {
	var out InputProofResponse
	if err := c.do(ctx, http.MethodPost, PathInputProof, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UserDecrypt submits a signed user decryption request.
func (c *Client) UserDecrypt(ctx context.Context, req *UserDecryptRequest) ([]DecryptedShare, error) {
	var out []DecryptedShare
	if err := c.do(ctx, http.MethodPost, PathUserDecrypt, req, &out); err != nil {
		return nil, err
	}
	return out, nil
}
