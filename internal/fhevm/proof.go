package fhevm

import (
	"fmt"

	zferr "github.com/zamaforge/zforge/pkg/errors"
)

const signatureLength = 65

// InputProof is the decoded form of the proof submitted with encrypted inputs.
type InputProof struct {
	Handles    [][HandleLength]byte
	Signatures [][]byte
	ExtraData  []byte
}

// BuildInputProof serializes numHandles | numSigners | handles | signatures | extraData.
func BuildInputProof(handles [][HandleLength]byte, signatures [][]byte, extraData []byte) ([]byte, error) {
	if len(handles) == 0 || len(handles) > 255 {
		return nil, fmt.Errorf("input proof with %d handles: %w", len(handles), zferr.ErrInvalidInput)
	}
	if len(signatures) > 255 {
		return nil, fmt.Errorf("input proof with %d signatures: %w", len(signatures), zferr.ErrInvalidInput)
	}

	out := make([]byte, 0, 2+len(handles)*HandleLength+len(signatures)*signatureLength+len(extraData))
	out = append(out, byte(len(handles)), byte(len(signatures)))
	for _, h := range handles {
		out = append(out, h[:]...)
	}
	for i, s := range signatures {
		if len(s) != signatureLength {
			return nil, fmt.Errorf("signature %d has length %d: %w", i, len(s), zferr.ErrInvalidInput)
		}
		out = append(out, s...)
	}
	return append(out, extraData...), nil
}

// ParseInputProof decodes a proof produced by BuildInputProof.
func ParseInputProof(proof []byte) (*InputProof, error) {
	if len(proof) < 2 {
		return nil, fmt.Errorf("input proof too short: %w", zferr.ErrInvalidInput)
	}
	numHandles, numSigners := int(proof[0]), int(proof[1])
	need := 2 + numHandles*HandleLength + numSigners*signatureLength
	if len(proof) < need {
		return nil, fmt.Errorf("input proof truncated: %d < %d: %w", len(proof), need, zferr.ErrInvalidInput)
	}

	p := &InputProof{}
	off := 2
	for i := 0; i < numHandles; i++ {
		var h [HandleLength]byte
		copy(h[:], proof[off:off+HandleLength])
		p.Handles = append(p.Handles, h)
		off += HandleLength
	}
	for i := 0; i < numSigners; i++ {
		p.Signatures = append(p.Signatures, append([]byte(nil), proof[off:off+signatureLength]...))
		off += signatureLength
	}
	p.ExtraData = append([]byte(nil), proof[off:]...)
	return p, nil
}
