package fhevm_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zamaforge/zforge/internal/fhevm"
	zferr "github.com/zamaforge/zforge/pkg/errors"
)

func TestBuildInputProof(t *testing.T) {
	t.Parallel()

	handles := fhevm.ComputeHandles([]byte("ct"), []fhevm.FheType{fhevm.FheUint64, fhevm.FheUint64}, testACL, 1)
	sig := bytes.Repeat([]byte{7}, 65)

	proof, err := fhevm.BuildInputProof(handles, [][]byte{sig}, []byte{0})
	require.NoError(t, err)
	assert.Equal(t, byte(2), proof[0])
	assert.Equal(t, byte(1), proof[1])
	assert.Len(t, proof, 2+2*32+65+1)

	parsed, err := fhevm.ParseInputProof(proof)
	require.NoError(t, err)
	assert.Equal(t, handles, parsed.Handles)
	assert.Equal(t, [][]byte{sig}, parsed.Signatures)
	assert.Equal(t, []byte{0}, parsed.ExtraData)
}

func TestBuildInputProof_Rejects(t *testing.T) {
	t.Parallel()

	handles := fhevm.ComputeHandles([]byte("ct"), []fhevm.FheType{fhevm.FheUint64}, testACL, 1)

	_, err := fhevm.BuildInputProof(nil, nil, nil)
	require.ErrorIs(t, err, zferr.ErrInvalidInput)

	_, err = fhevm.BuildInputProof(handles, [][]byte{{1, 2, 3}}, nil)
	require.ErrorIs(t, err, zferr.ErrInvalidInput)
}

func TestParseInputProof_Truncated(t *testing.T) {
	t.Parallel()

	_, err := fhevm.ParseInputProof([]byte{1})
	require.ErrorIs(t, err, zferr.ErrInvalidInput)

	_, err = fhevm.ParseInputProof([]byte{1, 1, 0xff})
	require.ErrorIs(t, err, zferr.ErrInvalidInput)
}
