package encryption

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"

	zferr "github.com/zamaforge/zforge/pkg/errors"
)

// CanonicalHex renders v as 0x-prefixed lowercase hex. It accepts raw
// bytes, fixed 32-byte arrays, and hex strings with or without the prefix.
func CanonicalHex(v any) (string, error) {
	switch t := v.(type) {
	case []byte:
		if len(t) == 0 {
			return "", fmt.Errorf("empty value: %w", zferr.ErrInvalidInput)
		}
		return hexutil.Encode(t), nil
	case [32]byte:
		return hexutil.Encode(t[:]), nil
	case string:
		s := strings.TrimSpace(t)
		s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
		b, err := hex.DecodeString(s)
		if err != nil || len(b) == 0 {
			return "", fmt.Errorf("not a hex string %q: %w", t, zferr.ErrInvalidInput)
		}
		return hexutil.Encode(b), nil
	default:
		return "", fmt.Errorf("unsupported value %T: %w", v, zferr.ErrInvalidInput)
	}
}
