package canonical

import (
	"strconv"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"intentgate/internal/intents"
	dErrors "intentgate/pkg/domain-errors"
)

// MessagePrefix is the ERC-191 version 0x45 personal-message prefix.
const MessagePrefix = "\x19Ethereum Signed Message:\n"

// HashLength is the digest size in bytes.
const HashLength = 32

// Digest is a Keccak-256 hash.
type Digest [HashLength]byte

// Hex returns the 0x-prefixed lowercase hex form.
func (d Digest) Hex() string {
	return hexutil.Encode(d[:])
}

func (d Digest) String() string {
	return d.Hex()
}

// Hash serializes b canonically and returns its ERC-191 hash.
func Hash(b *intents.Batch) (Digest, error) {
	msg, err := Marshal(b)
	if err != nil {
		return Digest{}, err
	}
	return HashMessage(msg), nil
}

// HashMessage is keccak256(prefix || decimal(len(msg)) || msg).
func HashMessage(msg []byte) Digest {
	prefix := MessagePrefix + strconv.Itoa(len(msg))
	return Digest(crypto.Keccak256Hash([]byte(prefix), msg))
}

// ParseHash decodes a caller-supplied 0x-prefixed hex digest.
func ParseHash(s string) (Digest, error) {
	raw, err := hexutil.Decode(s)
	if err != nil {
		return Digest{}, dErrors.Wrap(err, dErrors.CodeValidation, "malformed hash")
	}
	if len(raw) != HashLength {
		return Digest{}, dErrors.New(dErrors.CodeValidation,
			"malformed hash: expected "+strconv.Itoa(HashLength)+" bytes, got "+strconv.Itoa(len(raw)))
	}
	var d Digest
	copy(d[:], raw)
	return d, nil
}
