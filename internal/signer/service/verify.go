package service

import (
	"encoding/hex"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/mr-tron/base58"

	"intentgate/internal/signer/models"
	dErrors "intentgate/pkg/domain-errors"
)

// KeyPrefix tags secp256k1 keys and signatures in their string form.
const KeyPrefix = "secp256k1:"

// Verify checks result against payload and returns the signature as
// secp256k1:<base58(r||s||v)> and the recovered key as secp256k1:<base58(x||y)>.
//
// Verify checks the signature is well formed and recovers a key; it does not
// compare that key against a known signer key. Authenticity of a result rests on
// the transport admitting only the configured signer identity (caller.Require on
// the result route, the signer's own websocket feed for the listener). Callers
// that know the derived key for a path should compare publicKey themselves.
func Verify(payload [32]byte, result models.SignResult) (signature, publicKey string, err error) {
	bigR, err := decodeHex(result.BigR.AffinePoint, "big_r.affine_point", 33)
	if err != nil {
		return "", "", err
	}
	if bigR[0] != 0x02 && bigR[0] != 0x03 {
		return "", "", dErrors.New(dErrors.CodeValidation, "big_r must be a compressed point")
	}
	if _, err := crypto.DecompressPubkey(bigR); err != nil {
		return "", "", dErrors.New(dErrors.CodeValidation, "big_r is not a curve point")
	}
	sBytes, err := decodeHex(result.S.Scalar, "s.scalar", 32)
	if err != nil {
		return "", "", err
	}
	if result.RecoveryID > 1 {
		return "", "", dErrors.New(dErrors.CodeValidation, "recovery_id must be 0 or 1")
	}
	if (bigR[0] == 0x03) != (result.RecoveryID == 1) {
		return "", "", dErrors.New(dErrors.CodeValidation, "recovery_id does not match big_r parity")
	}

	r := new(big.Int).SetBytes(bigR[1:])
	s := new(big.Int).SetBytes(sBytes)
	if !crypto.ValidateSignatureValues(result.RecoveryID, r, s, false) {
		return "", "", dErrors.New(dErrors.CodeValidation, "signature values out of range")
	}

	sig := make([]byte, crypto.SignatureLength)
	copy(sig[:32], bigR[1:])
	copy(sig[32:64], sBytes)
	sig[64] = result.RecoveryID

	pub, err := crypto.SigToPub(payload[:], sig)
	if err != nil {
		return "", "", dErrors.Wrap(err, dErrors.CodeValidation, "public key recovery failed")
	}
	// drop the 0x04 uncompressed marker
	pubBytes := crypto.FromECDSAPub(pub)[1:]

	return KeyPrefix + base58.Encode(sig), KeyPrefix + base58.Encode(pubBytes), nil
}

func decodeHex(s, field string, size int) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, field+" is not valid hex")
	}
	if len(raw) != size {
		return nil, dErrors.New(dErrors.CodeValidation, field+" has the wrong length")
	}
	return raw, nil
}
