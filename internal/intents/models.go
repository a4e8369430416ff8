// Package intents models the closed set of intent kinds a batch may carry.
//
// Types here are plain data. Decoding lives in decode.go and canonical byte
// serialization in internal/canonical.
package intents

import (
	"math/big"
	"regexp"
)

// Kind is the value of the "intent" tag on the wire.
type Kind string

const (
	KindFtWithdraw     Kind = "ft_withdraw"
	KindNftWithdraw    Kind = "nft_withdraw"
	KindMtWithdraw     Kind = "mt_withdraw"
	KindNativeWithdraw Kind = "native_withdraw"
	KindTokenDiff      Kind = "token_diff"
)

// IsKnown reports whether k belongs to the closed set.
func (k Kind) IsKnown() bool {
	switch k {
	case KindFtWithdraw, KindNftWithdraw, KindMtWithdraw, KindNativeWithdraw, KindTokenDiff:
		return true
	default:
		return false
	}
}

// Batch is a signed set of intents. It is rebuilt per call and never persisted.
type Batch struct {
	SignerID          string
	Deadline          *string
	Nonce             string
	VerifyingContract string
	Intents           []Intent
}

// Intent is one sub-intent of a batch. Only the types in this package implement it.
type Intent interface {
	Kind() Kind
	isIntent()
}

type FtWithdraw struct {
	Token          string
	ReceiverID     string
	Amount         U128
	Memo           *string
	Msg            *string
	StorageDeposit *U128
}

type NftWithdraw struct {
	Token          string
	ReceiverID     string
	TokenID        string
	Memo           *string
	Msg            *string
	StorageDeposit *U128
}

type MtWithdraw struct {
	Token          string
	ReceiverID     string
	TokenIDs       []string
	Amounts        []U128
	Memo           *string
	Msg            *string
	StorageDeposit *U128
}

// NativeWithdraw withdraws the chain's native currency, amount in yocto units.
type NativeWithdraw struct {
	ReceiverID string
	Amount     U128
}

// TokenDiff is a rebalance: signed per-token deltas without a destination.
type TokenDiff struct {
	Diff     Diff
	Memo     *string
	Referral *string
}

func (FtWithdraw) Kind() Kind     { return KindFtWithdraw }
func (NftWithdraw) Kind() Kind    { return KindNftWithdraw }
func (MtWithdraw) Kind() Kind     { return KindMtWithdraw }
func (NativeWithdraw) Kind() Kind { return KindNativeWithdraw }
func (TokenDiff) Kind() Kind      { return KindTokenDiff }

func (FtWithdraw) isIntent()     {}
func (NftWithdraw) isIntent()    {}
func (MtWithdraw) isIntent()     {}
func (NativeWithdraw) isIntent() {}
func (TokenDiff) isIntent()      {}

// DiffEntry is one token delta.
type DiffEntry struct {
	Token string
	Delta string
}

// Diff is an insertion-ordered token to delta mapping. Order is part of the hashed
// form, so it is kept as a slice.
type Diff struct {
	entries []DiffEntry
}

// NewDiff builds a Diff from entries in order. Tokens must be unique and deltas must
// be signed decimals.
func NewDiff(entries ...DiffEntry) (Diff, error) {
	var d Diff
	for _, e := range entries {
		if err := d.add(e.Token, e.Delta); err != nil {
			return Diff{}, err
		}
	}
	return d, nil
}

// MustDiff is NewDiff that panics, for fixtures.
func MustDiff(pairs ...string) Diff {
	if len(pairs)%2 != 0 {
		panic("intents: MustDiff needs token/delta pairs")
	}
	entries := make([]DiffEntry, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		entries = append(entries, DiffEntry{Token: pairs[i], Delta: pairs[i+1]})
	}
	d, err := NewDiff(entries...)
	if err != nil {
		panic(err)
	}
	return d
}

func (d *Diff) add(token, delta string) error {
	if token == "" {
		return serializationError("diff token must not be empty")
	}
	if !signedDecimal.MatchString(delta) {
		return serializationError("diff value for " + token + " must be a signed decimal string")
	}
	for _, e := range d.entries {
		if e.Token == token {
			return serializationError("duplicate diff token " + token)
		}
	}
	d.entries = append(d.entries, DiffEntry{Token: token, Delta: delta})
	return nil
}

// Entries returns a copy of the deltas in order.
func (d Diff) Entries() []DiffEntry {
	out := make([]DiffEntry, len(d.entries))
	copy(out, d.entries)
	return out
}

func (d Diff) Len() int {
	return len(d.entries)
}

// Get returns the delta for token.
func (d Diff) Get(token string) (string, bool) {
	for _, e := range d.entries {
		if e.Token == token {
			return e.Delta, true
		}
	}
	return "", false
}

var signedDecimal = regexp.MustCompile(`^-?[0-9]+(\.[0-9]+)?$`)

var maxU128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))

// U128 is an unsigned 128-bit integer kept as its canonical decimal string.
type U128 string

// ParseU128 accepts a decimal string in [0, 2^128) and normalizes it (leading zeros
// and a leading plus sign are dropped).
func ParseU128(s string) (U128, error) {
	if s == "" || s[0] == '-' {
		return "", serializationError("amount must be an unsigned decimal string")
	}
	for i, c := range s {
		if c == '+' && i == 0 {
			continue
		}
		if c < '0' || c > '9' {
			return "", serializationError("amount must be an unsigned decimal string")
		}
	}
	n, ok := new(big.Int).SetString(s, 10)
	if !ok || n.Cmp(maxU128) > 0 {
		return "", serializationError("amount out of u128 range")
	}
	return U128(n.String()), nil
}

// MustU128 is ParseU128 that panics, for fixtures.
func MustU128(s string) U128 {
	v, err := ParseU128(s)
	if err != nil {
		panic(err)
	}
	return v
}

func (u U128) String() string {
	return string(u)
}

// StringPtr is a helper for optional fields in fixtures.
func StringPtr(s string) *string {
	return &s
}

// TokenDiffs returns the rebalance sub-intents of b in batch order.
func (b *Batch) TokenDiffs() []TokenDiff {
	var out []TokenDiff
	for _, in := range b.Intents {
		if td, ok := in.(TokenDiff); ok {
			out = append(out, td)
		}
	}
	return out
}
