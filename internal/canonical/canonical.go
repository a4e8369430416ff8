// Package canonical produces the byte-exact JSON form of an intent batch and the
// ERC-191 personal-message hash over it.
//
// The serialized form is what independent clients hash before asking the proxy to
// sign, so every rule below is load-bearing:
//
//   - object members appear in schema order, never sorted
//   - absent optional members are omitted, never written as null
//   - large integers are decimal strings
//   - output is compact; strings escape only '"', '\' and control characters
//     (\b \f \n \r \t short forms, otherwise \u00xx lowercase). '/', DEL, HTML
//     characters and U+2028/U+2029 are written raw
package canonical

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"intentgate/internal/intents"
	dErrors "intentgate/pkg/domain-errors"
)

// Marshal serializes b in canonical form.
func Marshal(b *intents.Batch) ([]byte, error) {
	if b == nil {
		return nil, dErrors.New(dErrors.CodeSerialization, "intent batch is nil")
	}
	e := &encoder{}
	e.batch(b)
	if e.err != nil {
		return nil, e.err
	}
	return e.buf.Bytes(), nil
}

// MarshalTokenDiff serializes a single rebalance payload (diff, memo?, referral?)
// without the intent tag, as stored in activity records.
func MarshalTokenDiff(td intents.TokenDiff) ([]byte, error) {
	e := &encoder{}
	e.tokenDiffBody(td)
	if e.err != nil {
		return nil, e.err
	}
	return e.buf.Bytes(), nil
}

// Quote encodes s as a canonical JSON string literal.
func Quote(s string) ([]byte, error) {
	e := &encoder{}
	e.str(s)
	if e.err != nil {
		return nil, e.err
	}
	return e.buf.Bytes(), nil
}

type encoder struct {
	buf bytes.Buffer
	err error
}

func (e *encoder) fail(msg string) {
	if e.err == nil {
		e.err = dErrors.New(dErrors.CodeSerialization, msg)
	}
}

func (e *encoder) batch(b *intents.Batch) {
	e.buf.WriteByte('{')
	e.key(true, "signer_id")
	e.str(b.SignerID)
	if b.Deadline != nil {
		e.key(false, "deadline")
		e.str(*b.Deadline)
	}
	e.key(false, "nonce")
	e.str(b.Nonce)
	e.key(false, "verifying_contract")
	e.str(b.VerifyingContract)
	e.key(false, "intents")
	e.buf.WriteByte('[')
	for i, in := range b.Intents {
		if i > 0 {
			e.buf.WriteByte(',')
		}
		e.intent(in)
	}
	e.buf.WriteString("]}")
}

func (e *encoder) intent(in intents.Intent) {
	e.buf.WriteByte('{')
	e.key(true, "intent")

	switch v := in.(type) {
	case intents.FtWithdraw:
		e.str(string(v.Kind()))
		e.field("token", v.Token)
		e.field("receiver_id", v.ReceiverID)
		e.field("amount", string(v.Amount))
		e.withdrawExtras(v.Memo, v.Msg, v.StorageDeposit)
	case intents.NftWithdraw:
		e.str(string(v.Kind()))
		e.field("token", v.Token)
		e.field("receiver_id", v.ReceiverID)
		e.field("token_id", v.TokenID)
		e.withdrawExtras(v.Memo, v.Msg, v.StorageDeposit)
	case intents.MtWithdraw:
		e.str(string(v.Kind()))
		e.field("token", v.Token)
		e.field("receiver_id", v.ReceiverID)
		e.key(false, "token_ids")
		e.strs(v.TokenIDs)
		e.key(false, "amounts")
		amounts := make([]string, len(v.Amounts))
		for i, a := range v.Amounts {
			amounts[i] = string(a)
		}
		e.strs(amounts)
		e.withdrawExtras(v.Memo, v.Msg, v.StorageDeposit)
	case intents.NativeWithdraw:
		e.str(string(v.Kind()))
		e.field("receiver_id", v.ReceiverID)
		e.field("amount", string(v.Amount))
	case intents.TokenDiff:
		e.str(string(v.Kind()))
		e.buf.WriteByte(',')
		e.tokenDiffMembers(v)
	default:
		e.fail(fmt.Sprintf("unsupported intent type %T", in))
	}
	e.buf.WriteByte('}')
}

func (e *encoder) withdrawExtras(memo, msg *string, deposit *intents.U128) {
	if memo != nil {
		e.field("memo", *memo)
	}
	if msg != nil {
		e.field("msg", *msg)
	}
	if deposit != nil {
		e.field("storage_deposit", string(*deposit))
	}
}

func (e *encoder) tokenDiffBody(td intents.TokenDiff) {
	e.buf.WriteByte('{')
	e.tokenDiffMembers(td)
	e.buf.WriteByte('}')
}

func (e *encoder) tokenDiffMembers(td intents.TokenDiff) {
	e.buf.WriteString(`"diff":{`)
	for i, entry := range td.Diff.Entries() {
		e.key(i == 0, entry.Token)
		e.str(entry.Delta)
	}
	e.buf.WriteByte('}')
	if td.Memo != nil {
		e.field("memo", *td.Memo)
	}
	if td.Referral != nil {
		e.field("referral", *td.Referral)
	}
}

func (e *encoder) field(k, v string) {
	e.key(false, k)
	e.str(v)
}

func (e *encoder) key(first bool, k string) {
	if !first {
		e.buf.WriteByte(',')
	}
	e.str(k)
	e.buf.WriteByte(':')
}

func (e *encoder) strs(vs []string) {
	e.buf.WriteByte('[')
	for i, v := range vs {
		if i > 0 {
			e.buf.WriteByte(',')
		}
		e.str(v)
	}
	e.buf.WriteByte(']')
}

const hexDigits = "0123456789abcdef"

func (e *encoder) str(s string) {
	if !utf8.ValidString(s) {
		e.fail("string is not valid UTF-8")
		return
	}
	e.buf.WriteByte('"')
	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 0x20 && c != '"' && c != '\\' {
			continue
		}
		e.buf.WriteString(s[start:i])
		switch c {
		case '"':
			e.buf.WriteString(`\"`)
		case '\\':
			e.buf.WriteString(`\\`)
		case '\b':
			e.buf.WriteString(`\b`)
		case '\f':
			e.buf.WriteString(`\f`)
		case '\n':
			e.buf.WriteString(`\n`)
		case '\r':
			e.buf.WriteString(`\r`)
		case '\t':
			e.buf.WriteString(`\t`)
		default:
			e.buf.WriteString(`\u00`)
			e.buf.WriteByte(hexDigits[c>>4])
			e.buf.WriteByte(hexDigits[c&0xf])
		}
		start = i + 1
	}
	e.buf.WriteString(s[start:])
	e.buf.WriteByte('"')
}
