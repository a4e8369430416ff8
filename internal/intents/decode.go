package intents

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	dErrors "intentgate/pkg/domain-errors"
)

func serializationError(msg string) error {
	return dErrors.New(dErrors.CodeSerialization, msg)
}

// Decode parses a JSON intent batch. Object keys match exactly (case-sensitive),
// unknown keys are ignored, duplicate keys are rejected and diff order is kept.
// Every failure carries dErrors.CodeSerialization.
func Decode(data []byte) (*Batch, error) {
	if !utf8.Valid(data) {
		return nil, serializationError("intent batch is not valid UTF-8")
	}
	if err := checkEscapes(data); err != nil {
		return nil, err
	}
	var b Batch
	if err := b.decode(data); err != nil {
		return nil, err
	}
	return &b, nil
}

// UnmarshalJSON implements json.Unmarshaler with the same rules as Decode.
func (b *Batch) UnmarshalJSON(data []byte) error {
	if !utf8.Valid(data) {
		return serializationError("intent batch is not valid UTF-8")
	}
	if err := checkEscapes(data); err != nil {
		return err
	}
	return b.decode(data)
}

func (b *Batch) decode(data []byte) error {
	fields, err := readObject(data, "intent batch")
	if err != nil {
		return err
	}

	var out Batch
	if out.SignerID, err = requiredString(fields, "signer_id"); err != nil {
		return err
	}
	if out.Deadline, err = optionalString(fields, "deadline"); err != nil {
		return err
	}
	if out.Nonce, err = requiredString(fields, "nonce"); err != nil {
		return err
	}
	if out.VerifyingContract, err = requiredString(fields, "verifying_contract"); err != nil {
		return err
	}

	raw, ok := fields["intents"]
	if !ok || isNull(raw) {
		return serializationError("missing field intents")
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return serializationError("intents must be an array")
	}
	out.Intents = make([]Intent, 0, len(items))
	for i, item := range items {
		in, err := decodeIntent(item)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeSerialization, fmt.Sprintf("intents[%d]", i))
		}
		out.Intents = append(out.Intents, in)
	}

	*b = out
	return nil
}

func decodeIntent(data []byte) (Intent, error) {
	fields, err := readObject(data, "intent")
	if err != nil {
		return nil, err
	}
	tag, err := requiredString(fields, "intent")
	if err != nil {
		return nil, err
	}

	switch Kind(tag) {
	case KindFtWithdraw:
		var in FtWithdraw
		if in.Token, err = requiredString(fields, "token"); err != nil {
			return nil, err
		}
		if in.ReceiverID, err = requiredString(fields, "receiver_id"); err != nil {
			return nil, err
		}
		if in.Amount, err = requiredU128(fields, "amount"); err != nil {
			return nil, err
		}
		if in.Memo, in.Msg, in.StorageDeposit, err = withdrawExtras(fields); err != nil {
			return nil, err
		}
		return in, nil

	case KindNftWithdraw:
		var in NftWithdraw
		if in.Token, err = requiredString(fields, "token"); err != nil {
			return nil, err
		}
		if in.ReceiverID, err = requiredString(fields, "receiver_id"); err != nil {
			return nil, err
		}
		if in.TokenID, err = requiredString(fields, "token_id"); err != nil {
			return nil, err
		}
		if in.Memo, in.Msg, in.StorageDeposit, err = withdrawExtras(fields); err != nil {
			return nil, err
		}
		return in, nil

	case KindMtWithdraw:
		var in MtWithdraw
		if in.Token, err = requiredString(fields, "token"); err != nil {
			return nil, err
		}
		if in.ReceiverID, err = requiredString(fields, "receiver_id"); err != nil {
			return nil, err
		}
		if in.TokenIDs, err = requiredStrings(fields, "token_ids"); err != nil {
			return nil, err
		}
		amounts, err := requiredStrings(fields, "amounts")
		if err != nil {
			return nil, err
		}
		in.Amounts = make([]U128, 0, len(amounts))
		for _, a := range amounts {
			u, err := ParseU128(a)
			if err != nil {
				return nil, err
			}
			in.Amounts = append(in.Amounts, u)
		}
		if in.Memo, in.Msg, in.StorageDeposit, err = withdrawExtras(fields); err != nil {
			return nil, err
		}
		return in, nil

	case KindNativeWithdraw:
		var in NativeWithdraw
		if in.ReceiverID, err = requiredString(fields, "receiver_id"); err != nil {
			return nil, err
		}
		if in.Amount, err = requiredU128(fields, "amount"); err != nil {
			return nil, err
		}
		return in, nil

	case KindTokenDiff:
		var in TokenDiff
		raw, ok := fields["diff"]
		if !ok || isNull(raw) {
			return nil, serializationError("missing field diff")
		}
		if err := in.Diff.UnmarshalJSON(raw); err != nil {
			return nil, err
		}
		if in.Memo, err = optionalString(fields, "memo"); err != nil {
			return nil, err
		}
		if in.Referral, err = optionalString(fields, "referral"); err != nil {
			return nil, err
		}
		return in, nil

	default:
		return nil, serializationError(fmt.Sprintf("unknown intent kind %q", tag))
	}
}

func withdrawExtras(fields map[string]json.RawMessage) (memo, msg *string, deposit *U128, err error) {
	if memo, err = optionalString(fields, "memo"); err != nil {
		return nil, nil, nil, err
	}
	if msg, err = optionalString(fields, "msg"); err != nil {
		return nil, nil, nil, err
	}
	s, err := optionalString(fields, "storage_deposit")
	if err != nil || s == nil {
		return memo, msg, nil, err
	}
	u, err := ParseU128(*s)
	if err != nil {
		return nil, nil, nil, err
	}
	return memo, msg, &u, nil
}

// UnmarshalJSON decodes a diff object keeping key order.
func (d *Diff) UnmarshalJSON(data []byte) error {
	if err := checkEscapes(data); err != nil {
		return err
	}
	var out Diff
	err := walkObject(data, "diff", func(key string, raw json.RawMessage) error {
		var delta string
		if isNull(raw) || json.Unmarshal(raw, &delta) != nil {
			return serializationError("diff value for " + key + " must be a string")
		}
		return out.add(key, delta)
	})
	if err != nil {
		return err
	}
	if out.Len() == 0 {
		return serializationError("diff must not be empty")
	}
	*d = out
	return nil
}

func readObject(data []byte, what string) (map[string]json.RawMessage, error) {
	fields := make(map[string]json.RawMessage)
	err := walkObject(data, what, func(key string, raw json.RawMessage) error {
		fields[key] = raw
		return nil
	})
	return fields, err
}

// walkObject visits the members of a single JSON object in document order.
func walkObject(data []byte, what string, visit func(key string, raw json.RawMessage) error) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeSerialization, "malformed "+what)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return serializationError(what + " must be a JSON object")
	}

	seen := make(map[string]struct{})
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeSerialization, "malformed "+what)
		}
		key, ok := tok.(string)
		if !ok {
			return serializationError("malformed " + what)
		}
		if _, dup := seen[key]; dup {
			return serializationError(fmt.Sprintf("duplicate field %q in %s", key, what))
		}
		seen[key] = struct{}{}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return dErrors.Wrap(err, dErrors.CodeSerialization, "malformed "+what)
		}
		if err := visit(key, raw); err != nil {
			return err
		}
	}
	if _, err := dec.Token(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeSerialization, "malformed "+what)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return serializationError("trailing data after " + what)
	}
	return nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func requiredString(fields map[string]json.RawMessage, key string) (string, error) {
	raw, ok := fields[key]
	if !ok || isNull(raw) {
		return "", serializationError("missing field " + key)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", serializationError(key + " must be a string")
	}
	return s, nil
}

func optionalString(fields map[string]json.RawMessage, key string) (*string, error) {
	raw, ok := fields[key]
	if !ok || isNull(raw) {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, serializationError(key + " must be a string")
	}
	return &s, nil
}

func requiredStrings(fields map[string]json.RawMessage, key string) ([]string, error) {
	raw, ok := fields[key]
	if !ok || isNull(raw) {
		return nil, serializationError("missing field " + key)
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, serializationError(key + " must be an array of strings")
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		if isNull(item) || json.Unmarshal(item, &s) != nil {
			return nil, serializationError(key + " must be an array of strings")
		}
		out = append(out, s)
	}
	return out, nil
}

func requiredU128(fields map[string]json.RawMessage, key string) (U128, error) {
	s, err := requiredString(fields, key)
	if err != nil {
		return "", err
	}
	return ParseU128(s)
}
