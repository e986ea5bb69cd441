// Package strategy decides how key-value entries are persisted. Values
// the engine codec can store directly pass through unchanged, small
// primitive scalars are inlined as marker-tagged text to skip structured
// parsing on read, and everything else is serialized to tagged JSON.
// Reads reverse the same decision, with best-effort coercion for values
// written by older format revisions.
package strategy

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/lockboxorg/liblockbox-go/offload"
)

// marker opens and closes the two-byte type prefix on tagged strings.
const marker = '\x01'

// Kind characters carried in the marker prefix.
const (
	tagString = 's'
	tagInt    = 'i'
	tagFloat  = 'f'
	tagBool   = 'b'
	tagJSON   = 'j'
)

const defaultInlineLimit = 128

// Staged is the classification of a value, decided once before encoding
// so later layers do not re-inspect the value.
type Staged struct {
	Strategy Strategy

	// Size is a rough byte estimate of the encoded form, used to price
	// offloading.
	Size int
}

// Codec prepares values for storage in a box and restores them on read.
type Codec struct {
	inlineLimit int
	policy      *offload.Policy
}

// NewCodec returns a Codec that inlines primitive scalars whose text form
// is at most inlineLimit bytes. Limits below one fall back to the
// default. JSON work above the policy threshold runs on the policy's
// pool; a nil policy runs everything inline.
func NewCodec(inlineLimit int, policy *offload.Policy) *Codec {
	if inlineLimit <= 0 {
		inlineLimit = defaultInlineLimit
	}
	return &Codec{inlineLimit: inlineLimit, policy: policy}
}

// Stage classifies v and estimates its encoded size.
func (c *Codec) Stage(v any) Staged {
	s, est := classify(v)
	return Staged{Strategy: s, Size: est}
}

// Encode returns the value to hand to the engine codec. JSON-classified
// values become tagged JSON text, small primitive scalars become tagged
// literals, and everything else passes through unchanged. Strings that
// begin with the marker byte are always tagged so the prefix cannot be
// forged.
func (c *Codec) Encode(ctx context.Context, v any) (any, error) {
	st := c.Stage(v)
	if st.Strategy == JSON {
		return c.encodeJSON(ctx, v, st.Size)
	}

	switch cv := v.(type) {
	case string:
		if len(cv) <= c.inlineLimit || hasMarker(cv) {
			return tag(tagString, cv), nil
		}
		return v, nil
	case bool:
		return c.inlineOr(v, tagBool, strconv.FormatBool(cv)), nil
	case float32:
		return c.inlineOr(v, tagFloat, strconv.FormatFloat(float64(cv), 'g', -1, 32)), nil
	case float64:
		return c.inlineOr(v, tagFloat, strconv.FormatFloat(cv, 'g', -1, 64)), nil
	}
	if text, ok := formatInt(v); ok {
		return c.inlineOr(v, tagInt, text), nil
	}
	return v, nil
}

// Decode restores a value read from the engine codec. Tagged strings are
// parsed according to their kind character; bare strings are returned
// as-is, matching values written before inlining existed.
func (c *Codec) Decode(ctx context.Context, raw any) (any, error) {
	s, ok := raw.(string)
	if !ok || !hasMarker(s) {
		return raw, nil
	}
	if len(s) < 3 || s[2] != marker {
		return nil, fmt.Errorf("%w: malformed marker prefix", ErrCorruptValue)
	}

	kind, text := s[1], s[3:]
	switch kind {
	case tagString:
		return text, nil
	case tagInt:
		if n, err := strconv.ParseInt(text, 10, 64); err == nil {
			return n, nil
		}
		n, err := strconv.ParseUint(text, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorruptValue, err)
		}
		return n, nil
	case tagFloat:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorruptValue, err)
		}
		return f, nil
	case tagBool:
		b, err := strconv.ParseBool(text)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorruptValue, err)
		}
		return b, nil
	case tagJSON:
		return c.decodeJSON(ctx, text)
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrCorruptValue, kind)
	}
}

func (c *Codec) encodeJSON(ctx context.Context, v any, size int) (any, error) {
	var data []byte
	err := c.policy.Do(ctx, size, func() error {
		var merr error
		data, merr = json.Marshal(v)
		if merr != nil {
			return fmt.Errorf("strategy: marshal value: %w", merr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tag(tagJSON, string(data)), nil
}

func (c *Codec) decodeJSON(ctx context.Context, text string) (any, error) {
	var out any
	err := c.policy.Do(ctx, len(text), func() error {
		if uerr := json.Unmarshal([]byte(text), &out); uerr != nil {
			return fmt.Errorf("%w: %w", ErrCorruptValue, uerr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// inlineOr tags the scalar when its text form fits the inline limit,
// otherwise stores the original value through the engine codec.
func (c *Codec) inlineOr(v any, kind byte, text string) any {
	if len(text) <= c.inlineLimit {
		return tag(kind, text)
	}
	return v
}

func tag(kind byte, text string) string {
	return string([]byte{marker, kind, marker}) + text
}

func hasMarker(s string) bool {
	return len(s) > 0 && s[0] == marker
}

// formatInt renders any builtin integer as decimal text.
func formatInt(v any) (string, bool) {
	switch cv := v.(type) {
	case int:
		return strconv.FormatInt(int64(cv), 10), true
	case int8:
		return strconv.FormatInt(int64(cv), 10), true
	case int16:
		return strconv.FormatInt(int64(cv), 10), true
	case int32:
		return strconv.FormatInt(int64(cv), 10), true
	case int64:
		return strconv.FormatInt(cv, 10), true
	case uint:
		return strconv.FormatUint(uint64(cv), 10), true
	case uint8:
		return strconv.FormatUint(uint64(cv), 10), true
	case uint16:
		return strconv.FormatUint(uint64(cv), 10), true
	case uint32:
		return strconv.FormatUint(uint64(cv), 10), true
	case uint64:
		return strconv.FormatUint(cv, 10), true
	}
	return "", false
}
