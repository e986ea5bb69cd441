package box

import (
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// Codec translates box values to and from their stored byte form.
// It is the engine's native binary codec: values the storage strategy
// layer classifies as natively storable pass through it unchanged.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte) (any, error)
}

// encMode is the CBOR encoder configured with Core Deterministic
// Encoding (RFC 8949 §4.2): sorted map keys, smallest integer encoding,
// no indefinite-length items. Same logical value, same bytes.
var encMode cbor.EncMode

// decMode is the CBOR decoder. Any-typed targets decode maps as
// map[string]any rather than the CBOR default map[any]any, since box
// values never use non-string map keys.
var decMode cbor.DecMode

func init() {
	var err error

	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("box: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("box: CBOR decoder initialization failed: " + err.Error())
	}
}

// CBORCodec is the default Codec. CBOR covers exactly the native value
// set: nil, booleans, integers, floats, strings, byte strings, arrays,
// and string-keyed maps.
type CBORCodec struct{}

var _ Codec = CBORCodec{}

// Marshal encodes v to deterministic CBOR.
func (CBORCodec) Marshal(v any) ([]byte, error) {
	data, err := encMode.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("box: encode value: %w", err)
	}
	return data, nil
}

// Unmarshal decodes CBOR data into its generic Go form.
func (CBORCodec) Unmarshal(data []byte) (any, error) {
	var v any
	if err := decMode.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("box: decode value: %w", err)
	}
	return v, nil
}
