package blob

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// Compression scheme names. Compression runs per chunk before sealing, so
// chunk descriptors keep their plaintext sizes while ciphertext lengths
// vary.
const (
	CompressNone = ""
	CompressZstd = "zstd"
)

var (
	zstdEnc *zstd.Encoder
	zstdDec *zstd.Decoder
)

func init() {
	var err error
	zstdEnc, err = zstd.NewWriter(nil)
	if err == nil {
		zstdDec, err = zstd.NewReader(nil)
	}
	if err != nil {
		panic("blob: zstd init: " + err.Error())
	}
}

// compress compresses data using the named scheme.
func compress(data []byte, scheme string) ([]byte, error) {
	switch scheme {
	case CompressNone:
		return data, nil
	case CompressZstd:
		return zstdEnc.EncodeAll(data, nil), nil
	default:
		return nil, ErrUnsupportedCompression
	}
}

// decompress reverses compress. It runs after authentication, so a
// failure here means the artifact was written malformed, not tampered.
func decompress(data []byte, scheme string) ([]byte, error) {
	switch scheme {
	case CompressNone:
		return data, nil
	case CompressZstd:
		out, err := zstdDec.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorruptArtifact, err)
		}
		return out, nil
	default:
		return nil, ErrUnsupportedCompression
	}
}
