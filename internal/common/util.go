package common

import (
	"encoding/base64"
	"io"
)

// MakeRandBase64String draws size bytes from r and renders them with the
// standard base64 alphabet.
func MakeRandBase64String(r io.Reader, size int) (string, error) {
	b, err := ReadRandBytes(r, size)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// ReadRandBytes fills a fresh slice of length size from r. A short read is
// reported as an error.
func ReadRandBytes(r io.Reader, size int) ([]byte, error) {
	b := make([]byte, size)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return b, nil
}

// WipeByteArray overwrites b with zeros. Use it for passwords and keys once
// they are no longer needed. A nil slice is a no-op.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
