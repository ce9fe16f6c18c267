package crypto

import (
	"testing"
)

func TestSecureWipe(t *testing.T) {
	data := []byte{1, 2, 3, 4, 5}
	if err := SecureWipe(data); err != nil {
		t.Fatalf("SecureWipe failed: %v", err)
	}
	for i, b := range data {
		if b != 0 {
			t.Fatalf("byte %d not wiped: %d", i, b)
		}
	}

	if err := SecureWipe(nil); err == nil {
		t.Error("SecureWipe(nil) should return an error")
	}
}

func TestZeroBytesIgnoresEmpty(t *testing.T) {
	ZeroBytes(nil)
	ZeroBytes([]byte{})

	data := []byte{0xaa, 0xbb}
	ZeroBytes(data)
	if data[0] != 0 || data[1] != 0 {
		t.Errorf("ZeroBytes did not clear data: %x", data)
	}
}
