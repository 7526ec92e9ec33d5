package keyvending

import (
	"encoding/base64"
	"testing"
)

func TestEncodePublicKeysetHandleEmpty(t *testing.T) {
	got, err := EncodePublicKeysetHandle("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "" {
		t.Fatalf("expected empty handle, got %q", got)
	}
}

func TestEncodePublicKeysetHandleRoundTripsKeyCount(t *testing.T) {
	jsonKeyset := `{"primaryKeyId":7,"key":[{"keyData":{}},{"keyData":{}}]}`
	encoded, err := EncodePublicKeysetHandle(jsonKeyset)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	binary, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(binary) == 0 {
		t.Fatal("expected non-empty binary keyset")
	}
	// Layout: uvarint(primaryKeyId), uvarint(len(key)), then each key.
	if len(binary) < 2 || binary[0] != 7 || binary[1] != 2 {
		t.Fatalf("expected primary key id 7 and key count 2 in binary keyset, got %v", binary)
	}
}

func TestEncodePublicKeysetHandleRejectsInvalidJSON(t *testing.T) {
	if _, err := EncodePublicKeysetHandle("not-json"); err == nil {
		t.Fatal("expected error for invalid json keyset")
	}
}
