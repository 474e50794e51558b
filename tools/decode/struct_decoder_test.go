package decode

import (
	"testing"
)

type samplePayload struct {
	ChatID  string   `json:"chat_id"`
	Seq     int      `json:"seq"`
	Tags    []string `json:"tags"`
	Enabled bool     `json:"enabled"`
}

func TestDecodeMapByJSONTag(t *testing.T) {
	got, err := DecodeMap[samplePayload](map[string]any{
		"chat_id": "42",
		"seq":     float64(7), // JSON numbers arrive as float64
		"tags":    []any{"a", "b"},
		"enabled": true,
	})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ChatID != "42" || got.Seq != 7 || !got.Enabled {
		t.Fatalf("decoded %+v", got)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "a" {
		t.Fatalf("tags = %v", got.Tags)
	}
}

func TestDecodeMapMissingFieldsZeroValued(t *testing.T) {
	got, err := DecodeMap[samplePayload](map[string]any{"chat_id": "42"})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ChatID != "42" || got.Seq != 0 || got.Enabled {
		t.Fatalf("decoded %+v", got)
	}
}

func TestDecodeMapNilInput(t *testing.T) {
	got, err := DecodeMap[samplePayload](nil)
	if err != nil {
		t.Fatalf("decode nil: %v", err)
	}
	if got.ChatID != "" {
		t.Fatalf("decoded %+v", got)
	}
}

func TestDecodeMapWeakCoercion(t *testing.T) {
	// Weak typing wraps a scalar into a one-element slice and parses
	// numeric strings into ints.
	got, err := DecodeMap[samplePayload](map[string]any{
		"tags": "solo",
		"seq":  "7",
	})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.Tags) != 1 || got.Tags[0] != "solo" {
		t.Fatalf("tags = %v", got.Tags)
	}
	if got.Seq != 7 {
		t.Fatalf("seq = %d", got.Seq)
	}
}

func TestDecodeMapUndecodableValue(t *testing.T) {
	// Even weak typing cannot turn a non-numeric string into an int.
	if _, err := DecodeMap[samplePayload](map[string]any{"seq": "not-a-number"}); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestReadString(t *testing.T) {
	m := map[string]any{"token": "abc", "n": float64(1)}
	if s, err := ReadString(m, "token"); err != nil || s != "abc" {
		t.Fatalf("ReadString = %q, %v", s, err)
	}
	if _, err := ReadString(m, "missing"); err == nil {
		t.Fatal("expected error for missing key")
	}
	if _, err := ReadString(m, "n"); err == nil {
		t.Fatal("expected error for non-string value")
	}
}

func TestToMapRoundTrip(t *testing.T) {
	type doc struct {
		ID   string `json:"id"`
		Size int64  `json:"size"`
	}
	m, err := ToMap(doc{ID: "f1", Size: 1024})
	if err != nil {
		t.Fatalf("to map: %v", err)
	}
	if m["id"] != "f1" || m["size"] != float64(1024) {
		t.Fatalf("map = %v", m)
	}
}
