package utils

import "testing"

func TestResourceCursor_RoundTrip(t *testing.T) {
	enc, err := EncodeResourceCursor("Action", "e42b6ed3-0af3-49f0-9dcd-37aa7ed8c980")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	got, err := DecodeResourceCursor(enc)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Name != "Action" || got.ID != "e42b6ed3-0af3-49f0-9dcd-37aa7ed8c980" {
		t.Fatalf("unexpected cursor: %+v", got)
	}
}

func TestDecodeResourceCursor_Rejects(t *testing.T) {
	for _, raw := range []string{"", "!!!", "e30"} { // e30 = base64url("{}")
		if _, err := DecodeResourceCursor(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestResourceListCacheKey_SharesPrefix(t *testing.T) {
	k := BuildResourceListCacheKey("genres", 20, "")
	p := ResourceListCachePrefix("genres")
	if len(k) <= len(p) || k[:len(p)] != p {
		t.Fatalf("key %q does not start with prefix %q", k, p)
	}
}
