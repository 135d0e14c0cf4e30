package transport

import "testing"

func TestParseChatID(t *testing.T) {
	id, err := parseChatID("-1001234567890")
	if err != nil {
		t.Fatal(err)
	}
	if id != -1001234567890 {
		t.Fatalf("unexpected id: %d", id)
	}

	if _, err := parseChatID("not-a-number"); err == nil {
		t.Fatal("expected error for malformed chat ID")
	}
	if _, err := parseChatID(""); err == nil {
		t.Fatal("expected error for empty chat ID")
	}
}
