package bus

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/RakhmaMed/Downloader-Bot/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPublishSubscribe(t *testing.T) {
	b := New(10, testLogger())
	defer b.Close()

	b.Publish(domain.InboundMessage{ChatID: "42", Text: "hello"})

	select {
	case msg := <-b.Subscribe():
		if msg.ChatID != "42" || msg.Text != "hello" {
			t.Fatalf("unexpected message: %+v", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestPublishAfterClose(t *testing.T) {
	b := New(10, testLogger())
	b.Close()

	// Must not panic on a closed bus.
	b.Publish(domain.InboundMessage{ChatID: "1", Text: "late"})
}

func TestCloseTwice(t *testing.T) {
	b := New(10, testLogger())
	b.Close()
	b.Close()
}

func TestSubscribeChannelClosedOnClose(t *testing.T) {
	b := New(1, testLogger())
	b.Close()

	_, ok := <-b.Subscribe()
	if ok {
		t.Fatal("expected closed channel after Close")
	}
}

func TestDefaultBufferSize(t *testing.T) {
	b := New(0, testLogger())
	defer b.Close()

	if cap(b.inbound) != 100 {
		t.Fatalf("expected default buffer 100, got %d", cap(b.inbound))
	}
}
