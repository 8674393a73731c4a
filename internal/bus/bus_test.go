package bus

import (
	"io"
	"log/slog"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBus_PublishSubscribe(t *testing.T) {
	b := New(10, testLogger())
	defer b.Close()

	b.Publish(Event{Worker: 1, Message: "first"})
	b.Publish(Event{Worker: 2, Message: "second"})

	evt := <-b.Subscribe()
	if evt.Worker != 1 || evt.Message != "first" {
		t.Fatalf("unexpected first event: %+v", evt)
	}
	if evt.Time.IsZero() {
		t.Fatal("publish must stamp a time")
	}

	evt = <-b.Subscribe()
	if evt.Worker != 2 || evt.Message != "second" {
		t.Fatalf("unexpected second event: %+v", evt)
	}
}

func TestBus_PreservesOrder(t *testing.T) {
	b := New(32, testLogger())
	defer b.Close()

	for i := 0; i < 20; i++ {
		b.Publish(Event{Worker: 1, Message: string(rune('a' + i))})
	}
	events := b.Subscribe()
	for i := 0; i < 20; i++ {
		evt := <-events
		if evt.Message != string(rune('a'+i)) {
			t.Fatalf("event %d out of order: %q", i, evt.Message)
		}
	}
}

func TestBus_CloseEndsStream(t *testing.T) {
	b := New(4, testLogger())

	b.Publish(Event{Worker: 1, Message: "last"})
	b.Close()

	events := b.Subscribe()
	if evt, ok := <-events; !ok || evt.Message != "last" {
		t.Fatalf("buffered event lost on close: %+v ok=%v", evt, ok)
	}
	if _, ok := <-events; ok {
		t.Fatal("stream not closed")
	}
}

func TestBus_PublishAfterCloseIsNoOp(t *testing.T) {
	b := New(4, testLogger())
	b.Close()

	// must not panic on the closed channel
	b.Publish(Event{Worker: 1, Message: "late"})
}

func TestBus_DoubleCloseIsSafe(t *testing.T) {
	b := New(4, testLogger())
	b.Close()
	b.Close()
}

func TestBus_SlowConsumerBlocksUntilDrained(t *testing.T) {
	b := New(1, testLogger())
	defer b.Close()

	b.Publish(Event{Worker: 1, Message: "fills the buffer"})

	done := make(chan struct{})
	go func() {
		b.Publish(Event{Worker: 1, Message: "waits"})
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("publish returned before the buffer had room")
	case <-time.After(50 * time.Millisecond):
	}

	<-b.Subscribe()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish did not complete after drain")
	}
}
