package realtime

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/five82/frontdesk/internal/clock"
	"github.com/five82/frontdesk/internal/protocol"
)

func msg(text string) protocol.Outbound {
	return protocol.Outbound{Type: protocol.TypeSendMessage, Data: protocol.SendMessageData{WaID: "1", Message: text}}
}

func resolved(t *testing.T, ch <-chan bool) (bool, bool) {
	t.Helper()
	select {
	case v := <-ch:
		return v, true
	default:
		return false, false
	}
}

func TestQueue_SendsImmediatelyWhenOpen(t *testing.T) {
	tr := &fakeTransport{open: true}
	q := NewQueue(tr, clock.NewManual(t0), 0, zerolog.Nop())

	if !q.Send(context.Background(), msg("hi")) {
		t.Fatalf("Send on open transport = false")
	}
	if q.Len() != 0 {
		t.Fatalf("queue length = %d, want 0", q.Len())
	}
	if w := tr.written(); len(w) != 1 || !strings.Contains(w[0], `"conversation_send_message"`) {
		t.Fatalf("writes = %v", w)
	}
}

func TestQueue_ExpiresStaleEntriesBeforeDelivery(t *testing.T) {
	clk := clock.NewManual(t0)
	tr := &fakeTransport{}
	q := NewQueue(tr, clk, 10*time.Second, zerolog.Nop())

	a := q.Submit(context.Background(), msg("a"))
	clk.Advance(time.Second)
	b := q.Submit(context.Background(), msg("b"))
	clk.Advance(10 * time.Second)
	c := q.Submit(context.Background(), msg("c"))
	clk.Advance(time.Second) // t0+12s

	tr.set(true, nil)
	sent, expired := q.Flush(context.Background())
	if sent != 1 || expired != 2 {
		t.Fatalf("Flush = sent %d expired %d, want 1 and 2", sent, expired)
	}
	for name, ch := range map[string]<-chan bool{"a": a, "b": b} {
		if v, ok := resolved(t, ch); !ok || v {
			t.Fatalf("%s resolved=%v value=%v, want false", name, ok, v)
		}
	}
	if v, ok := resolved(t, c); !ok || !v {
		t.Fatalf("c resolved=%v value=%v, want true", ok, v)
	}
	if w := tr.written(); len(w) != 1 || !strings.Contains(w[0], `"c"`) {
		t.Fatalf("writes = %v, want only c", w)
	}
}

func TestQueue_FlushPreservesOrder(t *testing.T) {
	tr := &fakeTransport{}
	q := NewQueue(tr, clock.NewManual(t0), 0, zerolog.Nop())
	for _, s := range []string{"one", "two", "three"} {
		q.Submit(context.Background(), msg(s))
	}

	tr.set(true, nil)
	// A new submit must not overtake the waiting entries.
	last := q.Submit(context.Background(), msg("four"))
	if q.Len() != 4 {
		t.Fatalf("queue length = %d, want 4", q.Len())
	}
	q.Flush(context.Background())

	w := tr.written()
	if len(w) != 4 {
		t.Fatalf("writes = %d, want 4", len(w))
	}
	for i, want := range []string{"one", "two", "three", "four"} {
		if !strings.Contains(w[i], `"`+want+`"`) {
			t.Fatalf("write %d = %s, want %s", i, w[i], want)
		}
	}
	if v, ok := resolved(t, last); !ok || !v {
		t.Fatalf("last resolved=%v value=%v", ok, v)
	}
}

func TestQueue_WriteFailureKeepsHead(t *testing.T) {
	tr := &fakeTransport{open: true, failing: errors.New("broken pipe")}
	q := NewQueue(tr, clock.NewManual(t0), 0, zerolog.Nop())

	ch := q.Submit(context.Background(), msg("x"))
	if q.Len() != 1 {
		t.Fatalf("failed immediate write should enqueue")
	}
	if sent, _ := q.Flush(context.Background()); sent != 0 {
		t.Fatalf("Flush sent %d with failing transport", sent)
	}
	if _, ok := resolved(t, ch); ok {
		t.Fatalf("entry resolved while transport failing")
	}

	tr.set(true, nil)
	if sent, _ := q.Flush(context.Background()); sent != 1 {
		t.Fatalf("Flush after recovery sent %d, want 1", sent)
	}
	if v, ok := resolved(t, ch); !ok || !v {
		t.Fatalf("entry resolved=%v value=%v, want true", ok, v)
	}
}

func TestQueue_SendHonoursContext(t *testing.T) {
	q := NewQueue(&fakeTransport{}, clock.NewManual(t0), 0, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if q.Send(ctx, msg("x")) {
		t.Fatalf("Send with cancelled ctx = true")
	}
	if n := q.Drain(); n != 1 {
		t.Fatalf("Drain = %d, want 1", n)
	}
}

func TestQueue_UnencodableMessageFails(t *testing.T) {
	q := NewQueue(&fakeTransport{open: true}, nil, 0, zerolog.Nop())
	if q.Send(context.Background(), protocol.Outbound{}) {
		t.Fatalf("Send of message without type = true")
	}
}
