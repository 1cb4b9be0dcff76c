package processor

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestChannelFIFO(t *testing.T) {
	ch := NewChannel()

	if _, ok := ch.Poll(); ok {
		t.Fatal("poll on empty channel returned an event")
	}

	ch.Push(Event{Kind: EventLog, Text: "one"})
	ch.Push(Event{Kind: EventTotal, Total: 3})
	ch.Push(Event{Kind: EventLog, Text: "two"})

	var texts []string
	for {
		e, ok := ch.Poll()
		if !ok {
			break
		}
		if e.Time.IsZero() {
			t.Fatal("event not timestamped")
		}
		texts = append(texts, e.Kind.String()+":"+e.Text)
	}
	want := []string{"log:one", "total:", "log:two"}
	if len(texts) != len(want) {
		t.Fatalf("got %v, want %v", texts, want)
	}
	for i := range want {
		if texts[i] != want[i] {
			t.Fatalf("got %v, want %v", texts, want)
		}
	}
}

func TestChannelConcurrentProducers(t *testing.T) {
	ch := NewChannel()

	const producers, each = 8, 200
	var wg sync.WaitGroup
	wg.Add(producers)
	for p := 0; p < producers; p++ {
		go func(p int) {
			defer wg.Done()
			for i := 0; i < each; i++ {
				ch.Push(Event{Kind: EventProgress, Processed: p*each + i})
			}
		}(p)
	}

	seen := 0
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	for {
		if _, ok := ch.Poll(); ok {
			seen++
			continue
		}
		select {
		case <-done:
			seen += len(ch.Drain())
			if seen != producers*each {
				t.Fatalf("got %d events, want %d", seen, producers*each)
			}
			return
		default:
		}
	}
}

func TestFollowStopsAtTerminal(t *testing.T) {
	ch := NewChannel()
	go func() {
		ch.Push(Event{Kind: EventLog, Text: "working"})
		time.Sleep(20 * time.Millisecond)
		ch.Push(Event{Kind: EventCompleted, Processed: 1, Total: 1})
		ch.Push(Event{Kind: EventLog, Text: "after"})
	}()

	var kinds []EventKind
	last, err := Follow(context.Background(), ch, 5*time.Millisecond, func(e Event) {
		kinds = append(kinds, e.Kind)
	})
	if err != nil {
		t.Fatalf("follow: %v", err)
	}
	if last.Kind != EventCompleted {
		t.Fatalf("got terminal %s", last.Kind)
	}
	if len(kinds) != 2 || kinds[0] != EventLog || kinds[1] != EventCompleted {
		t.Fatalf("unexpected events %v", kinds)
	}
}

func TestFollowContextCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	if _, err := Follow(ctx, NewChannel(), 5*time.Millisecond, nil); err == nil {
		t.Fatal("expected context error")
	}
}
