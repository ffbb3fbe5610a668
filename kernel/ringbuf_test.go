package kernel

import (
	"runtime"
	"sync"
	"testing"
)

func TestEventBufferTryPopEmpty(t *testing.T) {
	b := NewEventBuffer(8)

	if _, ok := b.TryPop(); ok {
		t.Fatalf("TryPop() ok = true, want false")
	}
	if w, r := b.write.Load(), b.read.Load(); w != 0 || r != 0 {
		t.Fatalf("indices after empty TryPop = (%d, %d), want (0, 0)", w, r)
	}
	if got := b.Len(); got != 0 {
		t.Fatalf("Len() = %d, want 0", got)
	}
}

func TestEventBufferPushFull(t *testing.T) {
	const capacity = 8
	b := NewEventBuffer(capacity)

	for i := 0; i < capacity-1; i++ {
		if ok := b.Push(byte('a' + i)); !ok {
			t.Fatalf("Push() ok = false at slot %d, want true", i)
		}
	}
	if !b.Full() {
		t.Fatalf("Full() = false with %d stored, want true", capacity-1)
	}

	w, r := b.write.Load(), b.read.Load()
	if ok := b.Push('z'); ok {
		t.Fatalf("Push() ok = true when full, want false")
	}
	if w2, r2 := b.write.Load(), b.read.Load(); w2 != w || r2 != r {
		t.Fatalf("indices after dropped Push = (%d, %d), want (%d, %d)", w2, r2, w, r)
	}
	if got := b.Len(); got != capacity-1 {
		t.Fatalf("Len() = %d, want %d", got, capacity-1)
	}

	for i := 0; i < capacity-1; i++ {
		c, ok := b.TryPop()
		if !ok {
			t.Fatalf("TryPop() ok = false at slot %d, want true", i)
		}
		if want := byte('a' + i); c != want {
			t.Fatalf("TryPop() = %q, want %q", c, want)
		}
	}
	if _, ok := b.TryPop(); ok {
		t.Fatalf("TryPop() ok = true after draining, want false")
	}
}

func TestEventBufferWraps(t *testing.T) {
	b := NewEventBuffer(4)

	var next, want byte
	for round := 0; round < 10; round++ {
		for i := 0; i < 2; i++ {
			if !b.Push(next) {
				t.Fatalf("round %d: Push(%d) ok = false, want true", round, next)
			}
			next++
		}
		for i := 0; i < 2; i++ {
			c, ok := b.TryPop()
			if !ok || c != want {
				t.Fatalf("round %d: TryPop() = %d, %v, want %d, true", round, c, ok, want)
			}
			want++
		}
	}
}

func TestEventBufferMinimumCapacity(t *testing.T) {
	b := NewEventBuffer(0)
	if got := b.Cap(); got != 2 {
		t.Fatalf("Cap() = %d, want 2", got)
	}
	if !b.Push('x') {
		t.Fatalf("Push() ok = false, want true")
	}
	if b.Push('y') {
		t.Fatalf("Push() ok = true with one slot reserved, want false")
	}
}

// Everything the producer managed to push must come out in order, and
// nothing else.
func TestEventBufferSingleProducerSingleConsumer(t *testing.T) {
	oldProcs := runtime.GOMAXPROCS(1)
	defer runtime.GOMAXPROCS(oldProcs)

	const total = 50_000

	b := NewEventBuffer(16)
	var accepted []byte
	var done sync.WaitGroup
	done.Add(1)
	finished := make(chan struct{})
	go func() {
		defer done.Done()
		defer close(finished)
		for i := 0; i < total; i++ {
			c := byte(i)
			if b.Push(c) {
				accepted = append(accepted, c)
			}
			if i%7 == 0 {
				runtime.Gosched()
			}
		}
	}()

	var got []byte
	for {
		if c, ok := b.TryPop(); ok {
			got = append(got, c)
			continue
		}
		select {
		case <-finished:
			for {
				c, ok := b.TryPop()
				if !ok {
					break
				}
				got = append(got, c)
			}
			done.Wait()
			if len(got) != len(accepted) {
				t.Fatalf("popped %d characters, want %d", len(got), len(accepted))
			}
			for i := range got {
				if got[i] != accepted[i] {
					t.Fatalf("pop %d = %d, want %d", i, got[i], accepted[i])
				}
			}
			return
		default:
			runtime.Gosched()
		}
	}
}
