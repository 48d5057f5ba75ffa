package lock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestLocalLocker_SerializesSameKey(t *testing.T) {
	l := NewLocalLocker()
	staff := StaffKey(uuid.New())

	var (
		mu      sync.Mutex
		inside  int
		maxSeen int
		wg      sync.WaitGroup
	)

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Acquire(context.Background(), staff)
			if err != nil {
				t.Errorf("acquire: %v", err)
				return
			}
			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()

			time.Sleep(2 * time.Millisecond)

			mu.Lock()
			inside--
			mu.Unlock()
			unlock()
		}()
	}
	wg.Wait()

	if maxSeen != 1 {
		t.Fatalf("expected at most one holder, got %d", maxSeen)
	}
	if n := l.size(); n != 0 {
		t.Fatalf("expected released keys to be dropped, got %d left", n)
	}
}

func (l *LocalLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}

func TestLocalLocker_TimesOutAndReleasesPartialSet(t *testing.T) {
	l := NewLocalLocker()
	a, b := StaffKey(uuid.New()), CustomerKey(uuid.New())

	unlockB, err := l.Acquire(context.Background(), b)
	if err != nil {
		t.Fatalf("acquire b: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := l.Acquire(ctx, a, b); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}

	// a должен быть отпущен после неудачи
	unlockA, err := l.Acquire(context.Background(), a)
	if err != nil {
		t.Fatalf("expected a to be free, got %v", err)
	}
	unlockA()
	unlockB()
	unlockB()

	if n := l.size(); n != 0 {
		t.Fatalf("expected no keys after release, got %d", n)
	}
}

func TestNormalize(t *testing.T) {
	got := normalize([]string{"b", "", "a", "b"})
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("expected [a b], got %v", got)
	}
}
