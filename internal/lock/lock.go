// Package lock сериализует записи в календарь одного сотрудника (и клиента)
// между процессами, чтобы проверка конфликтов и вставка не разъезжались.
package lock

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// ErrBusy — ключ так и не удалось захватить за отведённые попытки.
var ErrBusy = errors.New("calendar is busy, please try again later")

// Locker захватывает набор ключей целиком. unlock отпускает всё, что захвачено.
type Locker interface {
	Acquire(ctx context.Context, keys ...string) (unlock func(), err error)
}

func StaffKey(id uuid.UUID) string    { return "lock:calendar:staff:" + id.String() }
func CustomerKey(id uuid.UUID) string { return "lock:calendar:customer:" + id.String() }

// normalize — уникальные ключи в стабильном порядке, иначе два запроса
// с одинаковыми ключами в разном порядке ждут друг друга.
func normalize(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// ===== in-process =====

// LocalLocker — keyed mutex для одного процесса (и для тестов).
// Ключ живёт в карте, пока у него есть держатель или ожидающие.
type LocalLocker struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	ch   chan struct{}
	refs int // держатель + ожидающие
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{slots: make(map[string]*slot)}
}

func (l *LocalLocker) ref(key string) *slot {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, ok := l.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++
	return s
}

func (l *LocalLocker) unref(key string, s *slot) {
	l.mu.Lock()
	defer l.mu.Unlock()

	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
}

func (l *LocalLocker) Acquire(ctx context.Context, keys ...string) (func(), error) {
	type heldKey struct {
		key string
		s   *slot
	}

	keys = normalize(keys)
	held := make([]heldKey, 0, len(keys))

	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			<-held[i].s.ch
			l.unref(held[i].key, held[i].s)
		}
	}

	for _, k := range keys {
		s := l.ref(k)
		select {
		case s.ch <- struct{}{}:
			held = append(held, heldKey{key: k, s: s})
		case <-ctx.Done():
			l.unref(k, s)
			release()
			return nil, fmt.Errorf("%w: %w", ErrBusy, ctx.Err())
		}
	}

	var once sync.Once
	return func() { once.Do(release) }, nil
}
