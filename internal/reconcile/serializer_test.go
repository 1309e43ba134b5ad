package reconcile

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestSerializerNoOverlappingCriticalSections(t *testing.T) {
	s := NewSerializer()
	var active, maxActive int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.Acquire(context.Background()); err != nil {
				t.Errorf("acquire failed: %v", err)
				return
			}
			n := atomic.AddInt32(&active, 1)
			if n > atomic.LoadInt32(&maxActive) {
				atomic.StoreInt32(&maxActive, n)
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&active, -1)
			s.Release()
		}()
	}
	wg.Wait()
	if got := atomic.LoadInt32(&maxActive); got != 1 {
		t.Fatalf("critical sections overlapped: max active %d", got)
	}
}

func TestSerializerAcquireHonorsContext(t *testing.T) {
	s := NewSerializer()
	if err := s.Acquire(context.Background()); err != nil {
		t.Fatalf("first acquire failed: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := s.Acquire(ctx); err == nil {
		t.Fatalf("second acquire should fail while gate is held")
	}
	s.Release()
	if !s.TryAcquire() {
		t.Fatalf("gate should be free after release")
	}
	s.Release()
}

func TestSerializerTryAcquire(t *testing.T) {
	s := NewSerializer()
	if !s.TryAcquire() {
		t.Fatalf("fresh gate should acquire")
	}
	if s.TryAcquire() {
		t.Fatalf("held gate should not acquire")
	}
	s.Release()
}
