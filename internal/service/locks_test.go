package service

import (
	"sync"
	"testing"
)

func TestRecordLockerSerializesSameKey(t *testing.T) {
	locker := NewRecordLocker()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locker.Lock(1, 1)
			defer unlock()

			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()

			mu.Lock()
			inside--
			mu.Unlock()
		}()
	}
	wg.Wait()

	if maxSeen != 1 {
		t.Fatalf("max concurrent holders = %d, want 1", maxSeen)
	}
	if n := locker.size(); n != 0 {
		t.Fatalf("locker keeps %d entries after release", n)
	}
}

func TestRecordLockerIndependentKeys(t *testing.T) {
	locker := NewRecordLocker()

	unlockA := locker.Lock(1, 1)
	done := make(chan struct{})
	go func() {
		unlockB := locker.Lock(1, 2)
		unlockB()
		close(done)
	}()
	<-done
	unlockA()

	if n := locker.size(); n != 0 {
		t.Fatalf("locker keeps %d entries after release", n)
	}
}
