package handlers

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSessionLocksSerializeSameSession(t *testing.T) {
	locks := NewSessionLocks()

	var wg sync.WaitGroup
	counter := 0
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock("sess-1")
			defer unlock()
			// unsynchronized increment; safe only under the session lock
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, counter)
	assert.Zero(t, locks.Len(), "released locks are dropped")
}

func TestSessionLocksIndependentSessions(t *testing.T) {
	locks := NewSessionLocks()

	unlockA := locks.Lock("a")
	done := make(chan struct{})
	go func() {
		unlockB := locks.Lock("b")
		unlockB()
		close(done)
	}()
	<-done

	assert.Equal(t, 1, locks.Len())
	unlockA()
	assert.Zero(t, locks.Len())
}
