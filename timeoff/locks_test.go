package timeoff

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmployeeLocks_SerializesSameKey(t *testing.T) {
	locks := newEmployeeLocks()
	counter := 0
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock("ana@example.com")
			defer unlock()
			v := counter
			counter = v + 1
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
	assert.Equal(t, 0, locks.size(), "entries are released once unused")
}

func TestEmployeeLocks_IndependentKeys(t *testing.T) {
	locks := newEmployeeLocks()

	unlockA := locks.Lock("a@example.com")
	unlockB := locks.Lock("b@example.com")
	assert.Equal(t, 2, locks.size())

	unlockA()
	unlockB()
	assert.Equal(t, 0, locks.size())
}
