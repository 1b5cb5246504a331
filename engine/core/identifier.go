package core

import (
	"fmt"
	"sync/atomic"
)

/**
 * @brief Hands out strictly increasing 32-bit serial numbers starting at 1.
 * 0 is never issued so it can mean "none". Released numbers are never handed
 * out again, which keeps stale references from resolving to a new owner.
 */
type SerialCounter struct {
	last atomic.Uint32
}

// NewSerialCounter creates a counter whose next serial is next (at least 1).
func NewSerialCounter(next uint32) *SerialCounter {
	sc := &SerialCounter{}
	if next > 1 {
		sc.last.Store(next - 1)
	}
	return sc
}

// Next returns a fresh serial. Panics when the 32-bit space is exhausted.
func (sc *SerialCounter) Next() uint32 {
	id := sc.last.Add(1)
	if id == 0 {
		panic(fmt.Sprintf("core: serial counter wrapped after %d", ^uint32(0)))
	}
	return id
}

// Peek returns the serial the next call to Next will hand out.
func (sc *SerialCounter) Peek() uint32 {
	return sc.last.Load() + 1
}

// Advance makes sure the next serial is at least next. Used when restoring
// state that was issued by an earlier session.
func (sc *SerialCounter) Advance(next uint32) {
	for {
		last := sc.last.Load()
		if last+1 >= next {
			return
		}
		if sc.last.CompareAndSwap(last, next-1) {
			return
		}
	}
}
