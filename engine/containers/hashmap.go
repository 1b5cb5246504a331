package containers

import (
	"fmt"

	"golang.org/x/exp/constraints"
)

// hashBucket is a single slot of the open addressing table. A key of 0
// marks the bucket as empty.
type hashBucket[K constraints.Integer, V any] struct {
	key   K
	value V
}

/**
 * @brief Open addressing hash map with linear probing over a power of two table.
 * The zero key is reserved as the empty sentinel, so callers must never hash
 * a legitimate key to 0.
 *
 * A fixed table never resizes: once every bucket is taken Add fails and the
 * caller must treat that as a capacity error. A growable table doubles before
 * the load factor crosses 3/4.
 */
type HashMap[K constraints.Integer, V any] struct {
	buckets  []hashBucket[K, V]
	count    int
	growable bool
}

// NewHashMap creates a table holding at least capacity entries.
func NewHashMap[K constraints.Integer, V any](capacity int, growable bool) *HashMap[K, V] {
	return &HashMap[K, V]{
		buckets:  make([]hashBucket[K, V], nextPowerOfTwo(capacity)),
		growable: growable,
	}
}

func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// hashKey is the splitmix64 finalizer.
func hashKey[K constraints.Integer](key K) uint64 {
	x := uint64(key)
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}

// probe returns the index holding key, or the first empty bucket of its chain.
// found is false when the key is absent, and index is -1 when the table is exhausted.
func (hm *HashMap[K, V]) probe(key K) (index int, found bool) {
	mask := uint64(len(hm.buckets) - 1)
	hash := hashKey(key)
	for offset := uint64(0); offset < uint64(len(hm.buckets)); offset++ {
		i := int((hash + offset) & mask)
		switch hm.buckets[i].key {
		case key:
			return i, true
		case 0:
			return i, false
		}
	}
	return -1, false
}

/**
 * @brief Inserts key and returns a pointer to its zeroed value.
 * @param key The key to insert. Must not be 0.
 * @return nil and false if the key already exists or the table is full.
 */
func (hm *HashMap[K, V]) Add(key K) (*V, bool) {
	if key == 0 {
		panic("containers: hash map key 0 is reserved as the empty sentinel")
	}
	if hm.growable && (hm.count+1)*4 > len(hm.buckets)*3 {
		hm.resize(len(hm.buckets) * 2)
	}

	i, found := hm.probe(key)
	if found || i < 0 {
		return nil, false
	}
	hm.buckets[i].key = key
	hm.count++
	return &hm.buckets[i].value, true
}

// Get returns a pointer to the value stored for key.
func (hm *HashMap[K, V]) Get(key K) (*V, bool) {
	if key == 0 {
		return nil, false
	}
	i, found := hm.probe(key)
	if !found {
		return nil, false
	}
	return &hm.buckets[i].value, true
}

/**
 * @brief Removes key from the table. Entries further along the probe chain are
 * shifted back so lookups never stop early on the freed bucket.
 * @return true if the key was present.
 */
func (hm *HashMap[K, V]) Delete(key K) bool {
	if key == 0 {
		return false
	}
	i, found := hm.probe(key)
	if !found {
		return false
	}

	mask := len(hm.buckets) - 1
	hole := i
	for j := (i + 1) & mask; hm.buckets[j].key != 0; j = (j + 1) & mask {
		home := int(hashKey(hm.buckets[j].key) & uint64(mask))
		// move j into the hole unless its home lies cyclically in (hole, j]
		if (j > hole && (home <= hole || home > j)) || (j < hole && home <= hole && home > j) {
			hm.buckets[hole] = hm.buckets[j]
			hole = j
		}
	}
	hm.buckets[hole] = hashBucket[K, V]{}
	hm.count--
	return true
}

func (hm *HashMap[K, V]) resize(capacity int) {
	old := hm.buckets
	hm.buckets = make([]hashBucket[K, V], capacity)
	hm.count = 0
	for _, b := range old {
		if b.key == 0 {
			continue
		}
		i, _ := hm.probe(b.key)
		if i < 0 {
			panic(fmt.Sprintf("containers: hash map resize to %d lost key %d", capacity, b.key))
		}
		hm.buckets[i] = b
		hm.count++
	}
}

// Each visits every live entry in bucket order. Returning false stops the walk.
func (hm *HashMap[K, V]) Each(fn func(key K, value *V) bool) {
	for i := range hm.buckets {
		if hm.buckets[i].key == 0 {
			continue
		}
		if !fn(hm.buckets[i].key, &hm.buckets[i].value) {
			return
		}
	}
}

func (hm *HashMap[K, V]) Len() int {
	return hm.count
}

func (hm *HashMap[K, V]) Cap() int {
	return len(hm.buckets)
}
