package storage

import (
	"encoding/binary"
	"github.com/zeebo/xxh3"
	"hash/maphash"
)

var seed = maphash.MakeSeed()

// hashKey maps a key onto 64 bits. String and integer keys go through xxh3,
// everything else through the runtime's comparable hash.
func hashKey[K comparable](key K) uint64 {
	switch k := any(key).(type) {
	case string:
		return xxh3.HashString(k)
	case int:
		return hashUint64(uint64(k))
	case int64:
		return hashUint64(uint64(k))
	case uint64:
		return hashUint64(k)
	default:
		return maphash.Comparable(seed, key)
	}
}

func hashUint64(v uint64) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	return xxh3.Hash(buf[:])
}
