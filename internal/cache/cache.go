package cache

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/coocood/freecache"
)

// Results caches values by the content hash of an uploaded image. A nil
// *Results is a valid, always-missing cache.
type Results struct {
	store     *freecache.Cache
	ttlSecond int
}

// New returns nil when sizeBytes is zero.
func New(sizeBytes, ttlSeconds int) *Results {
	if sizeBytes <= 0 {
		return nil
	}
	return &Results{
		store:     freecache.NewCache(sizeBytes),
		ttlSecond: ttlSeconds,
	}
}

// Key hashes image bytes.
func Key(image []byte) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, xxhash.Sum64(image))
	return key
}

// Get decodes the entry for key into v. It reports false on a miss.
func (r *Results) Get(key []byte, v any) (bool, error) {
	if r == nil {
		return false, nil
	}
	data, err := r.store.Get(key)
	if errors.Is(err, freecache.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("corrupt cache entry: %w", err)
	}
	return true, nil
}

func (r *Results) Set(key []byte, v any) error {
	if r == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return r.store.Set(key, data, r.ttlSecond)
}

func (r *Results) HitRate() float64 {
	if r == nil {
		return 0
	}
	return r.store.HitRate()
}

func (r *Results) EntryCount() int64 {
	if r == nil {
		return 0
	}
	return r.store.EntryCount()
}
