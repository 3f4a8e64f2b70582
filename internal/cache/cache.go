package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
	"sort"
	"time"

	"github.com/ppiankov/urd/internal/model"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// keyVersion is bumped whenever the entry encoding changes
const keyVersion = "urd:v2:"

// Key derives a cache key from a method, its parameters and the fields of
// every event the engines read. Pass-through attributes are not hashed.
func Key(method string, params map[string]float64, catalog model.Catalog) string {
	h := sha256.New()
	var buf [8]byte

	writeFloat := func(f float64) {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(f))
		h.Write(buf[:])
	}
	writeString := func(s string) {
		binary.LittleEndian.PutUint64(buf[:], uint64(len(s)))
		h.Write(buf[:])
		h.Write([]byte(s))
	}

	writeString(method)

	names := make([]string, 0, len(params))
	for k := range params {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		writeString(k)
		writeFloat(params[k])
	}

	binary.LittleEndian.PutUint64(buf[:], uint64(len(catalog)))
	h.Write(buf[:])
	for _, e := range catalog {
		writeString(e.ID)
		writeFloat(e.Magnitude)
		binary.LittleEndian.PutUint64(buf[:], uint64(e.Time.Unix()))
		h.Write(buf[:])
		binary.LittleEndian.PutUint64(buf[:], uint64(e.Time.Nanosecond()))
		h.Write(buf[:])
		writeFloat(e.Latitude)
		writeFloat(e.Longitude)
	}

	return keyVersion + hex.EncodeToString(h.Sum(nil))
}
