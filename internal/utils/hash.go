package utils

import (
	"hash/fnv"
	"strconv"
)

// HashKey is a stable FNV-64a digest of parts, NUL-separated so that
// ("ab","c") and ("a","bc") differ. The result is lower-case hex.
func HashKey(parts ...string) string {
	h := fnv.New64a()
	for i, p := range parts {
		if i > 0 {
			_, _ = h.Write([]byte{0})
		}
		_, _ = h.Write([]byte(p))
	}
	return strconv.FormatUint(h.Sum64(), 16)
}
