package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"image"
)

// hashKey generates a cache key by hashing the components.
// The key format is: prefix:hash(parts...)
func hashKey(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s:%s", prefix, hex.EncodeToString(hash[:]))
}

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// HashImage hashes the size and pixels of img. Images with equal pixels
// hash equally regardless of their encoding on disk.
func HashImage(img *image.NRGBA) string {
	h := sha256.New()
	w, ht := img.Rect.Dx(), img.Rect.Dy()
	var dims [8]byte
	binary.BigEndian.PutUint32(dims[:4], uint32(w))
	binary.BigEndian.PutUint32(dims[4:], uint32(ht))
	h.Write(dims[:])
	for y := 0; y < ht; y++ {
		off := img.PixOffset(img.Rect.Min.X, img.Rect.Min.Y+y)
		h.Write(img.Pix[off : off+4*w])
	}
	return hex.EncodeToString(h.Sum(nil))
}
