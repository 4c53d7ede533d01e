package validator

import (
	"bytes"
	"fmt"
	"image"
	"sync"

	"github.com/corona10/goimagehash"
)

// SimilarIndex remembers perceptual hashes of accepted images so visually
// identical pins served under different URLs can be skipped.
type SimilarIndex struct {
	mu        sync.Mutex
	threshold int
	hashes    []*goimagehash.ImageHash
}

// NewSimilarIndex creates an index; images whose hash distance to a stored
// hash is at most threshold count as duplicates.
func NewSimilarIndex(threshold int) *SimilarIndex {
	return &SimilarIndex{threshold: threshold}
}

// Check hashes data and reports whether it is a near-duplicate of a
// recorded image. Nothing is recorded; pass the returned hash to Add once
// the image has actually been kept.
func (s *SimilarIndex) Check(data []byte) (*goimagehash.ImageHash, bool, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, false, fmt.Errorf("decode image: %w", err)
	}

	hash, err := goimagehash.PerceptionHash(img)
	if err != nil {
		return nil, false, fmt.Errorf("hash image: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, known := range s.hashes {
		distance, err := hash.Distance(known)
		if err != nil {
			continue
		}
		if distance <= s.threshold {
			return hash, true, nil
		}
	}
	return hash, false, nil
}

// Add records hash so later near-duplicates are caught
func (s *SimilarIndex) Add(hash *goimagehash.ImageHash) {
	if hash == nil {
		return
	}
	s.mu.Lock()
	s.hashes = append(s.hashes, hash)
	s.mu.Unlock()
}

// Len returns the number of recorded hashes
func (s *SimilarIndex) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.hashes)
}
