package coco

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
)

// DefaultSeed is the shuffle seed used when none is configured. Keeping it
// fixed makes the train/test assignment of every image auditable.
const DefaultSeed int64 = 10

// ErrInvalidRatio is returned by Split for ratios outside (0, 1].
var ErrInvalidRatio = errors.New("train ratio must be in (0, 1]")

// Split shuffles a copy of images with a PCG source seeded by seed and cuts
// it at floor(len*ratio): the head is the train split, the tail the test
// split. The input slice is not modified. A ratio of 1 yields an empty test
// split.
func Split(images []string, ratio float64, seed int64) (train, test []string, err error) {
	if !(ratio > 0 && ratio <= 1) {
		return nil, nil, fmt.Errorf("%w: got %v", ErrInvalidRatio, ratio)
	}

	shuffled := make([]string, len(images))
	copy(shuffled, images)
	r := rand.New(rand.NewPCG(uint64(seed), 0))
	r.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	cut := int(math.Floor(float64(len(shuffled)) * ratio))
	return shuffled[:cut:cut], shuffled[cut:], nil
}
