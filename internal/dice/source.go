package dice

import (
	"crypto/rand"
	"math/big"
	mrand "math/rand"
	"sync"
)

// Source yields uniform integers in [0, n). Implementations must be safe for
// concurrent use.
type Source interface {
	Intn(n int) int
}

type seededSource struct {
	mu  sync.Mutex
	rng *mrand.Rand
}

// NewSeededSource returns a deterministic source. Parallel handlers may share
// it; draws are serialized so sequences never interleave mid-draw.
func NewSeededSource(seed int64) Source {
	return &seededSource{rng: mrand.New(mrand.NewSource(seed))}
}

func (s *seededSource) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(n)
}

type cryptoSource struct{}

// NewCryptoSource returns a source backed by crypto/rand.
func NewCryptoSource() Source {
	return cryptoSource{}
}

func (cryptoSource) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(v.Int64())
}

// SequenceSource replays scripted die faces, cycling when exhausted.
type SequenceSource struct {
	mu    sync.Mutex
	faces []int
	next  int
}

// Sequence scripts the faces the next dice will show, e.g. Sequence(12, 4)
// makes a d20 show 12 and then a d6 show 4.
func Sequence(faces ...int) *SequenceSource {
	return &SequenceSource{faces: faces}
}

func (s *SequenceSource) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.faces) == 0 {
		return 0
	}
	face := s.faces[s.next%len(s.faces)]
	s.next++
	switch {
	case face < 1:
		return 0
	case face > n:
		return n - 1
	}
	return face - 1
}

// Drawn reports how many faces have been consumed.
func (s *SequenceSource) Drawn() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}
