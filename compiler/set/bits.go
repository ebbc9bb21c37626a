package set

type (
	Key interface {
		~int | ~int64
	}

	// Bits is a dense set of non-negative keys.
	// The zero value is an empty set.
	Bits[K Key] struct {
		b  []uint64
		b0 [2]uint64
	}
)

func (s *Bits[K]) Set(k K) {
	i, j := ij(k)
	s.grow(i)

	s.b[i] |= 1 << j
}

func (s *Bits[K]) IsSet(k K) bool {
	i, j := ij(k)
	if i < 0 || i >= len(s.b) {
		return false
	}

	return s.b[i]&(1<<j) != 0
}

func ij[K Key](k K) (i, j int) {
	p := int(k)
	if p < 0 {
		return -1, 0
	}

	return p / 64, p % 64
}

func (s *Bits[K]) grow(i int) {
	if i < 0 {
		panic("negative key")
	}

	if s.b == nil {
		s.b = s.b0[:]
	}

	for i >= len(s.b) {
		s.b = append(s.b, 0)
	}
}
