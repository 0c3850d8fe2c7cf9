package chainmap

import (
	"math"
	"math/big"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultHasher(t *testing.T) {
	is := assert.New(t)

	is.Equal(DefaultHasher("a"), DefaultHasher("a"))
	is.NotEqual(DefaultHasher("a"), DefaultHasher("b"))
	is.Equal(DefaultHasher(math.Copysign(0, -1)), DefaultHasher(0.0))
	is.Equal(DefaultHasher(float32(1.5)), DefaultHasher(1.5))

	type point struct{ X, Y int }
	is.Equal(DefaultHasher(point{1, 2}), DefaultHasher(point{1, 2}))
	is.NotEqual(DefaultHasher(point{1, 2}), DefaultHasher(point{2, 1}))

	n := new(int)
	h := DefaultHasher(n)
	*n = 42
	is.Equal(h, DefaultHasher(n), "pointers hash by address")
}

// counterKey prints its pointee, which can change after the key is stored.
type counterKey struct{ n *int }

func (k counterKey) String() string {
	return strconv.Itoa(*k.n)
}

func TestDefaultHasherComposite(t *testing.T) {
	negZero := math.Copysign(0, -1)

	t.Run("struct with signed zero", func(t *testing.T) {
		type pt struct{ X float64 }
		is := assert.New(t)
		is.True(pt{negZero} == pt{0})
		is.Equal(DefaultHasher(pt{0}), DefaultHasher(pt{negZero}))
	})

	t.Run("array with signed zero", func(t *testing.T) {
		is := assert.New(t)
		is.Equal(DefaultHasher([2]float32{0, 1}), DefaultHasher([2]float32{float32(negZero), 1}))
		is.Equal(DefaultHasher([2]complex128{complex(negZero, 0)}), DefaultHasher([2]complex128{0}))
	})

	t.Run("interface holding struct", func(t *testing.T) {
		type pt struct{ X float64 }
		var a, b any = pt{0}, pt{negZero}
		assert.Equal(t, DefaultHasher(a), DefaultHasher(b))
	})

	t.Run("interface field", func(t *testing.T) {
		type tagged struct {
			Tag any
			N   int
		}
		is := assert.New(t)
		is.Equal(DefaultHasher(tagged{"a", 1}), DefaultHasher(tagged{"a", 1}))
		is.Equal(DefaultHasher(tagged{nil, 1}), DefaultHasher(tagged{nil, 1}))
		is.Equal(DefaultHasher(tagged{negZero, 1}), DefaultHasher(tagged{0.0, 1}))
	})

	t.Run("unexported fields", func(t *testing.T) {
		type secret struct {
			name string
			n    int
		}
		is := assert.New(t)
		is.Equal(DefaultHasher(secret{"a", 1}), DefaultHasher(secret{"a", 1}))
		is.NotEqual(DefaultHasher(secret{"a", 1}), DefaultHasher(secret{"b", 1}))
	})

	t.Run("blank fields are ignored", func(t *testing.T) {
		type padded struct {
			A int
			_ int
		}
		assert.Equal(t, DefaultHasher(padded{A: 1}), DefaultHasher(padded{A: 1}))
	})

	t.Run("pointer fields hash by address", func(t *testing.T) {
		type ref struct{ N *big.Int }
		k := ref{big.NewInt(1)}
		h := DefaultHasher(k)
		k.N.SetInt64(2)
		assert.Equal(t, h, DefaultHasher(k))
	})

	t.Run("stringer is not consulted", func(t *testing.T) {
		k := counterKey{new(int)}
		h := DefaultHasher(k)
		*k.n = 8
		assert.Equal(t, h, DefaultHasher(k))
	})

	t.Run("unhashable dynamic type", func(t *testing.T) {
		assert.Panics(t, func() {
			DefaultHasher[any]([]int{1})
		})
	})
}

func TestHash(t *testing.T) {
	t.Run("non-negative", func(t *testing.T) {
		m := Default[uint64, int](WithHasher(func(k uint64) uint64 {
			return k
		}))

		for _, k := range []uint64{0, 1, math.MaxUint32, math.MaxUint64, 1 << 31, 1<<63 | 1} {
			h := m.hash(k)
			assert.GreaterOrEqual(t, h, 0)
			assert.LessOrEqual(t, h, hashMask)
		}
	})

	t.Run("nil keys hash to zero", func(t *testing.T) {
		m := Default[*int, int](WithHasher(func(*int) uint64 {
			return 99
		}))

		assert.Equal(t, 0, m.hash(nil))
		assert.Equal(t, 99, m.hash(new(int)))
	})

	t.Run("interface nil", func(t *testing.T) {
		m := Default[any, int]()
		assert.Equal(t, 0, m.hash(nil))
	})

	t.Run("values are never nil", func(t *testing.T) {
		m := Default[int, int](WithHasher(func(k int) uint64 {
			return uint64(k)
		}))
		assert.False(t, m.nilable)
		assert.Equal(t, 0, m.hash(0))
		assert.Equal(t, 7, m.hash(7))
	})
}

func TestEqualFrom(t *testing.T) {
	eq := equalFrom[map[string]int](nil)
	assert.True(t, eq(nil, nil))
	assert.True(t, eq(map[string]int{"a": 1}, map[string]int{"a": 1}))
	assert.False(t, eq(nil, map[string]int{}))
}

func TestHasherFrom(t *testing.T) {
	var nilHasher Hasher[string]
	h := hasherFrom[string](nilHasher)
	assert.Equal(t, DefaultHasher("x"), h("x"))

	// A hasher for another key type is ignored.
	h = hasherFrom[string](Hasher[int](func(int) uint64 { return 1 }))
	assert.Equal(t, DefaultHasher("x"), h("x"))
}
