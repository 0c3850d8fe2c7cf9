package chainmap

import (
	"encoding/binary"
	"math"
	"reflect"

	"github.com/alextanhongpin/chainmap/internal"
	"github.com/cespare/xxhash/v2"
)

// hashMask keeps the folded hash in the non-negative int32 range.
const hashMask = 0x7FFFFFFF

// Hasher returns a structural hash for a key. Equal keys must produce equal
// hashes.
type Hasher[K comparable] func(K) uint64

// DefaultHasher hashes keys with xxhash so that keys equal under == hash
// equally. Strings, numbers and booleans hash by value with -0 and +0
// folded together. Pointers and channels hash by address. Structs and
// arrays hash every field or element in order, and interfaces hash their
// dynamic type and value.
func DefaultHasher[K comparable](k K) uint64 {
	switch v := any(k).(type) {
	case string:
		return xxhash.Sum64String(v)
	case int:
		return sum64(uint64(v))
	case int8:
		return sum64(uint64(v))
	case int16:
		return sum64(uint64(v))
	case int32:
		return sum64(uint64(v))
	case int64:
		return sum64(uint64(v))
	case uint:
		return sum64(uint64(v))
	case uint8:
		return sum64(uint64(v))
	case uint16:
		return sum64(uint64(v))
	case uint32:
		return sum64(uint64(v))
	case uint64:
		return sum64(v)
	case uintptr:
		return sum64(uint64(v))
	case bool:
		if v {
			return sum64(1)
		}
		return sum64(0)
	case float32:
		return sum64(floatBits(float64(v)))
	case float64:
		return sum64(floatBits(v))
	default:
		d := xxhash.New()
		writeValue(d, reflect.ValueOf(v))
		return d.Sum64()
	}
}

func sum64(n uint64) uint64 {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], n)
	return xxhash.Sum64(b[:])
}

// floatBits maps -0 and +0 to the same bits.
func floatBits(f float64) uint64 {
	if f == 0 {
		return 0
	}
	return math.Float64bits(f)
}

func writeUint(d *xxhash.Digest, n uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], n)
	d.Write(b[:])
}

// writeValue feeds v into d following the rules of ==. Unexported fields are
// read through the Int, Float and String accessors, which reflect allows.
func writeValue(d *xxhash.Digest, v reflect.Value) {
	switch v.Kind() {
	case reflect.Invalid:
		writeUint(d, 0)
	case reflect.Bool:
		if v.Bool() {
			writeUint(d, 1)
		} else {
			writeUint(d, 0)
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		writeUint(d, uint64(v.Int()))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		writeUint(d, v.Uint())
	case reflect.Float32, reflect.Float64:
		writeUint(d, floatBits(v.Float()))
	case reflect.Complex64, reflect.Complex128:
		c := v.Complex()
		writeUint(d, floatBits(real(c)))
		writeUint(d, floatBits(imag(c)))
	case reflect.String:
		s := v.String()
		writeUint(d, uint64(len(s)))
		d.WriteString(s)
	case reflect.Pointer, reflect.Chan, reflect.UnsafePointer:
		writeUint(d, uint64(v.Pointer()))
	case reflect.Interface:
		if v.IsNil() {
			writeUint(d, 0)
			return
		}
		e := v.Elem()
		d.WriteString(e.Type().String())
		writeValue(d, e)
	case reflect.Array:
		for i := range v.Len() {
			writeValue(d, v.Index(i))
		}
	case reflect.Struct:
		t := v.Type()
		for i := range t.NumField() {
			// == ignores blank fields.
			if t.Field(i).Name == "_" {
				continue
			}
			writeValue(d, v.Field(i))
		}
	default:
		// Slices, maps and funcs are not comparable and cannot be keys.
		panic("chainmap: unhashable key type " + v.Type().String())
	}
}

// hash folds the 64-bit hash into 31 bits. Nil keys hash to 0.
func (m *Map[K, V]) hash(k K) int {
	if m.nilable && internal.IsNil(k) {
		return 0
	}

	h := m.hasher(k)
	return int(uint32(h^(h>>32)) & hashMask)
}

func indexFor(hash, n int) int {
	return hash % n
}
