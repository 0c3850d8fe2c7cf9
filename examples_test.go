package chainmap_test

import (
	"fmt"

	"github.com/alextanhongpin/chainmap"
)

func ExampleDefault() {
	m := chainmap.Default[string, int]()
	fmt.Println(m.IsEmpty())
	fmt.Println(m.Size())
	fmt.Println(m.Put("Tom", 5))
	fmt.Println(m.Put("Jerry", 10))
	fmt.Println(m.Get("Tom"))
	fmt.Println(m.Put("Tom", 10))
	fmt.Println(m.Size())
	fmt.Println(m.Remove("Tom"))
	fmt.Println(m.Get("Tom"))
	fmt.Println(m.Size())
	// Output:
	// true
	// 0
	// 0 false
	// 0 false
	// 5 true
	// 5 true
	// 2
	// 10 true
	// 0 false
	// 1
}

func ExampleNew() {
	_, err := chainmap.New[string, int](-1, 0.75)
	fmt.Println(err)

	m, err := chainmap.New[int, string](2, 0.75)
	if err != nil {
		panic(err)
	}
	m.Put(1, "one")
	m.Put(2, "two")
	fmt.Printf("%+v\n", m.Stats().Buckets)
	// Output:
	// chainmap: invalid argument: capacity must be > 0
	// 4
}

func ExampleWithResizePolicy() {
	m, err := chainmap.New[int, string](2, 0.75,
		chainmap.WithResizePolicy(chainmap.ResizeExtend),
		chainmap.WithHasher(func(k int) uint64 { return uint64(k) }),
	)
	if err != nil {
		panic(err)
	}

	m.Put(3, "three") // bucket 1 of 2
	m.Put(0, "zero")  // grows to 4; 3 now belongs in bucket 3

	fmt.Println(m.ContainsKey(3))
	fmt.Println(m.ContainsValue("three"))
	// Output:
	// false
	// true
}
