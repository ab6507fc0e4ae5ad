package kv

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStore_GetSet(t *testing.T) {
	s := New[string, int]()

	// Set and get
	s.Set("foo", 42)
	val, ok := s.Get("foo")
	assert.True(t, ok)
	assert.Equal(t, 42, val)

	// Get non-existent
	_, ok = s.Get("bar")
	assert.False(t, ok)
}

func TestStore_Delete(t *testing.T) {
	s := New[string, string]()
	s.Set("key", "value")

	s.Delete("key")

	_, ok := s.Get("key")
	assert.False(t, ok)
}

func TestStore_Keys(t *testing.T) {
	s := New[string, int]()
	s.Set("a", 1)
	s.Set("b", 2)

	keys := s.Keys()
	assert.Len(t, keys, 2)
	assert.Contains(t, keys, "a")
	assert.Contains(t, keys, "b")
}

func TestStore_ConcurrentAccess(t *testing.T) {
	s := New[int, int]()
	var wg sync.WaitGroup

	// Concurrent writes
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			s.Set(n, n*2)
		}(i)
	}

	// Concurrent reads
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			s.Get(n)
		}(i)
	}

	wg.Wait()

	assert.Equal(t, 100, s.Len())
}

func TestStore_SetIfAbsent(t *testing.T) {
	s := New[int, string]()

	assert.True(t, s.SetIfAbsent(1, "first"))
	assert.False(t, s.SetIfAbsent(1, "second"))

	val, _ := s.Get(1)
	assert.Equal(t, "first", val)
}

func TestStore_SetIfAbsentConcurrent(t *testing.T) {
	s := New[int, int]()

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		stored int
	)
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.SetIfAbsent(7, i) {
				mu.Lock()
				stored++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, stored)
}

func TestStore_DeleteFunc(t *testing.T) {
	s := New[int, int]()
	for k, v := range map[int]int{1: 10, 2: 20, 3: 30} {
		s.Set(k, v)
	}

	n := s.DeleteFunc(func(_ int, v int) bool { return v >= 20 })

	assert.Equal(t, 2, n)
	assert.Equal(t, []int{1}, s.Keys())
}
