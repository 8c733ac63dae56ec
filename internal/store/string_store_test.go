package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStringStoreSetGetDel(t *testing.T) {
	s := NewStringStore()

	_, ok := s.Get("foo")
	assert.False(t, ok)

	s.Set("foo", "bar")
	v, ok := s.Get("foo")
	assert.True(t, ok)
	assert.Equal(t, "bar", v)

	assert.Equal(t, int64(1), s.Del("foo"))
	_, ok = s.Get("foo")
	assert.False(t, ok)

	assert.Equal(t, int64(0), s.Del("foo"))
}

func TestStringStoreEmptyValueIsNotMissing(t *testing.T) {
	s := NewStringStore()
	s.Set("k", "")
	v, ok := s.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "", v)
}

func TestStringStoreOverwriteLastWriterWins(t *testing.T) {
	s := NewStringStore()
	s.Set("k", "a")
	s.Set("k", "b")
	v, _ := s.Get("k")
	assert.Equal(t, "b", v)
}

func TestStringStoreKeys(t *testing.T) {
	s := NewStringStore()
	s.Set("a", "1")
	s.Set("b", "2")
	assert.ElementsMatch(t, []string{"a", "b"}, s.Keys())
}
