// Package orderedmap provides an insertion-ordered map container.
// Works like the Golang `map` built-in, but preserves the order that
// key/value pairs were added when iterating. Backs value.Mapping (a node's
// merged parameter tree), where insertion order drives reproducible,
// deterministic output (spec §5, §8 determinism property).
package orderedmap

import (
	wk8orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Map is the subset of an insertion-ordered map reclass needs: lookup,
// insert, length, and forward iteration via First/Next.
type Map[K comparable, V any] interface {
	Len() int
	Get(K) (V, bool)
	Set(K, V) (V, bool)
	First() Pair[K, V]
}

// Pair is one key/value entry in a Map, yielded during iteration.
type Pair[K comparable, V any] interface {
	Key() K
	Value() V
	Next() Pair[K, V]
}

type wrapOrderedMap[K comparable, V any] struct {
	*wk8orderedmap.OrderedMap[K, V]
}

type wrapPair[K comparable, V any] struct {
	*wk8orderedmap.Pair[K, V]
}

// New creates an ordered map generic object.
func New[K comparable, V any]() Map[K, V] {
	return &wrapOrderedMap[K, V]{
		OrderedMap: wk8orderedmap.New[K, V](),
	}
}

func (o *wrapOrderedMap[K, V]) First() Pair[K, V] {
	pair := o.OrderedMap.Oldest()
	if pair == nil {
		return nil
	}
	return &wrapPair[K, V]{
		Pair: pair,
	}
}

func (p *wrapPair[K, V]) Next() Pair[K, V] {
	next := p.Pair.Next()
	if next == nil {
		return nil
	}
	return &wrapPair[K, V]{
		Pair: next,
	}
}

func (p *wrapPair[K, V]) Key() K {
	return p.Pair.Key
}

func (p *wrapPair[K, V]) Value() V {
	return p.Pair.Value
}
