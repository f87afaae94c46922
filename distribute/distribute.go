// Package distribute routes calls across a pool of equivalent instances.
//
// A [Pool] holds the instances and a selection [Algorithm]. Every
// forwarded call asks the pool for the next instance with advancement,
// so consecutive calls rotate across the pool; Next(false) peeks at the
// current instance without moving.
package distribute

import (
	"math/rand/v2"
	"slices"
	"sync"

	"github.com/mitchcodes/datautils"
)

// Algorithm picks the index of the next instance.
type Algorithm interface {
	// Pick returns the new index given the current one (-1 before the
	// first pick) and the pool size n > 0.
	Pick(current, n int, advance bool) int
}

type roundRobin struct{}

// RoundRobin cycles through the instances in order.
func RoundRobin() Algorithm { return roundRobin{} }

func (roundRobin) Pick(current, n int, advance bool) int {
	if !advance {
		return settle(current, n)
	}
	return (current + 1) % n
}

type random struct{}

// Random picks a uniformly random instance on every advancing call.
func Random() Algorithm { return random{} }

func (random) Pick(current, n int, advance bool) int {
	if !advance {
		return settle(current, n)
	}
	return rand.IntN(n) //nolint:gosec // selection does not need crypto rand
}

// settle maps an index that has not been picked yet, or that fell off the
// end after removals, back into range.
func settle(current, n int) int {
	if current < 0 {
		return 0
	}
	return current % n
}

// Pool is a mutable set of instances. It is safe for concurrent use.
type Pool[T comparable] struct {
	algo Algorithm

	mu        sync.Mutex
	instances []T
	current   int
}

// New creates a pool over instances. A nil algorithm means RoundRobin.
func New[T comparable](instances []T, algo Algorithm) (*Pool[T], error) {
	if len(instances) == 0 {
		return nil, datautils.ErrNoInstances
	}
	if algo == nil {
		algo = RoundRobin()
	}
	return &Pool[T]{
		algo:      algo,
		instances: slices.Clone(instances),
		current:   -1,
	}, nil
}

// Next returns the instance the algorithm selects. With advance false the
// current instance is returned again.
func (p *Pool[T]) Next(advance bool) (T, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.instances) == 0 {
		var zero T
		return zero, datautils.ErrNoInstances
	}
	p.current = p.algo.Pick(p.current, len(p.instances), advance)
	return p.instances[p.current], nil
}

// Add appends an instance.
func (p *Pool[T]) Add(instance T) {
	p.mu.Lock()
	p.instances = append(p.instances, instance)
	p.mu.Unlock()
}

// Remove deletes the first occurrence of instance. Removing an instance
// that is not in the pool does nothing.
func (p *Pool[T]) Remove(instance T) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if i := slices.Index(p.instances, instance); i >= 0 {
		p.instances = slices.Delete(p.instances, i, i+1)
	}
}

// Instances returns a copy of the current instances.
func (p *Pool[T]) Instances() []T {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.instances)
}

// Len returns the number of instances.
func (p *Pool[T]) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.instances)
}

// Call forwards fn to the next instance.
func Call[T comparable, R any](p *Pool[T], fn func(T) (R, error)) (R, error) {
	instance, err := p.Next(true)
	if err != nil {
		var zero R
		return zero, err
	}
	return fn(instance)
}
