// Package stack implements the context stack: an immutable-extend,
// top-addressed ordered sequence of "current context" values used to
// thread iteration and chain state through a MicroQL evaluation.
package stack

import "fmt"

// frame is one link of the stack's backing chain. Frames are never mutated
// once created, so a *ContextStack can be shared freely; Extend always
// allocates a new frame rather than touching the parent chain.
type frame struct {
	value  interface{}
	parent *frame
}

// ContextStack is an ordered, top-addressed sequence of values. The zero
// value is not usable; construct one with New or Empty.
type ContextStack struct {
	top *frame
}

// Empty returns a stack with no frames (depth 0).
func Empty() *ContextStack {
	return &ContextStack{}
}

// New builds a stack from an initial ordered sequence of values, the last
// element becoming the top (depth 1).
func New(values ...interface{}) *ContextStack {
	s := Empty()
	for _, v := range values {
		s = s.Extend(v)
	}
	return s
}

// Depth returns how many frames the stack currently holds.
func (s *ContextStack) Depth() int {
	n := 0
	for f := s.top; f != nil; f = f.parent {
		n++
	}
	return n
}

// Extend returns a new stack with v pushed on top. The receiver (and any
// other stack sharing its frames) is left untouched: extending never aliases
// or mutates the prior underlying storage, so sibling evaluations that hold
// independent *ContextStack values never observe each other's pushes.
func (s *ContextStack) Extend(v interface{}) *ContextStack {
	return &ContextStack{top: &frame{value: v, parent: s.top}}
}

// GetAt returns the value at depth (1-based, counted from the top). It
// returns an error shaped like the spec's "@@@@ not available" message when
// depth is out of range.
func (s *ContextStack) GetAt(depth int) (interface{}, error) {
	if depth < 1 {
		return nil, fmt.Errorf("context depth %d is not valid — depth must be >= 1", depth)
	}
	f := s.top
	for i := 1; i < depth; i++ {
		if f == nil {
			break
		}
		f = f.parent
	}
	if f == nil {
		return nil, fmt.Errorf("%s not available — context not deep enough", atRun(depth))
	}
	return f.value, nil
}

// Top is shorthand for GetAt(1).
func (s *ContextStack) Top() (interface{}, error) {
	return s.GetAt(1)
}

// SetTop returns a new stack with the top frame's value replaced by v,
// leaving the rest of the chain (and any other stack sharing it) untouched.
// This is how chain stepping publishes a step's return value as the depth-1
// context for the next step, without mutating shared storage.
func (s *ContextStack) SetTop(v interface{}) (*ContextStack, error) {
	if s.top == nil {
		return nil, fmt.Errorf("@ not available — context not deep enough")
	}
	return &ContextStack{top: &frame{value: v, parent: s.top.parent}}, nil
}

func atRun(depth int) string {
	out := make([]byte, depth)
	for i := range out {
		out[i] = '@'
	}
	return string(out)
}
