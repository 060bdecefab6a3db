// Package undo keeps a shallow stack of compensating actions for the most
// recent user mutations.
package undo

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// DefaultMaxSize is the stack depth used when none is configured.
const DefaultMaxSize = 5

// Operation reverses one user action. Execute is run at most once; the stack
// does not learn whether it succeeded.
type Operation struct {
	ID          string
	Description string
	Execute     func(ctx context.Context) error
}

// Stack is a bounded LIFO. Pushing past the limit evicts the oldest entry.
type Stack struct {
	mu      sync.Mutex
	ops     []Operation
	maxSize int
}

// NewStack returns a stack holding at most maxSize operations.
func NewStack(maxSize int) *Stack {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &Stack{maxSize: maxSize}
}

// Add pushes op and returns its id, assigning one when empty.
func (s *Stack) Add(op Operation) string {
	if op.ID == "" {
		op.ID = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	limit := s.limit()
	s.ops = append(s.ops, op)
	if over := len(s.ops) - limit; over > 0 {
		s.ops = append([]Operation(nil), s.ops[over:]...)
	}
	return op.ID
}

// Pop removes and returns the most recent operation.
func (s *Stack) Pop() (Operation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.ops) == 0 {
		return Operation{}, false
	}
	op := s.ops[len(s.ops)-1]
	s.ops = s.ops[:len(s.ops)-1]
	return op, true
}

// Take removes and returns the operation with id, used when an inline toast
// action runs it directly.
func (s *Stack) Take(id string) (Operation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, op := range s.ops {
		if op.ID == id {
			s.ops = append(s.ops[:i:i], s.ops[i+1:]...)
			return op, true
		}
	}
	return Operation{}, false
}

// CanUndo reports whether Pop would return an operation.
func (s *Stack) CanUndo() bool {
	return s.Len() > 0
}

// Len returns the number of stored operations.
func (s *Stack) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ops)
}

// Peek returns the most recent operation without removing it.
func (s *Stack) Peek() (Operation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.ops) == 0 {
		return Operation{}, false
	}
	return s.ops[len(s.ops)-1], true
}

func (s *Stack) limit() int {
	if s.maxSize <= 0 {
		return DefaultMaxSize
	}
	return s.maxSize
}
