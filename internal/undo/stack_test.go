package undo

import (
	"context"
	"fmt"
	"testing"
)

func op(id string) Operation {
	return Operation{
		ID:          id,
		Description: "op " + id,
		Execute:     func(context.Context) error { return nil },
	}
}

func TestStack_EvictsOldestPastLimit(t *testing.T) {
	s := NewStack(5)
	for i := 1; i <= 6; i++ {
		s.Add(op(fmt.Sprint(i)))
	}
	if s.Len() != 5 {
		t.Fatalf("Len = %d, want 5", s.Len())
	}

	got, ok := s.Pop()
	if !ok || got.ID != "6" {
		t.Fatalf("Pop = %#v, %v, want id 6", got, ok)
	}

	var rest []string
	for {
		o, ok := s.Pop()
		if !ok {
			break
		}
		rest = append(rest, o.ID)
	}
	want := []string{"5", "4", "3", "2"}
	if fmt.Sprint(rest) != fmt.Sprint(want) {
		t.Fatalf("remaining = %v, want %v (oldest evicted)", rest, want)
	}
	if s.CanUndo() {
		t.Fatalf("CanUndo = true on empty stack")
	}
}

func TestStack_TakeByID(t *testing.T) {
	s := NewStack(0)
	s.Add(op("a"))
	s.Add(op("b"))
	s.Add(op("c"))

	if got, ok := s.Take("b"); !ok || got.ID != "b" {
		t.Fatalf("Take(b) = %#v, %v", got, ok)
	}
	if _, ok := s.Take("b"); ok {
		t.Fatalf("second Take(b) = true, want false")
	}

	top, _ := s.Pop()
	next, _ := s.Pop()
	if top.ID != "c" || next.ID != "a" {
		t.Fatalf("order after remove = %s, %s, want c, a", top.ID, next.ID)
	}
}

func TestStack_AddAssignsIDAndPeek(t *testing.T) {
	s := NewStack(2)
	id := s.Add(Operation{Description: "anon"})
	if id == "" {
		t.Fatalf("Add returned empty id")
	}
	top, ok := s.Peek()
	if !ok || top.ID != id {
		t.Fatalf("Peek = %#v, want id %s", top, id)
	}
	if s.Len() != 1 {
		t.Fatalf("Peek removed entry")
	}
}

func TestStack_PopEmpty(t *testing.T) {
	var s Stack
	if _, ok := s.Pop(); ok {
		t.Fatalf("Pop on empty stack returned ok")
	}
	s.Add(op("x"))
	if !s.CanUndo() {
		t.Fatalf("zero Stack should accept operations")
	}
}
