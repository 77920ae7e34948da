package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorPredicates(t *testing.T) {
	if !IsValidation(NewValidationError("dangling edge %s", "e1")) {
		t.Fatal("expected validation predicate to match")
	}
	if !IsConflict(fmt.Errorf("apply: %w", &ConflictError{GraphID: "g", Expected: 2, Actual: 3})) {
		t.Fatal("expected conflict predicate to match through wrapping")
	}
	if !IsNotFound(&NotFoundError{Kind: "node", ID: "n9"}) {
		t.Fatal("expected not-found predicate to match")
	}
	if IsConflict(NewValidationError("nope")) {
		t.Fatal("predicates must not cross-match")
	}
}

func TestCacheComputationError_Unwrap(t *testing.T) {
	inner := errors.New("compute exploded")
	err := &CacheComputationError{GraphID: "g1", Version: 7, Err: inner}
	if !errors.Is(err, inner) {
		t.Fatal("expected unwrap to expose the cause")
	}
}

func TestConflictError_Message(t *testing.T) {
	err := &ConflictError{GraphID: "g1", Expected: 4, Actual: 6}
	want := "conflict: graph g1 is at version 6, expected 4"
	if err.Error() != want {
		t.Fatalf("unexpected message %q", err.Error())
	}
}
