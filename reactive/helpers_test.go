package reactive_test

import (
	"slices"
	"testing"

	"github.com/kbukum/fluxkit/errors"
	"github.com/kbukum/fluxkit/reactive/reactivetest"
)

func assertItems[T comparable](t *testing.T, r *reactivetest.Recorder[T], want ...T) {
	t.Helper()
	if got := r.Items(); !slices.Equal(got, want) {
		t.Errorf("items = %v, want %v", got, want)
	}
}

func assertCompleted[T any](t *testing.T, r *reactivetest.Recorder[T]) {
	t.Helper()
	if !r.Completed() {
		t.Errorf("expected completion, err = %v", r.Err())
	}
	if r.Terminals() != 1 {
		t.Errorf("terminals = %d, want 1", r.Terminals())
	}
}

func assertOpen[T any](t *testing.T, r *reactivetest.Recorder[T]) {
	t.Helper()
	if r.Terminals() != 0 {
		t.Errorf("expected no terminal signal, completed = %v, err = %v", r.Completed(), r.Err())
	}
}

func assertErrorCode[T any](t *testing.T, r *reactivetest.Recorder[T], code errors.ErrorCode) {
	t.Helper()
	if r.Terminals() != 1 {
		t.Fatalf("terminals = %d, want 1", r.Terminals())
	}
	if !errors.HasCode(r.Err(), code) {
		t.Errorf("err = %v, want code %s", r.Err(), code)
	}
}

func assertClean[T any](t *testing.T, r *reactivetest.Recorder[T]) {
	t.Helper()
	if v := r.Violations(); len(v) > 0 {
		t.Errorf("delivery violations: %v", v)
	}
}
