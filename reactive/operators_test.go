package reactive_test

import (
	stderrors "errors"
	"slices"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/kbukum/fluxkit/errors"
	"github.com/kbukum/fluxkit/reactive"
	"github.com/kbukum/fluxkit/reactive/reactivetest"
)

func TestMap_ErrorCancelsUpstream(t *testing.T) {
	var cancelled atomic.Bool
	src := reactive.DoOnCancel(reactive.Range(1, 5), func() { cancelled.Store(true) })
	bad := stderrors.New("bad value")

	mapped := reactive.Map(src, func(n int) (int, error) {
		if n == 3 {
			return 0, bad
		}
		return n * 10, nil
	})

	r := reactivetest.NewRecorder[int](reactive.Unbounded)
	mapped.Subscribe(r)

	assertItems(t, r, 10, 20)
	assertErrorCode(t, r, errors.ErrCodeTransform)
	if !stderrors.Is(r.Err(), bad) {
		t.Errorf("cause not preserved: %v", r.Err())
	}
	if !cancelled.Load() {
		t.Error("upstream not cancelled")
	}
	assertClean(t, r)
}

func TestMap_PanicBecomesError(t *testing.T) {
	mapped := reactive.Map(reactive.Just(1, 0), func(n int) (int, error) {
		return 10 / n, nil
	})

	r := reactivetest.NewRecorder[int](reactive.Unbounded)
	mapped.Subscribe(r)

	assertItems(t, r, 10)
	assertErrorCode(t, r, errors.ErrCodeTransform)
}

func TestMap_TypeConversion(t *testing.T) {
	mapped := reactive.Map(reactive.Just(1, 22, 333), func(n int) (string, error) {
		return strconv.Itoa(n), nil
	})
	r := reactivetest.NewRecorder[string](reactive.Unbounded)
	mapped.Subscribe(r)
	assertItems(t, r, "1", "22", "333")
}

func TestFilter_RejectedItemsRequestReplacement(t *testing.T) {
	var sizes reactive.RequestSizes
	src := reactive.TrackRequests(reactive.Range(1, 10), &sizes)
	evens := reactive.Filter(src, func(n int) (bool, error) { return n%2 == 0, nil })

	r := reactivetest.NewRecorder[int](2)
	evens.Subscribe(r)

	assertItems(t, r, 2, 4)
	assertOpen(t, r)
	if got, want := sizes.Sizes(), []int64{2, 1, 1}; !slices.Equal(got, want) {
		t.Errorf("upstream requests = %v, want %v", got, want)
	}

	r.Request(reactive.Unbounded)
	assertItems(t, r, 2, 4, 6, 8, 10)
	assertCompleted(t, r)
}

func TestFilter_PredicateError(t *testing.T) {
	filtered := reactive.Filter(reactive.Range(1, 5), func(n int) (bool, error) {
		if n == 2 {
			return false, stderrors.New("cannot decide")
		}
		return true, nil
	})
	r := reactivetest.NewRecorder[int](reactive.Unbounded)
	filtered.Subscribe(r)

	assertItems(t, r, 1)
	assertErrorCode(t, r, errors.ErrCodeTransform)
}

func TestDoOnNext(t *testing.T) {
	var seen []int
	p := reactive.DoOnNext(reactive.Range(1, 3), func(n int) error {
		seen = append(seen, n)
		return nil
	})
	r := reactivetest.NewRecorder[int](reactive.Unbounded)
	p.Subscribe(r)

	assertItems(t, r, 1, 2, 3)
	if !slices.Equal(seen, []int{1, 2, 3}) {
		t.Errorf("side effect saw %v", seen)
	}
}

func TestDoOnTerminate_RunsBeforeSignal(t *testing.T) {
	tests := []struct {
		name string
		pub  reactive.Publisher[int]
	}{
		{"complete", reactive.Range(1, 2)},
		{"error", reactive.Error[int](stderrors.New("x"))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var order []string
			p := reactive.DoOnTerminate(tt.pub, func() { order = append(order, "terminate") })
			reactive.SubscribeWith(p, reactive.SubscriberFuncs[int]{
				OnError:    func(error) { order = append(order, "signal") },
				OnComplete: func() { order = append(order, "signal") },
			})
			if !slices.Equal(order, []string{"terminate", "signal"}) {
				t.Errorf("order = %v", order)
			}
		})
	}
}

func TestDoOnCancel_RunsOnce(t *testing.T) {
	var calls atomic.Int32
	p := reactive.DoOnCancel(reactive.Never[int](), func() { calls.Add(1) })

	sub := reactive.Subscribe(p, nil, nil, nil)
	sub.Cancel()
	sub.Cancel()

	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestTake(t *testing.T) {
	var cancelled atomic.Bool
	src := reactive.DoOnCancel(reactive.Range(1, 10), func() { cancelled.Store(true) })

	r := reactivetest.NewRecorder[int](reactive.Unbounded)
	reactive.Take(src, 3).Subscribe(r)

	assertItems(t, r, 1, 2, 3)
	assertCompleted(t, r)
	if !cancelled.Load() {
		t.Error("upstream not cancelled")
	}
	assertClean(t, r)
}

func TestTake_Zero(t *testing.T) {
	r := reactivetest.NewRecorder[int](reactive.Unbounded)
	reactive.Take(reactive.Range(1, 10), 0).Subscribe(r)
	assertItems(t, r)
	assertCompleted(t, r)
}

func TestFlatMap_HonoursDemandAcrossInners(t *testing.T) {
	p := reactive.FlatMap(reactive.Range(1, 3), func(n int) (reactive.Publisher[int], error) {
		return reactive.Range(0, n), nil
	})

	r := reactivetest.NewRecorder[int](0)
	p.Subscribe(r)

	r.Request(2)
	assertItems(t, r, 0, 0)
	assertOpen(t, r)

	r.Request(10)
	assertItems(t, r, 0, 0, 1, 0, 1, 2)
	assertCompleted(t, r)
	assertClean(t, r)
}

func TestFlatMap_InnerErrorCancelsUpstream(t *testing.T) {
	var cancelled atomic.Bool
	src := reactive.DoOnCancel(reactive.Range(1, 5), func() { cancelled.Store(true) })

	p := reactive.FlatMap(src, func(n int) (reactive.Publisher[int], error) {
		if n == 2 {
			return reactive.Error[int](stderrors.New("inner")), nil
		}
		return reactive.Just(n), nil
	})

	r := reactivetest.NewRecorder[int](reactive.Unbounded)
	p.Subscribe(r)

	assertItems(t, r, 1)
	assertErrorCode(t, r, errors.ErrCodeUpstream)
	if !cancelled.Load() {
		t.Error("upstream not cancelled")
	}
}

func TestFlatMap_CancelReachesInner(t *testing.T) {
	var innerCancelled atomic.Bool
	src := reactive.Just(1, 2)

	p := reactive.FlatMap(src, func(n int) (reactive.Publisher[int], error) {
		return reactive.DoOnCancel(reactive.Never[int](), func() { innerCancelled.Store(true) }), nil
	})

	r := reactivetest.NewRecorder[int](reactive.Unbounded)
	p.Subscribe(r)
	assertOpen(t, r)

	r.Cancel()
	if !innerCancelled.Load() {
		t.Error("inner not cancelled")
	}
}

func TestFlatMap_NilInnerIsEmpty(t *testing.T) {
	p := reactive.FlatMap(reactive.Range(1, 4), func(n int) (reactive.Publisher[int], error) {
		if n%2 == 1 {
			return nil, nil
		}
		return reactive.Just(n), nil
	})
	r := reactivetest.NewRecorder[int](reactive.Unbounded)
	p.Subscribe(r)
	assertItems(t, r, 2, 4)
	assertCompleted(t, r)
}

func TestZip_RespectsDemand(t *testing.T) {
	r := reactivetest.NewRecorder[reactive.Tuple2[int, string]](0)
	reactive.ZipPair(reactive.Range(1, 3), reactive.Just("a", "b", "c")).Subscribe(r)

	r.Request(2)
	if got := len(r.Items()); got != 2 {
		t.Fatalf("got %d pairs, want 2", got)
	}
	assertOpen(t, r)

	r.Request(1)
	assertItems(t, r,
		reactive.Tuple2[int, string]{T1: 1, T2: "a"},
		reactive.Tuple2[int, string]{T1: 2, T2: "b"},
		reactive.Tuple2[int, string]{T1: 3, T2: "c"},
	)
	assertCompleted(t, r)
}

func TestZip_CancelsLongerInput(t *testing.T) {
	var cancelled atomic.Bool
	long := reactive.DoOnCancel(reactive.Never[int](), func() { cancelled.Store(true) })

	r := reactivetest.NewRecorder[int](reactive.Unbounded)
	reactive.Zip(long, reactive.Empty[int](), func(a, b int) (int, error) { return a + b, nil }).Subscribe(r)

	assertCompleted(t, r)
	if !cancelled.Load() {
		t.Error("other input not cancelled")
	}
}

func TestZip_ErrorCancelsOther(t *testing.T) {
	var cancelled atomic.Bool
	other := reactive.DoOnCancel(reactive.Never[int](), func() { cancelled.Store(true) })

	r := reactivetest.NewRecorder[int](reactive.Unbounded)
	reactive.Zip(other, reactive.Error[int](stderrors.New("b failed")), func(a, b int) (int, error) {
		return a + b, nil
	}).Subscribe(r)

	assertErrorCode(t, r, errors.ErrCodeUpstream)
	if !cancelled.Load() {
		t.Error("other input not cancelled")
	}
}

func TestZip_CombineError(t *testing.T) {
	r := reactivetest.NewRecorder[int](reactive.Unbounded)
	reactive.Zip(reactive.Range(1, 3), reactive.Range(1, 3), func(a, b int) (int, error) {
		if a == 2 {
			return 0, stderrors.New("no twos")
		}
		return a * b, nil
	}).Subscribe(r)

	assertItems(t, r, 1)
	assertErrorCode(t, r, errors.ErrCodeTransform)
}

func TestZip_ReplenishesPrefetch(t *testing.T) {
	r := reactivetest.NewRecorder[int](reactive.Unbounded)
	reactive.Zip(reactive.Range(0, 100), reactive.Range(0, 100), func(a, b int) (int, error) {
		return a + b, nil
	}).Subscribe(r)

	items := r.Items()
	if len(items) != 100 {
		t.Fatalf("got %d items, want 100", len(items))
	}
	if items[99] != 198 {
		t.Errorf("last item = %d, want 198", items[99])
	}
	assertCompleted(t, r)
	assertClean(t, r)
}

func TestLimitRate_BatchesUpstreamRequests(t *testing.T) {
	var sizes reactive.RequestSizes
	src := reactive.TrackRequests(reactive.Range(1, 10), &sizes)

	r := reactivetest.NewRecorder[int](reactive.Unbounded)
	reactive.LimitRate(src, 3).Subscribe(r)

	assertItems(t, r, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10)
	assertCompleted(t, r)
	if got, want := sizes.Sizes(), []int64{3, 3, 3, 3}; !slices.Equal(got, want) {
		t.Errorf("upstream requests = %v, want %v", got, want)
	}
}

func TestLimitRate_NeverExceedsDownstreamDemand(t *testing.T) {
	var sizes reactive.RequestSizes
	src := reactive.TrackRequests(reactive.Range(1, 10), &sizes)

	r := reactivetest.NewRecorder[int](0)
	reactive.LimitRate(src, 4).Subscribe(r)

	r.Request(2)
	assertItems(t, r, 1, 2)
	r.Request(5)
	assertItems(t, r, 1, 2, 3, 4, 5, 6, 7)
	assertOpen(t, r)

	for _, n := range sizes.Sizes() {
		if n > 4 {
			t.Errorf("upstream request %d exceeds limit", n)
		}
	}
}

func TestCollectList(t *testing.T) {
	r := reactivetest.NewRecorder[[]int](0)
	reactive.CollectList(reactive.Range(1, 4)).Subscribe(r)

	if len(r.Items()) != 0 {
		t.Fatal("emitted before demand")
	}
	r.Request(1)

	items := r.Items()
	if len(items) != 1 || !slices.Equal(items[0], []int{1, 2, 3, 4}) {
		t.Errorf("items = %v", items)
	}
	assertCompleted(t, r)
}

func TestCollectList_Empty(t *testing.T) {
	r := reactivetest.NewRecorder[[]int](1)
	reactive.CollectList(reactive.Empty[int]()).Subscribe(r)

	items := r.Items()
	if len(items) != 1 || items[0] == nil || len(items[0]) != 0 {
		t.Errorf("items = %v", items)
	}
	assertCompleted(t, r)
}

func TestConcat_CarriesDemand(t *testing.T) {
	p := reactive.Concat(reactive.Range(1, 2), reactive.Just(10), reactive.Empty[int](), reactive.Range(5, 2))

	r := reactivetest.NewRecorder[int](0)
	p.Subscribe(r)

	r.Request(3)
	assertItems(t, r, 1, 2, 10)
	assertOpen(t, r)

	r.Request(reactive.Unbounded)
	assertItems(t, r, 1, 2, 10, 5, 6)
	assertCompleted(t, r)
	assertClean(t, r)
}
