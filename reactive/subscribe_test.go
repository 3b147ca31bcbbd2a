package reactive_test

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/fluxkit/errors"
	"github.com/kbukum/fluxkit/logger"
	"github.com/kbukum/fluxkit/reactive"
)

func TestSubscribe_Callbacks(t *testing.T) {
	var got []int
	var completed bool
	reactive.Subscribe(reactive.Range(1, 3),
		func(v int) { got = append(got, v) },
		func(err error) { t.Errorf("unexpected error %v", err) },
		func() { completed = true },
	)
	if len(got) != 3 || !completed {
		t.Errorf("got %v, completed = %v", got, completed)
	}
}

func TestSubscribeWith_CustomOnSubscribe(t *testing.T) {
	var got []int
	sub := reactive.SubscribeWith(reactive.Range(1, 10), reactive.SubscriberFuncs[int]{
		OnSubscribe: func(s reactive.Subscription) { s.Request(2) },
		OnNext:      func(v int) { got = append(got, v) },
	})
	if len(got) != 2 {
		t.Fatalf("got %v, want two items", got)
	}
	sub.Request(1)
	if len(got) != 3 {
		t.Errorf("got %v after extra request", got)
	}
	sub.Cancel()
}

func TestCollect(t *testing.T) {
	got, err := reactive.Collect(context.Background(), reactive.Range(1, 4))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 4 || got[3] != 4 {
		t.Errorf("got %v", got)
	}
}

func TestCollect_Error(t *testing.T) {
	p := reactive.Concat(reactive.Just(1), reactive.Error[int](stderrors.New("late")))
	got, err := reactive.Collect(context.Background(), p)
	if !errors.HasCode(err, errors.ErrCodeUpstream) {
		t.Errorf("err = %v", err)
	}
	if len(got) != 1 {
		t.Errorf("items before error = %v", got)
	}
}

func TestCollect_ContextDone(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := reactive.Collect(ctx, reactive.Never[int]())
	if !stderrors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want deadline exceeded", err)
	}
}

func TestCollect_Interval(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	got, err := reactive.Collect(ctx, reactive.Take(reactive.Interval(time.Millisecond), 3))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 || got[0] != 0 || got[2] != 2 {
		t.Errorf("got %v", got)
	}
}

func TestBlockLast(t *testing.T) {
	last, ok, err := reactive.BlockLast(context.Background(), reactive.Range(1, 5))
	if err != nil || !ok || last != 5 {
		t.Errorf("BlockLast = %d, %v, %v", last, ok, err)
	}

	_, ok, err = reactive.BlockLast(context.Background(), reactive.Empty[int]())
	if err != nil || ok {
		t.Errorf("BlockLast(empty) ok = %v, err = %v", ok, err)
	}
}

func TestLog_RecordsSignalsAndDemand(t *testing.T) {
	var buf bytes.Buffer
	l := logger.NewWithWriter(&logger.Config{Level: "info", Format: logger.FormatJSON}, "test", &buf)

	sub := reactive.SubscribeWith(reactive.Log(reactive.Range(1, 2), "range", l), reactive.SubscriberFuncs[int]{
		OnSubscribe: func(s reactive.Subscription) { s.Request(reactive.Unbounded) },
	})
	sub.Cancel()

	var messages []string
	ids := map[string]bool{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var m map[string]interface{}
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("bad log line %q: %v", line, err)
		}
		messages = append(messages, m["message"].(string))
		ids[m[logger.FieldSubscriptionID].(string)] = true
		if m[logger.FieldStage] != "range" {
			t.Errorf("stage = %v", m[logger.FieldStage])
		}
		if m["message"] == "request" && m[logger.FieldDemand] != "unbounded" {
			t.Errorf("demand = %v", m[logger.FieldDemand])
		}
	}

	want := []string{"onSubscribe", "request", "onNext", "onNext", "onComplete", "cancel"}
	if strings.Join(messages, ",") != strings.Join(want, ",") {
		t.Errorf("messages = %v, want %v", messages, want)
	}
	if len(ids) != 1 {
		t.Errorf("expected a single subscription id, got %v", ids)
	}
}
