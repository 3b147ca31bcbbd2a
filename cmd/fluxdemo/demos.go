package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/kbukum/fluxkit/config"
	"github.com/kbukum/fluxkit/errors"
	"github.com/kbukum/fluxkit/logger"
	"github.com/kbukum/fluxkit/reactive"
)

// demoEnv is what a demo gets to work with. Items go to out, one per
// line; lifecycle information goes to log.
type demoEnv struct {
	stream config.StreamConfig
	log    *logger.Logger
	out    io.Writer
}

func (e *demoEnv) println(v ...any) {
	fmt.Fprintln(e.out, v...)
}

type demo struct {
	name        string
	description string
	run         func(ctx context.Context, env *demoEnv) error
}

var demos = []demo{
	{"map", "upper-case a fixed list of names", runMap},
	{"filter", "triple 1..5 and keep even results; the source stays unchanged", runFilter},
	{"exception", "a side effect fails on an empty name and ends the stream", runException},
	{"flatMap", "keep names starting with \"ma\" through inner publishers", runFlatMap},
	{"zipWith", "pair users with comments; the shorter input ends the stream", runZipWith},
	{"range", "zip tripled numbers with a range", runRange},
	{"interval", "pace 1..4 with interval ticks", runInterval},
	{"delayElements", "delay each of 1..4", runDelayElements},
	{"intervalRetry", "ticks that fail on the sixth, retried", runIntervalRetry},
	{"create", "emit three values from a timer through an emitter", runCreate},
	{"backPressure", "batched consumer with logged signals and demand", runBackPressure},
	{"limitRate", "cap upstream requests while consuming unbounded", runLimitRate},
	{"collectList", "collect users with last name Castro into one list", runCollectList},
}

func findDemo(name string) (demo, error) {
	for _, d := range demos {
		if strings.EqualFold(d.name, name) {
			return d, nil
		}
	}
	return demo{}, errors.NotFound("demo", name)
}

func demoNames() []string {
	names := make([]string, len(demos))
	for i, d := range demos {
		names[i] = d.name
	}
	sort.Strings(names)
	return names
}

// consume subscribes with unbounded demand, prints every item and blocks
// until termination. A stream error is printed and returned.
func consume[T any](ctx context.Context, env *demoEnv, p reactive.Publisher[T]) error {
	done := make(chan error, 1)
	sub := reactive.SubscribeWith(p, reactive.SubscriberFuncs[T]{
		OnNext:     func(v T) { env.println(v) },
		OnError:    func(err error) { done <- err },
		OnComplete: func() { done <- nil },
	})
	select {
	case err := <-done:
		if err != nil {
			env.println("error:", err)
		}
		return err
	case <-ctx.Done():
		sub.Cancel()
		return ctx.Err()
	}
}

func names() reactive.Publisher[string] {
	return reactive.Just("Gustavo", "Martin", "Maye")
}

func runMap(ctx context.Context, env *demoEnv) error {
	upper := reactive.Map(names(), func(s string) (string, error) {
		return strings.ToUpper(s), nil
	})
	return consume(ctx, env, upper)
}

func runFilter(ctx context.Context, env *demoEnv) error {
	src := reactive.Range(1, 5)
	tripled := reactive.Map(src, func(n int) (int, error) { return n * 3, nil })
	evens := reactive.Filter(tripled, func(n int) (bool, error) { return n%2 == 0, nil })
	if err := consume(ctx, env, evens); err != nil {
		return err
	}
	env.println("source:")
	return consume(ctx, env, src)
}

func runException(ctx context.Context, env *demoEnv) error {
	checked := reactive.DoOnNext(reactive.Just("Gustavo", "Martin", "", "Maye"), func(s string) error {
		if s == "" {
			return stderrors.New("name is empty")
		}
		return nil
	})
	if err := consume(ctx, env, checked); err != nil && ctx.Err() != nil {
		return err
	}
	return nil
}

// runFlatMap matches the prefix against each name as written, so "Martin"
// is dropped and only "maye" passes.
func runFlatMap(ctx context.Context, env *demoEnv) error {
	src := reactive.Just("Gustavo", "Martin", "maye")
	selected := reactive.FlatMap(src, func(s string) (reactive.Publisher[string], error) {
		if strings.HasPrefix(s, "ma") {
			return reactive.Just(s), nil
		}
		return reactive.Empty[string](), nil
	})
	return consume(ctx, env, selected)
}

func runZipWith(ctx context.Context, env *demoEnv) error {
	pairs := reactive.Zip(
		reactive.FromSlice(sampleUsers()),
		reactive.FromSlice(sampleComments()),
		func(u User, c Comment) (UserComment, error) { return UserComment{User: u, Comment: c}, nil },
	)
	return consume(ctx, env, pairs)
}

func runRange(ctx context.Context, env *demoEnv) error {
	tripled := reactive.Map(reactive.Just(1, 2, 3, 4), func(n int) (int, error) { return n * 3, nil })
	pairs := reactive.Map(reactive.ZipPair(tripled, reactive.Range(0, 5)), func(t reactive.Tuple2[int, int]) (string, error) {
		return fmt.Sprintf("[%d,%d]", t.T1, t.T2), nil
	})
	return consume(ctx, env, pairs)
}

func runInterval(ctx context.Context, env *demoEnv) error {
	paced := reactive.Zip(reactive.Range(1, 4), reactive.Interval(env.stream.Interval),
		func(n int, _ int64) (int, error) { return n, nil })
	last, ok, err := reactive.BlockLast(ctx, reactive.DoOnNext(paced, func(n int) error {
		env.println(n)
		return nil
	}))
	if err != nil {
		return err
	}
	if ok {
		env.log.Debug("interval finished", logger.Fields(logger.FieldValue, last))
	}
	return nil
}

func runDelayElements(ctx context.Context, env *demoEnv) error {
	delayed := reactive.DelayElements(reactive.Range(1, 4), env.stream.Delay)
	_, _, err := reactive.BlockLast(ctx, reactive.DoOnNext(delayed, func(n int) error {
		env.println(n)
		return nil
	}))
	return err
}

// failingTicks emits interval ticks and fails when tick 5 arrives.
func failingTicks(period time.Duration) reactive.Publisher[string] {
	ticks := reactive.FlatMap(reactive.Interval(period), func(n int64) (reactive.Publisher[int64], error) {
		if n == 5 {
			return reactive.Error[int64](stderrors.New("must not be greater than 4")), nil
		}
		return reactive.Just(n), nil
	})
	return reactive.Map(ticks, func(n int64) (string, error) { return fmt.Sprint(n), nil })
}

func runIntervalRetry(ctx context.Context, env *demoEnv) error {
	retried := reactive.Retry(failingTicks(env.stream.Interval), int64(env.stream.Retries))
	if err := consume(ctx, env, retried); err != nil && ctx.Err() != nil {
		return err
	}
	return nil
}

// counter emits 1, 2, 3 from a ticker goroutine and completes. Ticks that
// find no demand are skipped, not queued.
func counter(period time.Duration) reactive.Publisher[int] {
	return reactive.Create(func(e *reactive.Emitter[int]) {
		stop := make(chan struct{})
		e.OnCancel(func() { close(stop) })
		go func() {
			t := time.NewTicker(period)
			defer t.Stop()
			for n := 1; n <= 3; {
				select {
				case <-stop:
					return
				case <-t.C:
					if e.Next(n) {
						n++
					}
				}
			}
			e.Complete()
		}()
	})
}

func runCreate(ctx context.Context, env *demoEnv) error {
	text := reactive.Map(counter(env.stream.Interval), func(n int) (string, error) { return fmt.Sprint(n), nil })
	if err := consume(ctx, env, text); err != nil {
		return err
	}
	env.println("completed")
	return nil
}

func runBackPressure(ctx context.Context, env *demoEnv) error {
	done := make(chan error, 1)
	reactive.SubscribeBatched(reactive.Log(reactive.Range(1, 5), "range", env.log), env.stream.BatchSize,
		func(n int) { env.println(n) },
		func(err error) { done <- err },
		func() {
			env.println("onComplete")
			done <- nil
		},
	)
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func runLimitRate(ctx context.Context, env *demoEnv) error {
	rate := env.stream.LimitRate
	if rate == 0 {
		rate = env.stream.BatchSize
	}
	var sizes reactive.RequestSizes
	src := reactive.TrackRequests(reactive.Log(reactive.Range(1, 5), "range", env.log), &sizes)
	if err := consume(ctx, env, reactive.LimitRate(src, rate)); err != nil {
		return err
	}
	env.println("upstream requests:", sizes.Sizes())
	return nil
}

func runCollectList(ctx context.Context, env *demoEnv) error {
	castros := reactive.Filter(reactive.FromSlice(sampleUsers()), func(u User) (bool, error) {
		return strings.EqualFold(u.LastName, lastNameCastro), nil
	})
	return consume(ctx, env, reactive.CollectList(castros))
}
