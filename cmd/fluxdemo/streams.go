package main

import (
	stderrors "errors"
	"net/http"
	"strconv"
	"time"

	"github.com/kbukum/fluxkit/config"
	"github.com/kbukum/fluxkit/errors"
	"github.com/kbukum/fluxkit/reactive"
	"github.com/kbukum/fluxkit/server"
	"github.com/kbukum/fluxkit/validation"
)

const (
	maxRangeCount = 100_000
	minTickPeriod = 10 * time.Millisecond
)

// registerStreams mounts the demo pipelines on s.
func registerStreams(s *server.Server, cfg config.StreamConfig) error {
	return stderrors.Join(
		server.Register(s, "range", "integers ?from (default 1), ?count of them (default 10)", rangeStream),
		server.Register(s, "users", "the sample users", func(*http.Request) (reactive.Publisher[User], error) {
			return reactive.FromSlice(sampleUsers()), nil
		}),
		server.Register(s, "user-comments", "users zipped with comments", func(*http.Request) (reactive.Publisher[UserComment], error) {
			return reactive.Zip(
				reactive.FromSlice(sampleUsers()),
				reactive.FromSlice(sampleComments()),
				func(u User, c Comment) (UserComment, error) { return UserComment{User: u, Comment: c}, nil },
			), nil
		}),
		server.Register(s, "ticks", "interval ticks every ?period, ?count of them (0 or absent: endless)", tickStream(cfg)),
		server.Register(s, "flaky-ticks", "ticks failing on the sixth, re-subscribed with backoff", func(*http.Request) (reactive.Publisher[string], error) {
			return reactive.RetryBackoff(failingTicks(cfg.Interval), cfg.RetryConfig()), nil
		}),
	)
}

func rangeStream(r *http.Request) (reactive.Publisher[int], error) {
	q := r.URL.Query()
	from, err := intParam(q.Get("from"), "from", 1)
	if err != nil {
		return nil, err
	}
	count, err := intParam(q.Get("count"), "count", 10)
	if err != nil {
		return nil, err
	}
	if err := validation.New().Range("count", count, 0, maxRangeCount).Err(); err != nil {
		return nil, err
	}
	return reactive.Range(int(from), int(count)), nil
}

func tickStream(cfg config.StreamConfig) server.Factory[int64] {
	return func(r *http.Request) (reactive.Publisher[int64], error) {
		q := r.URL.Query()
		period := cfg.Interval
		if raw := q.Get("period"); raw != "" {
			d, err := time.ParseDuration(raw)
			if err != nil {
				return nil, errors.InvalidInput("period", "must be a duration such as 500ms")
			}
			period = d
		}
		count, err := intParam(q.Get("count"), "count", 0)
		if err != nil {
			return nil, err
		}
		err = validation.New().
			MinDuration("period", period, minTickPeriod).
			Range("count", count, 0, reactive.Unbounded).
			Err()
		if err != nil {
			return nil, err
		}

		ticks := reactive.Interval(period)
		if count > 0 {
			ticks = reactive.Take(ticks, count)
		}
		return ticks, nil
	}
}

func intParam(raw, field string, def int64) (int64, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, errors.InvalidInput(field, "must be an integer")
	}
	return n, nil
}
