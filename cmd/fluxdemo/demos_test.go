package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/fluxkit/config"
	"github.com/kbukum/fluxkit/errors"
	"github.com/kbukum/fluxkit/logger"
)

func testEnv(out *bytes.Buffer) *demoEnv {
	stream := config.DefaultStreamConfig()
	stream.Interval = time.Millisecond
	stream.Delay = time.Millisecond
	return &demoEnv{stream: stream, log: logger.Nop(), out: out}
}

func lines(s string) []string {
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}

func TestDemos(t *testing.T) {
	tests := []struct {
		demo string
		want []string
	}{
		{demo: "map", want: []string{"GUSTAVO", "MARTIN", "MAYE"}},
		{demo: "filter", want: []string{"6", "12", "source:", "1", "2", "3", "4", "5"}},
		{demo: "flatMap", want: []string{"maye"}},
		{demo: "zipWith", want: []string{
			"UserComment{User{id=1, name=Gustavo, lastName=Castro}, Comment{This is the first comment}}",
			"UserComment{User{id=2, name=Martin, lastName=Castro}, Comment{This is the second comment}}",
		}},
		{demo: "range", want: []string{"[3,0]", "[6,1]", "[9,2]", "[12,3]"}},
		{demo: "interval", want: []string{"1", "2", "3", "4"}},
		{demo: "delayElements", want: []string{"1", "2", "3", "4"}},
		{demo: "create", want: []string{"1", "2", "3", "completed"}},
		{demo: "backPressure", want: []string{"1", "2", "3", "4", "5", "onComplete"}},
		{demo: "limitRate", want: []string{"1", "2", "3", "4", "5", "upstream requests: [2 2 2]"}},
		{demo: "collectList", want: []string{
			"[User{id=1, name=Gustavo, lastName=Castro} User{id=2, name=Martin, lastName=Castro}]",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.demo, func(t *testing.T) {
			d, err := findDemo(tt.demo)
			if err != nil {
				t.Fatal(err)
			}
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			var out bytes.Buffer
			if err := d.run(ctx, testEnv(&out)); err != nil {
				t.Fatalf("run: %v", err)
			}
			got := lines(out.String())
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("output:\n%s\nwant:\n%s", strings.Join(got, "\n"), strings.Join(tt.want, "\n"))
			}
		})
	}
}

func TestDemoErrorsArePrinted(t *testing.T) {
	tests := []struct {
		demo      string
		wantItems []string
	}{
		{demo: "exception", wantItems: []string{"Gustavo", "Martin"}},
		{demo: "intervalRetry", wantItems: []string{"0", "1", "2", "3", "4", "0", "1", "2", "3", "4"}},
	}
	for _, tt := range tests {
		t.Run(tt.demo, func(t *testing.T) {
			d, _ := findDemo(tt.demo)
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			var out bytes.Buffer
			if err := d.run(ctx, testEnv(&out)); err != nil {
				t.Fatalf("run: %v", err)
			}
			got := lines(out.String())
			if len(got) != len(tt.wantItems)+1 {
				t.Fatalf("output = %q", got)
			}
			if strings.Join(got[:len(tt.wantItems)], "|") != strings.Join(tt.wantItems, "|") {
				t.Errorf("items = %v, want %v", got[:len(tt.wantItems)], tt.wantItems)
			}
			if last := got[len(got)-1]; !strings.HasPrefix(last, "error:") {
				t.Errorf("last line = %q, want an error", last)
			}
		})
	}
}

func TestRunDemosStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	env := testEnv(&out)
	env.stream.Interval = time.Hour
	d, _ := findDemo("interval")
	if err := runDemos(ctx, env, []demo{d}); err == nil {
		t.Fatal("expected an error from a cancelled context")
	}
}

func TestFindDemo(t *testing.T) {
	if _, err := findDemo("FLATMAP"); err != nil {
		t.Errorf("lookup is case-insensitive: %v", err)
	}
	_, err := findDemo("nope")
	if !errors.HasCode(err, errors.ErrCodeNotFound) {
		t.Errorf("err = %v, want NOT_FOUND", err)
	}
	if got := len(demoNames()); got != len(demos) {
		t.Errorf("demoNames = %d entries, want %d", got, len(demos))
	}
}
