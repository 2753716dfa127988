package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hbpc002/log-lottery/internal/platform/logging"
	"github.com/hbpc002/log-lottery/internal/platform/retry"
	"golang.org/x/time/rate"
)

type options struct {
	baseURL  string
	count    int
	interval time.Duration
	seed     uint64
	policy   retry.Policy
}

type summary struct {
	Accepted  int
	Duplicate int
	Failed    int
}

func main() {
	var (
		baseURL  = flag.String("url", "http://127.0.0.1:8080", "Server base URL")
		count    = flag.Int("count", 20, "Number of submissions to send")
		interval = flag.Duration("interval", 800*time.Millisecond, "Delay between submissions")
		seed     = flag.Uint64("seed", 0, "Random seed (0 picks one from the clock)")
		attempts = flag.Int("attempts", 3, "Attempts per submission for transient failures")
		verbose  = flag.Bool("verbose", false, "Verbose logging")
	)
	flag.Parse()

	if *count < 1 {
		log.Fatal("-count must be at least 1")
	}
	if *interval <= 0 {
		log.Fatal("-interval must be positive")
	}
	if *seed == 0 {
		*seed = uint64(time.Now().UnixNano())
	}

	level := "info"
	if *verbose {
		level = "debug"
	}
	logging.InitLogger(level, "text")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := options{
		baseURL:  strings.TrimRight(*baseURL, "/"),
		count:    *count,
		interval: *interval,
		seed:     *seed,
		policy: retry.Policy{
			MaxAttempts:      *attempts,
			InitialBackoff:   250 * time.Millisecond,
			RateLimitBackoff: 2 * time.Second,
			OnRetry: func(attempt int, err error, backoff time.Duration) {
				slog.Warn("Submission failed, retrying", "attempt", attempt, "error", err, "backoff", backoff)
			},
		},
	}

	sum, err := run(ctx, &http.Client{Timeout: 10 * time.Second}, opts, os.Stdout)
	if err != nil {
		log.Fatalf("Load generation aborted: %v", err)
	}
	if sum.Failed > 0 {
		os.Exit(1)
	}
}

// run sends opts.count random submissions paced at one per interval and prints a line per result.
func run(ctx context.Context, client *http.Client, opts options, out io.Writer) (summary, error) {
	gen := newGenerator(opts.seed)
	sub := newSubmitter(client, opts.baseURL, opts.policy)
	limiter := rate.NewLimiter(rate.Every(opts.interval), 1)

	slog.Info("Generating submissions", "count", opts.count, "interval", opts.interval, "url", sub.endpoint, "seed", opts.seed)

	var sum summary
	for i := 1; i <= opts.count; i++ {
		if err := limiter.Wait(ctx); err != nil {
			return sum, fmt.Errorf("pacing: %w", err)
		}

		p := gen.next()
		msg, err := sub.submit(ctx, p)
		switch {
		case err == nil:
			sum.Accepted++
			_, _ = fmt.Fprintf(out, "[%d] ok        %s / %s: %s\n", i, p.Name, p.Phone, msg)
		case isDuplicate(err):
			sum.Duplicate++
			_, _ = fmt.Fprintf(out, "[%d] duplicate %s / %s\n", i, p.Name, p.Phone)
		case ctx.Err() != nil:
			return sum, fmt.Errorf("submission %d: %w", i, ctx.Err())
		default:
			sum.Failed++
			_, _ = fmt.Fprintf(out, "[%d] failed    %s / %s: %v\n", i, p.Name, p.Phone, err)
		}
	}

	_, _ = fmt.Fprintf(out, "done: %d accepted, %d duplicate, %d failed\n", sum.Accepted, sum.Duplicate, sum.Failed)
	return sum, nil
}
