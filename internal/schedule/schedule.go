// Package schedule runs recurring jobs inside the process. Each job owns a
// cancel.Token; stopping a job cancels it, which also interrupts the sleep
// between runs.
package schedule

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/lu-zhengda/reclaim/internal/cancel"
	"github.com/rs/zerolog"
)

// RunFunc is one execution of a job. It should return promptly once token
// is cancelled.
type RunFunc func(token *cancel.Token) error

type job struct {
	token    *cancel.Token
	done     chan struct{}
	interval time.Duration
}

// Registry tracks the active jobs. A single mutex guards the job table and
// is never held while a job runs.
type Registry struct {
	mu     sync.Mutex
	jobs   map[string]*job
	logger zerolog.Logger
}

func NewRegistry(logger zerolog.Logger) *Registry {
	return &Registry{jobs: make(map[string]*job), logger: logger}
}

// Start launches fn in the background. It waits firstDelay, runs fn, then
// repeats every interval until the job is stopped.
func (r *Registry) Start(id string, interval, firstDelay time.Duration, fn RunFunc) error {
	if interval <= 0 {
		return fmt.Errorf("invalid interval %s for job %q", interval, id)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.jobs[id]; exists {
		return fmt.Errorf("job %q is already running", id)
	}
	j := &job{token: cancel.New(), done: make(chan struct{}), interval: interval}
	r.jobs[id] = j

	go r.loop(id, j, firstDelay, fn)
	return nil
}

func (r *Registry) loop(id string, j *job, firstDelay time.Duration, fn RunFunc) {
	defer func() {
		r.mu.Lock()
		if r.jobs[id] == j {
			delete(r.jobs, id)
		}
		r.mu.Unlock()
		close(j.done)
	}()

	if !j.token.Sleep(firstDelay) {
		return
	}
	for {
		if j.token.IsCancelled() {
			return
		}
		start := time.Now()
		if err := fn(j.token); err != nil {
			r.logger.Error().Err(err).Str("job", id).Msg("scheduled run failed")
		} else {
			r.logger.Info().Str("job", id).Dur("took", time.Since(start)).Msg("scheduled run finished")
		}
		if !j.token.Sleep(j.interval) {
			return
		}
	}
}

// Stop cancels the job and waits for its current run to return. It
// reports whether the job was running.
func (r *Registry) Stop(id string) bool {
	r.mu.Lock()
	j, ok := r.jobs[id]
	if ok {
		delete(r.jobs, id)
	}
	r.mu.Unlock()
	if !ok {
		return false
	}
	j.token.Cancel()
	<-j.done
	return true
}

// StopAll stops every job and waits for all of them.
func (r *Registry) StopAll() {
	r.mu.Lock()
	jobs := r.jobs
	r.jobs = make(map[string]*job)
	r.mu.Unlock()

	for _, j := range jobs {
		j.token.Cancel()
	}
	for _, j := range jobs {
		<-j.done
	}
}

// Active returns the IDs of running jobs in sorted order.
func (r *Registry) Active() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.jobs))
	for id := range r.jobs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ParseInterval accepts "daily", "weekly" or any time.ParseDuration string.
func ParseInterval(s string) (time.Duration, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "daily":
		return 24 * time.Hour, nil
	case "weekly":
		return 7 * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid interval %q: %w", s, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid interval %q: must be positive", s)
	}
	return d, nil
}

// parseTime splits a "HH:MM" string into hour and minute integers.
func parseTime(timeStr string) (int, int, error) {
	parts := strings.SplitN(timeStr, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time format %q, expected HH:MM", timeStr)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q: must be 0-23", timeStr)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q: must be 0-59", timeStr)
	}
	return hour, minute, nil
}

// DelayUntil returns how long to wait from now until the next local
// occurrence of at ("HH:MM"). An empty at means run immediately.
func DelayUntil(at string, now time.Time) (time.Duration, error) {
	if at == "" {
		return 0, nil
	}
	hour, minute, err := parseTime(at)
	if err != nil {
		return 0, err
	}
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next.Sub(now), nil
}
