package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"saunawatch/internal/config"
	appLog "saunawatch/internal/log"
)

// Status is the per-source outcome of a run.
type Status string

const (
	StatusOK       Status = "ok"
	StatusFailed   Status = "failed"
	StatusDisabled Status = "disabled"
)

// Result records what happened to one source during a run. A failed source
// carries its error text; a successful one points at the raw artifact.
type Result struct {
	Source     string `json:"source"`
	Status     Status `json:"status"`
	Error      string `json:"error,omitempty"`
	EventCount int    `json:"event_count"`
	ElapsedMS  int64  `json:"elapsed_ms"`
	OutputFile string `json:"output_file,omitempty"`
}

// Runner fetches every configured source, writing each raw payload to
// RawDir. Sources run concurrently up to Workers unless Sequential is set,
// and one source failing never affects the others.
type Runner struct {
	RawDir     string
	Workers    int
	Sequential bool

	// NewFetcher builds the fetcher for a source. Tests swap this in; the
	// zero value uses New.
	NewFetcher func(config.SourceConfig) (Fetcher, error)
}

// Run executes all sources and returns one Result per source, in the same
// order as the input regardless of execution order.
func (r *Runner) Run(ctx context.Context, sources []config.SourceConfig, win Window) []Result {
	results := make([]Result, len(sources))

	workers := r.Workers
	if r.Sequential || workers < 1 {
		workers = 1
	}
	if workers > len(sources) {
		workers = len(sources)
	}
	if workers < 1 {
		return results
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = r.runOne(ctx, sources[idx], win)
			}
		}()
	}
	for i := range sources {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}

func (r *Runner) runOne(ctx context.Context, sc config.SourceConfig, win Window) Result {
	res := Result{Source: sc.Name}
	if !sc.Enabled {
		res.Status = StatusDisabled
		appLog.Debug("source disabled, skipping", "source", sc.Name)
		return res
	}

	newFetcher := r.NewFetcher
	if newFetcher == nil {
		newFetcher = New
	}
	fetcher, err := newFetcher(sc)
	if err != nil {
		res.Status = StatusFailed
		res.Error = err.Error()
		appLog.Error("source setup failed", err, "source", sc.Name)
		return res
	}

	timeout := sc.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	fctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	started := time.Now()
	payload, err := fetcher.Fetch(fctx, win)
	res.ElapsedMS = time.Since(started).Milliseconds()
	if err != nil {
		res.Status = StatusFailed
		res.Error = err.Error()
		appLog.Error("source fetch failed", err, "source", sc.Name, "elapsed_ms", res.ElapsedMS)
		return res
	}

	path := filepath.Join(r.RawDir, sc.OutputFile)
	if err := writeArtifact(path, payload); err != nil {
		res.Status = StatusFailed
		res.Error = err.Error()
		appLog.Error("artifact write failed", err, "source", sc.Name, "path", path)
		return res
	}

	res.Status = StatusOK
	res.OutputFile = sc.OutputFile
	appLog.Info("source fetched", "source", sc.Name, "bytes", len(payload), "elapsed_ms", res.ElapsedMS)
	return res
}

// writeArtifact writes the payload via a temp file and rename so readers
// never observe a torn artifact.
func writeArtifact(path string, payload []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create raw dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".artifact-*.json")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close artifact: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename artifact: %w", err)
	}
	return nil
}
