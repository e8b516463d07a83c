// Package profiler keeps a size profile of a map file up to date: it polls
// the file and re-analyzes it whenever the linker rewrites it.
package profiler

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/VladMinzatu/mapprof/internal/analyzer"
)

type Analyzer interface {
	AnalyzeFile(ctx context.Context, path string) (*analyzer.Report, error)
}

// fileVersion identifies one state of the watched file.
type fileVersion struct {
	modTime time.Time
	size    int64
}

func (v fileVersion) same(o fileVersion) bool {
	return v.size == o.size && v.modTime.Equal(o.modTime)
}

type Profiler struct {
	path            string
	collectInterval time.Duration
	analyzer        Analyzer
	stat            func(string) (os.FileInfo, error)

	reportsCh chan *analyzer.Report
	last      fileVersion

	started bool
	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewProfiler(path string, collectInterval time.Duration, a Analyzer) (*Profiler, error) {
	if collectInterval <= 1*time.Millisecond {
		return nil, errors.New("invalid collectInterval; must be > 1ms")
	}
	if path == "" {
		return nil, errors.New("no map file to watch")
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Profiler{path: path,
		collectInterval: collectInterval,
		analyzer:        a,
		stat:            os.Stat,
		ctx:             ctx,
		cancel:          cancel,
		reportsCh:       make(chan *analyzer.Report, 1),
	}, nil
}

// Reports delivers one report per observed change of the file. It is closed
// by Stop.
func (p *Profiler) Reports() <-chan *analyzer.Report { return p.reportsCh }

func (p *Profiler) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return errors.New("profiler already started")
	}
	if p.ctx.Err() != nil {
		return errors.New("profiler already stopped")
	}
	p.started = true

	p.wg.Add(1)
	go p.collector()

	return nil
}

func (p *Profiler) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started {
		return errors.New("profiler not started")
	}
	p.cancel()

	// Wait for collector to exit
	p.wg.Wait()
	close(p.reportsCh)
	p.started = false
	return nil
}

func (p *Profiler) collector() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.collectInterval)
	defer ticker.Stop()

	p.collect()
	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.collect()
		}
	}
}

func (p *Profiler) collect() {
	fi, err := p.stat(p.path)
	if err != nil {
		slog.Warn("Failed to stat map file", "path", p.path, "error", err)
		return
	}
	v := fileVersion{modTime: fi.ModTime(), size: fi.Size()}
	if v.same(p.last) {
		return
	}

	r, err := p.analyzer.AnalyzeFile(p.ctx, p.path)
	if err != nil {
		if p.ctx.Err() == nil {
			slog.Warn("Failed to analyze map file", "path", p.path, "error", err)
		}
		return
	}
	p.last = v
	p.deliver(r)
}

// deliver hands r to the consumer. A report still waiting in the buffer is
// stale once the file changed again, so it is replaced by r. The collector is
// the only sender, so the buffer has room after the drain.
func (p *Profiler) deliver(r *analyzer.Report) {
	select {
	case p.reportsCh <- r:
		return
	default:
	}
	select {
	case <-p.reportsCh:
		slog.Warn("consumer wasn't ready, pending report replaced", "path", p.path)
	default:
	}
	p.reportsCh <- r
}
