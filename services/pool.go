package services

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/semaphore"
)

// SimulationPool runs background simulation jobs with bounded concurrency.
// A key can only have one job queued or running at a time.
type SimulationPool struct {
	ctx      context.Context
	sem      *semaphore.Weighted
	wg       sync.WaitGroup
	mu       sync.Mutex
	inFlight map[string]struct{}
	logger   *slog.Logger
}

func NewSimulationPool(ctx context.Context, workers int, logger *slog.Logger) *SimulationPool {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SimulationPool{
		ctx:      ctx,
		sem:      semaphore.NewWeighted(int64(workers)),
		inFlight: make(map[string]struct{}),
		logger:   logger,
	}
}

// Dispatch schedules job under key. It returns false if a job with the same key
// is already pending or the pool has been stopped.
func (p *SimulationPool) Dispatch(key string, job func(ctx context.Context)) bool {
	p.mu.Lock()
	if p.ctx.Err() != nil {
		p.mu.Unlock()
		return false
	}
	if _, busy := p.inFlight[key]; busy {
		p.mu.Unlock()
		return false
	}
	p.inFlight[key] = struct{}{}
	p.wg.Add(1)
	p.mu.Unlock()

	go func() {
		defer p.wg.Done()
		defer p.release(key)

		if err := p.sem.Acquire(p.ctx, 1); err != nil {
			p.logger.Warn("simulation job dropped", slog.String("job", key), slog.Any("error", err))
			return
		}
		defer p.sem.Release(1)
		job(p.ctx)
	}()
	return true
}

func (p *SimulationPool) InFlight(key string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.inFlight[key]
	return ok
}

// Wait ждёт завершения всех задач, включая поставленные из других задач.
func (p *SimulationPool) Wait() {
	p.wg.Wait()
}

func (p *SimulationPool) release(key string) {
	p.mu.Lock()
	delete(p.inFlight, key)
	p.mu.Unlock()
}
