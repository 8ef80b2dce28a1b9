package writer

import (
	"context"
	"fmt"
	"sync"
	"time"

	appconfig "darkseer/config"
	"darkseer/logger"
	"darkseer/models"
)

// ReparseRequester asks the upstream provider to re-run replay parsing.
type ReparseRequester interface {
	Reparse(ctx context.Context, replaySalts []int64) error
}

// MatchWriter drains the normalized and incomplete channels into the
// store. Normalized matches are written in batches; incomplete matches
// are staged as tombstones and a reparse is requested for each.
type MatchWriter struct {
	config         *appconfig.Config
	store          *Store
	normChan       <-chan models.NormalizedMatch
	incompleteChan <-chan models.IncompleteMatch
	reparse        ReparseRequester
	ctx            context.Context
	wg             *sync.WaitGroup
	mu             sync.RWMutex
	running        bool
	log            *logger.Log

	batch []models.NormalizedMatch
}

// NewMatchWriter creates a new writer instance.
func NewMatchWriter(cfg *appconfig.Config, store *Store, reparse ReparseRequester, normChan <-chan models.NormalizedMatch, incompleteChan <-chan models.IncompleteMatch) *MatchWriter {
	return &MatchWriter{
		config:         cfg,
		store:          store,
		normChan:       normChan,
		incompleteChan: incompleteChan,
		reparse:        reparse,
		wg:             &sync.WaitGroup{},
		log:            logger.GetLogger(),
	}
}

// Start begins draining both input channels.
func (w *MatchWriter) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("match writer already running")
	}
	w.running = true
	w.ctx = ctx
	w.mu.Unlock()

	log := w.log.WithComponent("writer").WithFields(logger.Fields{"operation": "start"})
	log.Info("starting match writer")

	w.wg.Add(1)
	go w.writeLoop()

	w.wg.Add(1)
	go w.stagingLoop()

	log.Info("match writer started successfully")
	return nil
}

// Stop flushes the pending batch and waits for both loops.
func (w *MatchWriter) Stop() {
	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	w.log.WithComponent("writer").Info("stopping match writer")
	w.wg.Wait()
	w.flush(context.Background())
	w.log.WithComponent("writer").Info("match writer stopped")
}

func (w *MatchWriter) writeLoop() {
	defer w.wg.Done()

	batchSize := w.config.Stratz.BatchSize
	if batchSize < 1 {
		batchSize = 1
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case nm, ok := <-w.normChan:
			if !ok {
				return
			}
			w.batch = append(w.batch, nm)
			if len(w.batch) >= batchSize {
				w.flush(w.ctx)
			}
		case <-ticker.C:
			w.flush(w.ctx)
		}
	}
}

func (w *MatchWriter) flush(ctx context.Context) {
	if len(w.batch) == 0 {
		return
	}

	log := w.log.WithComponent("writer").WithFields(logger.Fields{"batch_size": len(w.batch)})
	start := time.Now()
	if err := w.store.WriteMatches(ctx, w.batch); err != nil {
		log.WithError(err).Error("failed to write match batch")
		// The batch is kept; the next flush retries it. Upserts make
		// the redelivery safe.
		return
	}

	logger.LogDataFlowEntry(log, "normalizer", "sqlite", len(w.batch), "matches")
	logger.LogPerformanceEntry(log, "writer", "write_batch", time.Since(start), nil)
	w.batch = w.batch[:0]
}

func (w *MatchWriter) stagingLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		case m, ok := <-w.incompleteChan:
			if !ok {
				return
			}
			w.handleIncomplete(m)
		}
	}
}

func (w *MatchWriter) handleIncomplete(m models.IncompleteMatch) {
	log := w.log.WithComponent("staging").WithFields(logger.Fields{"match_id": m.MatchID})

	if err := w.store.StageIncomplete(w.ctx, m); err != nil {
		log.WithError(err).Error("failed to stage tombstone")
		return
	}
	log.Info("staged incomplete match for reparse")

	// Fire and forget: a failed reparse request is logged, never
	// retried. The staged tombstone keeps the match eligible for the
	// next collection run regardless.
	if m.ReplaySalt != 0 {
		if err := w.reparse.Reparse(w.ctx, []int64{m.ReplaySalt}); err != nil {
			log.WithError(err).Warn("reparse request failed")
		}
	}
}
