package processor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	appconfig "darkseer/config"
	"darkseer/logger"
	"darkseer/models"
)

// MatchProcessor normalizes raw match trees from the fetch stage and
// forwards the results to the write stage. Matches that cannot be
// normalized are emitted as reparse tombstones instead.
type MatchProcessor struct {
	config         *appconfig.Config
	rawChan        <-chan models.RawMatch
	normChan       chan<- models.NormalizedMatch
	incompleteChan chan<- models.IncompleteMatch
	ctx            context.Context
	wg             *sync.WaitGroup
	mu             sync.RWMutex
	running        bool
	stop           chan struct{}
	log            *logger.Log

	normalizer *Normalizer
}

// NewMatchProcessor creates a new processor instance.
func NewMatchProcessor(cfg *appconfig.Config, rawChan <-chan models.RawMatch, normChan chan<- models.NormalizedMatch, incompleteChan chan<- models.IncompleteMatch) *MatchProcessor {
	return &MatchProcessor{
		config:         cfg,
		rawChan:        rawChan,
		normChan:       normChan,
		incompleteChan: incompleteChan,
		wg:             &sync.WaitGroup{},
		log:            logger.GetLogger(),
		normalizer:     NewNormalizer(),
	}
}

// Start begins draining the raw match channel.
func (p *MatchProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("match processor already running")
	}
	p.running = true
	p.ctx = ctx
	p.stop = make(chan struct{})
	p.mu.Unlock()

	log := p.log.WithComponent("normalizer").WithFields(logger.Fields{"operation": "start"})
	log.Info("starting match processor")

	workers := p.config.Processor.MaxWorkers
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}

	p.wg.Add(1)
	go p.channelReporter(ctx)

	log.Info("match processor started successfully")
	return nil
}

// Stop waits for in-flight normalizations to finish.
func (p *MatchProcessor) Stop() {
	p.mu.Lock()
	if p.running {
		p.running = false
		close(p.stop)
	}
	p.mu.Unlock()

	p.log.WithComponent("normalizer").Info("stopping match processor")
	p.wg.Wait()
	p.log.WithComponent("normalizer").Info("match processor stopped")
}

func (p *MatchProcessor) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case raw, ok := <-p.rawChan:
			if !ok {
				return
			}
			p.handleMatch(raw)
		}
	}
}

func (p *MatchProcessor) handleMatch(raw models.RawMatch) {
	log := p.log.WithComponent("normalizer").WithFields(logger.Fields{"match_id": raw.ID})

	start := time.Now()
	norm, err := p.normalizer.NormalizeMatch(raw)
	if err != nil {
		var incomplete *IncompleteDataError
		if errors.As(err, &incomplete) {
			log.WithFields(logger.Fields{"missing": incomplete.Section}).Warn("incomplete match payload, staging for reparse")
			logger.IncrementMatchIncomplete()
			select {
			case p.incompleteChan <- Tombstone(raw):
			case <-p.ctx.Done():
			}
			return
		}

		var unknownEnum *models.UnknownEnumValueError
		if errors.As(err, &unknownEnum) {
			// Defaulting would corrupt the record; the match is skipped.
			log.WithError(err).Error("unknown enum code, skipping match")
			return
		}

		log.WithError(err).Error("normalization failed, skipping match")
		return
	}

	logger.IncrementMatchNormalized(len(norm.Events))
	logger.LogPerformanceEntry(log, "normalizer", "normalize_match", time.Since(start), logger.Fields{
		"events":    len(norm.Events),
		"movements": len(norm.Movements),
	})

	select {
	case p.normChan <- *norm:
	case <-p.ctx.Done():
	}
}

func (p *MatchProcessor) channelReporter(ctx context.Context) {
	defer p.wg.Done()
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stop:
			return
		case <-ticker.C:
			p.log.WithComponent("normalizer").WithFields(logger.Fields{
				"raw_channel_len":  len(p.rawChan),
				"raw_channel_cap":  cap(p.rawChan),
				"norm_channel_len": len(p.normChan),
				"norm_channel_cap": cap(p.normChan),
			}).Info("match processor channel sizes")
		}
	}
}
