package stratz

import (
	"context"
	"fmt"
	"sync"
	"time"

	appconfig "darkseer/config"
	"darkseer/logger"
	"darkseer/models"
)

// DimensionStore receives the slowly-changing lookup entities fetched at
// the start of a collection pass.
type DimensionStore interface {
	WriteGameVersions(ctx context.Context, versions []models.GameVersion) error
	WriteHeroes(ctx context.Context, heroes []models.Hero) error
	WriteItems(ctx context.Context, items []models.Item) error
	WriteTournaments(ctx context.Context, tournaments []models.Tournament) error
	StagedMatches(ctx context.Context) ([]models.IncompleteMatch, error)
}

// Collector is the fetch stage. One pass syncs the dimension tables,
// walks every notable tournament's match list, re-fetches previously
// staged matches and pushes each raw match tree downstream.
type Collector struct {
	config  *appconfig.Config
	client  *Client
	store   DimensionStore
	rawChan chan<- models.RawMatch
	ctx     context.Context
	wg      *sync.WaitGroup
	mu      sync.RWMutex
	running bool
	log     *logger.Log
}

// NewCollector creates a new collector instance.
func NewCollector(cfg *appconfig.Config, client *Client, store DimensionStore, rawChan chan<- models.RawMatch) *Collector {
	return &Collector{
		config:  cfg,
		client:  client,
		store:   store,
		rawChan: rawChan,
		wg:      &sync.WaitGroup{},
		log:     logger.GetLogger(),
	}
}

// Start runs one collection pass in the background and closes the raw
// channel when the pass completes, so downstream stages can drain and
// exit.
func (c *Collector) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return fmt.Errorf("collector already running")
	}
	c.running = true
	c.ctx = ctx
	c.mu.Unlock()

	log := c.log.WithComponent("collector").WithFields(logger.Fields{"operation": "start"})
	log.Info("starting collector")

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer close(c.rawChan)
		if err := c.run(ctx); err != nil && ctx.Err() == nil {
			log.WithError(err).Error("collection pass failed")
		}
	}()

	log.Info("collector started successfully")
	return nil
}

// Stop waits for the pass to finish or the context to be cancelled.
func (c *Collector) Stop() {
	c.mu.Lock()
	c.running = false
	c.mu.Unlock()

	c.log.WithComponent("collector").Info("stopping collector")
	c.wg.Wait()
	c.log.WithComponent("collector").Info("collector stopped")
}

func (c *Collector) run(ctx context.Context) error {
	start := time.Now()
	log := c.log.WithComponent("collector")

	if err := c.syncDimensions(ctx); err != nil {
		return err
	}

	tournaments, err := c.client.Tournaments(ctx, nil)
	if err != nil {
		return fmt.Errorf("list tournaments: %w", err)
	}
	if err := c.store.WriteTournaments(ctx, tournaments); err != nil {
		return err
	}
	log.WithFields(logger.Fields{"tournaments": len(tournaments)}).Info("tournament dimension synced")

	total := 0
	for _, t := range tournaments {
		matchIDs, err := c.client.TournamentMatches(ctx, t.LeagueID)
		if err != nil {
			log.WithError(err).WithFields(logger.Fields{"league_id": t.LeagueID}).Error("failed to list league matches")
			continue
		}
		n, err := c.fetchMatches(ctx, matchIDs)
		if err != nil {
			return err
		}
		total += n
	}

	missing, err := c.collectMissing(ctx)
	if err != nil {
		return err
	}
	total += missing

	logger.LogPerformanceEntry(log, "collector", "collection_pass", time.Since(start), logger.Fields{
		"matches_fetched": total,
	})
	return nil
}

func (c *Collector) syncDimensions(ctx context.Context) error {
	patches, err := c.client.Patches(ctx)
	if err != nil {
		return fmt.Errorf("sync patches: %w", err)
	}
	if err := c.store.WriteGameVersions(ctx, patches); err != nil {
		return err
	}

	heroes, err := c.client.Heroes(ctx)
	if err != nil {
		return fmt.Errorf("sync heroes: %w", err)
	}
	if err := c.store.WriteHeroes(ctx, heroes); err != nil {
		return err
	}

	items, err := c.client.Items(ctx)
	if err != nil {
		return fmt.Errorf("sync items: %w", err)
	}
	if err := c.store.WriteItems(ctx, items); err != nil {
		return err
	}

	c.log.WithComponent("collector").WithFields(logger.Fields{
		"patches": len(patches),
		"heroes":  len(heroes),
		"items":   len(items),
	}).Info("dimension tables synced")
	return nil
}

// collectMissing re-fetches matches whose earlier payload was
// incomplete. Successfully normalized matches clear their own
// tombstones downstream, so still-broken matches simply stay staged for
// the next pass.
func (c *Collector) collectMissing(ctx context.Context) (int, error) {
	staged, err := c.store.StagedMatches(ctx)
	if err != nil {
		return 0, err
	}
	if len(staged) == 0 {
		return 0, nil
	}

	c.log.WithComponent("collector").WithFields(logger.Fields{"staged": len(staged)}).Info("re-fetching staged matches")

	ids := make([]int64, 0, len(staged))
	for _, m := range staged {
		ids = append(ids, m.MatchID)
	}
	return c.fetchMatches(ctx, ids)
}

// fetchMatches pulls match detail trees in bounded chunks. The chunk
// cap is the backpressure control for the expensive match-detail query.
func (c *Collector) fetchMatches(ctx context.Context, matchIDs []int64) (int, error) {
	batchSize := c.config.Stratz.BatchSize
	if batchSize < 1 {
		batchSize = 1
	}

	log := c.log.WithComponent("collector")
	fetched := 0
	for start := 0; start < len(matchIDs); start += batchSize {
		end := start + batchSize
		if end > len(matchIDs) {
			end = len(matchIDs)
		}
		chunk := matchIDs[start:end]

		matches, err := c.client.Matches(ctx, chunk)
		if err != nil {
			return fetched, fmt.Errorf("fetch match chunk: %w", err)
		}
		if len(matches) < len(chunk) {
			log.WithFields(logger.Fields{
				"requested": len(chunk),
				"returned":  len(matches),
			}).Warn("provider omitted unknown matches from chunk")
		}

		for _, m := range matches {
			select {
			case c.rawChan <- m:
				fetched++
			case <-ctx.Done():
				return fetched, ctx.Err()
			}
		}
	}
	return fetched, nil
}
