package writer

import (
	"context"
	"testing"
	"time"

	appconfig "darkseer/config"
	"darkseer/models"
)

type fakeReparser struct {
	calls chan []int64
}

func (f *fakeReparser) Reparse(ctx context.Context, replaySalts []int64) error {
	f.calls <- replaySalts
	return nil
}

func TestMatchWriterStagesAndRequestsReparse(t *testing.T) {
	store := newTestStore(t)
	reparser := &fakeReparser{calls: make(chan []int64, 1)}

	cfg := &appconfig.Config{}
	cfg.Stratz.BatchSize = 10

	normChan := make(chan models.NormalizedMatch, 1)
	incompleteChan := make(chan models.IncompleteMatch, 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := NewMatchWriter(cfg, store, reparser, normChan, incompleteChan)
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	incompleteChan <- models.IncompleteMatch{MatchID: 42, ReplaySalt: 999}

	select {
	case salts := <-reparser.calls:
		if len(salts) != 1 || salts[0] != 999 {
			t.Errorf("unexpected reparse salts %v", salts)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("reparse never requested")
	}

	staged, err := store.StagedMatches(context.Background())
	if err != nil {
		t.Fatalf("StagedMatches: %v", err)
	}
	if len(staged) != 1 || staged[0].MatchID != 42 {
		t.Fatalf("tombstone not staged: %+v", staged)
	}

	cancel()
	w.Stop()
}

func TestMatchWriterFlushesBatchOnStop(t *testing.T) {
	store := newTestStore(t)
	reparser := &fakeReparser{calls: make(chan []int64, 1)}

	cfg := &appconfig.Config{}
	cfg.Stratz.BatchSize = 100

	normChan := make(chan models.NormalizedMatch, 1)
	incompleteChan := make(chan models.IncompleteMatch)

	ctx, cancel := context.WithCancel(context.Background())

	w := NewMatchWriter(cfg, store, reparser, normChan, incompleteChan)
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	normChan <- normalizedFixture()
	close(normChan)

	// The loop exits on channel close with the match still batched;
	// Stop must flush it.
	time.Sleep(50 * time.Millisecond)
	cancel()
	w.Stop()

	if _, err := store.ReadMatch(context.Background(), 100); err != nil {
		t.Fatalf("batched match not flushed on stop: %v", err)
	}
}
