package channel

import (
	"context"
	"sync"
	"time"

	"darkseer/logger"
	"darkseer/models"
)

// Channels wires the pipeline stages together: collector -> Raw ->
// processor -> Norm/Incomplete -> writer.
type Channels struct {
	Raw        chan models.RawMatch
	Norm       chan models.NormalizedMatch
	Incomplete chan models.IncompleteMatch

	closeNorm       sync.Once
	closeIncomplete sync.Once
	log             *logger.Log
}

func NewChannels(rawBufferSize, normBufferSize, incompleteBufferSize int) *Channels {
	log := logger.GetLogger()
	c := &Channels{
		Raw:        make(chan models.RawMatch, rawBufferSize),
		Norm:       make(chan models.NormalizedMatch, normBufferSize),
		Incomplete: make(chan models.IncompleteMatch, incompleteBufferSize),
		log:        log,
	}

	log.WithComponent("channels").WithFields(logger.Fields{
		"raw_buffer_size":        rawBufferSize,
		"norm_buffer_size":       normBufferSize,
		"incomplete_buffer_size": incompleteBufferSize,
	}).Info("pipeline channels initialized")

	return c
}

// Close shuts the downstream channels. The raw channel is closed by the
// collector when its pass completes, so it is not closed here.
func (c *Channels) Close() {
	c.closeNorm.Do(func() { close(c.Norm) })
	c.closeIncomplete.Do(func() { close(c.Incomplete) })
	c.log.WithComponent("channels").Info("pipeline channels closed")
}

// StartMetricsReporting periodically logs channel depths until the
// context is cancelled.
func (c *Channels) StartMetricsReporting(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.log.WithComponent("channels").WithFields(logger.Fields{
				"raw_len":        len(c.Raw),
				"raw_cap":        cap(c.Raw),
				"norm_len":       len(c.Norm),
				"norm_cap":       cap(c.Norm),
				"incomplete_len": len(c.Incomplete),
				"incomplete_cap": cap(c.Incomplete),
			}).Info("pipeline channel depths")
		}
	}
}
