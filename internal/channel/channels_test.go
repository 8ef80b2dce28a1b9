package channel

import (
	"testing"

	"darkseer/models"
)

func TestNewChannelsBufferSizes(t *testing.T) {
	c := NewChannels(10, 5, 2)
	if cap(c.Raw) != 10 || cap(c.Norm) != 5 || cap(c.Incomplete) != 2 {
		t.Errorf("unexpected buffer sizes: raw=%d norm=%d incomplete=%d", cap(c.Raw), cap(c.Norm), cap(c.Incomplete))
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	c := NewChannels(1, 1, 1)
	c.Norm <- models.NormalizedMatch{}
	c.Close()
	c.Close()

	if _, ok := <-c.Norm; !ok {
		t.Errorf("buffered value lost on close")
	}
	if _, ok := <-c.Norm; ok {
		t.Errorf("norm channel not closed")
	}
	if _, ok := <-c.Incomplete; ok {
		t.Errorf("incomplete channel not closed")
	}
}
