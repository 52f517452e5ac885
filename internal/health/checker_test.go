package health

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

type fakePinger struct {
	fail atomic.Bool
}

func (f *fakePinger) Ping(ctx context.Context) error {
	if f.fail.Load() {
		return errors.New("down")
	}
	return nil
}

func TestCheckerTracksDependency(t *testing.T) {
	p := &fakePinger{}
	c := NewChecker("store", p, zerolog.Nop(), time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Start(ctx, 10*time.Millisecond)

	assert.Eventually(t, c.IsHealthy, time.Second, 5*time.Millisecond)

	p.fail.Store(true)
	assert.Eventually(t, func() bool { return !c.IsHealthy() }, time.Second, 5*time.Millisecond)

	p.fail.Store(false)
	assert.Eventually(t, c.IsHealthy, time.Second, 5*time.Millisecond)
}

func TestCheckerStartsUnhealthy(t *testing.T) {
	c := NewChecker("store", &fakePinger{}, zerolog.Nop(), time.Second)
	assert.False(t, c.IsHealthy())
}
