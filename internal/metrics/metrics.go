// Package metrics provides lightweight campaign counters without pulling
// in a metrics client dependency. Counters are shared by both workers and
// read once at end of run for the summary.
package metrics

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Campaign aggregates per-run outcome counters.
type Campaign struct {
	sent            atomic.Int64
	invalid         atomic.Int64
	retried         atomic.Int64
	skipped         atomic.Int64
	channelFailures atomic.Int64
	startTime       time.Time
}

func NewCampaign() *Campaign {
	return &Campaign{startTime: time.Now()}
}

func (c *Campaign) AddSent()           { c.sent.Add(1) }
func (c *Campaign) AddInvalid()        { c.invalid.Add(1) }
func (c *Campaign) AddRetried()        { c.retried.Add(1) }
func (c *Campaign) AddSkipped()        { c.skipped.Add(1) }
func (c *Campaign) AddChannelFailure() { c.channelFailures.Add(1) }

// Summary is a point-in-time copy of the counters.
type Summary struct {
	Sent            int64
	Invalid         int64
	Retried         int64
	Skipped         int64
	ChannelFailures int64
	Elapsed         time.Duration
}

func (c *Campaign) Summary() Summary {
	return Summary{
		Sent:            c.sent.Load(),
		Invalid:         c.invalid.Load(),
		Retried:         c.retried.Load(),
		Skipped:         c.skipped.Load(),
		ChannelFailures: c.channelFailures.Load(),
		Elapsed:         time.Since(c.startTime).Round(time.Second),
	}
}

func (s Summary) String() string {
	return fmt.Sprintf("sent=%d invalid=%d retried=%d skipped=%d channel_failures=%d elapsed=%s",
		s.Sent, s.Invalid, s.Retried, s.Skipped, s.ChannelFailures, s.Elapsed)
}
