package internal

import (
	"context"
	"errors"
	"time"

	"github.com/4gsim/bpmn-engine/engine"
	"github.com/4gsim/bpmn-engine/model"
	"github.com/adhocore/gronx"
)

func evaluateTimer(timer *model.Timer, start time.Time) (time.Time, error) {
	if !timer.Time.IsZero() {
		// must be UTC and truncated to millis (see engine/mem/mem.go:memDefinition#now)
		return timer.Time.UTC().Truncate(time.Millisecond), nil
	} else if timer.TimeCycle != "" {
		return gronx.NextTickAfter(timer.TimeCycle, start, false)
	} else if timer.TimeDuration != "" {
		duration, err := engine.NewISO8601Duration(timer.TimeDuration)
		if err != nil {
			return time.Time{}, err
		}
		return duration.Calculate(start), nil
	} else {
		return time.Time{}, errors.New("must specify a time, time cycle or time duration")
	}
}

// NewTimerExecutor creates an executor that periodically fires the due timer
// catch events of a definition.
func NewTimerExecutor(d engine.Definition, interval time.Duration) *TimerExecutor {
	tickerCtx, tickerCancel := context.WithCancel(context.Background())

	return &TimerExecutor{
		definition: d,

		tickerCtx:    tickerCtx,
		tickerCancel: tickerCancel,
		ticker:       time.NewTicker(interval),
	}
}

type TimerExecutor struct {
	definition engine.Definition

	tickerCtx    context.Context
	tickerCancel context.CancelFunc
	ticker       *time.Ticker
}

func (e *TimerExecutor) Execute() {
	go func() {
		for {
			select {
			case <-e.ticker.C:
				_ = e.definition.SetTime(e.tickerCtx, engine.SetTimeCmd{Time: time.Now()})
			case <-e.tickerCtx.Done():
				return
			}
		}
	}()
}

func (e *TimerExecutor) Stop() {
	e.ticker.Stop()
	e.tickerCancel()
}
