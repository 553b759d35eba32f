package mem

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/4gsim/bpmn-engine/engine"
	"github.com/4gsim/bpmn-engine/engine/internal"
	"github.com/4gsim/bpmn-engine/model"
	"github.com/google/uuid"
)

func New(definitions *model.Definitions, customizers ...func(*Options)) (engine.Definition, error) {
	options := NewOptions()
	for _, customizer := range customizers {
		customizer(&options)
	}

	if err := options.Validate(); err != nil {
		return nil, err
	}

	memDefinition := memDefinition{}

	execution, err := internal.NewExecution(definitions, options.Common, uuid.NewString(), memDefinition.now)
	if err != nil {
		return nil, err
	}

	memDefinition.execution = execution

	if options.Common.TimerExecutorEnabled {
		memDefinition.timerExecutor = internal.NewTimerExecutor(
			&memDefinition,
			options.TimerExecutorInterval,
		)

		memDefinition.timerExecutor.Execute()
	}

	return &memDefinition, nil
}

func NewOptions() Options {
	return Options{
		Common:                engine.Options{},
		TimerExecutorInterval: 60 * time.Second,
	}
}

type Options struct {
	Common engine.Options // Common options

	// TimerExecutorInterval is the polling interval of the timer executor.
	TimerExecutorInterval time.Duration
}

func (o Options) Validate() error {
	if o.TimerExecutorInterval <= 0 {
		return fmt.Errorf("timer executor interval %s must be positive", o.TimerExecutorInterval)
	}
	return o.Common.Validate()
}

type memDefinition struct {
	mutex sync.Mutex

	execution *internal.Execution

	offset        time.Duration
	timerExecutor *internal.TimerExecutor
}

func (d *memDefinition) Execute(_ context.Context, cmd engine.ExecuteCmd) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.execution.Execute(cmd.Variables)
}

func (d *memDefinition) Resume(_ context.Context, cmd engine.ResumeCmd) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.execution.Resume(cmd.State, cmd.Variables)
}

func (d *memDefinition) Signal(_ context.Context, cmd engine.SignalCmd) (bool, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.execution.Signal(cmd.ActivityId, cmd.Value)
}

func (d *memDefinition) SendMessage(_ context.Context, cmd engine.SendMessageCmd) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.execution.SendMessage(cmd.TargetId, cmd.Value)
}

func (d *memDefinition) Stop(_ context.Context) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	d.execution.Stop()
	return nil
}

// SetTime increases the definition's time by adjusting an offset that is
// applied whenever the current time is read. Due timer catch events fire
// under the new time.
func (d *memDefinition) SetTime(_ context.Context, cmd engine.SetTimeCmd) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	d.mutex.Lock()
	defer d.mutex.Unlock()

	old := d.now()
	new := cmd.Time.UTC().Truncate(time.Millisecond)

	sub := new.Sub(old)
	if sub.Milliseconds() < 0 {
		return engine.Error{
			Type:  engine.ErrorConflict,
			Title: "failed to set time",
			Detail: fmt.Sprintf(
				"time %s is before engine time %s",
				new.Format(time.RFC3339),
				old.Format(time.RFC3339),
			),
		}
	}

	d.offset = d.offset + sub
	d.execution.FireDueTimers(d.now())
	return nil
}

func (d *memDefinition) GetState() (engine.DefinitionState, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.execution.GetState(), nil
}

func (d *memDefinition) GetOutput() map[string]any {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.execution.GetOutput()
}

func (d *memDefinition) GetPendingActivities() []engine.PendingActivity {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.execution.GetPendingActivities()
}

func (d *memDefinition) GetChildActivityById(id string) (engine.ActivityState, bool) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.execution.GetChildActivityById(id)
}

func (d *memDefinition) Shutdown() {
	if d.timerExecutor != nil {
		d.timerExecutor.Stop()
	}
}

// now returns the definition's time.
// must be UTC and truncated to millis, so that snapshots serialize stably
func (d *memDefinition) now() time.Time {
	return time.Now().UTC().Add(d.offset).Truncate(time.Millisecond)
}
