package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	yaml "github.com/goccy/go-yaml"

	"github.com/UniqueNetwork/unique-chain-sub001/internal/core/dispatch"
	"github.com/UniqueNetwork/unique-chain-sub001/internal/core/origin"
	"github.com/UniqueNetwork/unique-chain-sub001/internal/core/scheduler"
)

// Scenario is a scripted sequence of scheduler operations, read from YAML:
//
//	start: 1
//	ticks: 20
//	ops:
//	  - op: schedule
//	    name: nightly
//	    after: 4
//	    period: {interval: 5, count: 3}
//	    call: {name: system.remark, data: hello}
//	  - tick: 3
//	    op: cancel_named
//	    name: nightly
type Scenario struct {
	// Start is the first tick serviced. Zero defers to the node.
	Start uint32 `yaml:"start"`

	// Ticks is how many ticks to service.
	Ticks uint32 `yaml:"ticks"`

	Ops []Op `yaml:"ops"`
}

// Operation names accepted in scenarios.
const (
	opSchedule        = "schedule"
	opCancel          = "cancel"
	opCancelNamed     = "cancel_named"
	opChangePriority  = "change_priority"
	opReschedule      = "reschedule"
	opRescheduleNamed = "reschedule_named"
)

// Op is one scenario step. It is submitted after the scheduler has
// serviced Tick, as an extrinsic in that block would be.
type Op struct {
	Tick uint32 `yaml:"tick"`
	Op   string `yaml:"op"`

	// Name is the task name. Scheduling with a name makes the task named.
	Name string `yaml:"name"`

	// At and After give the target tick of schedule and reschedule ops.
	At    uint32  `yaml:"at"`
	After *uint32 `yaml:"after"`

	// When and Index address an anonymous task for cancel and reschedule.
	When  uint32 `yaml:"when"`
	Index uint32 `yaml:"index"`

	Priority *uint8            `yaml:"priority"`
	Origin   string            `yaml:"origin"`
	Period   *scheduler.Period `yaml:"period"`
	Call     CallSpec          `yaml:"call"`
}

// CallSpec describes the call of a schedule op.
type CallSpec struct {
	// Name is "module.method", e.g. system.remark.
	Name string `yaml:"name"`

	// Data is the system.remark payload.
	Data string `yaml:"data"`

	// RefTime and ProofSize parameterize system.burn.
	RefTime   uint64 `yaml:"ref_time"`
	ProofSize uint64 `yaml:"proof_size"`

	// Target, After and Priority parameterize scheduler.spawn and
	// scheduler.cancel_named.
	Target   string `yaml:"target"`
	After    uint32 `yaml:"after"`
	Priority uint8  `yaml:"priority"`
}

// LoadScenario reads and validates a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario %s: %w", path, err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes and validates a YAML scenario.
func ParseScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.UnmarshalWithOptions(data, &sc, yaml.DisallowUnknownField()); err != nil {
		return nil, fmt.Errorf("failed to parse scenario: %w", err)
	}
	if sc.Ticks == 0 {
		return nil, fmt.Errorf("scenario must service at least one tick")
	}
	for i := range sc.Ops {
		op := &sc.Ops[i]
		op.Op = strings.ToLower(strings.TrimSpace(op.Op))
		if op.Op == "" {
			op.Op = opSchedule
		}
		if err := op.validate(); err != nil {
			return nil, fmt.Errorf("op %d (%s): %w", i, op.Op, err)
		}
	}
	return &sc, nil
}

func (op *Op) validate() error {
	if _, err := origin.Parse(op.originText()); err != nil {
		return err
	}
	switch op.Op {
	case opSchedule:
		if op.Call.Name == "" {
			return fmt.Errorf("call.name is required")
		}
		_, err := op.Call.build()
		return err
	case opCancelNamed, opRescheduleNamed:
		if op.Name == "" {
			return fmt.Errorf("name is required")
		}
	case opChangePriority:
		if op.Name == "" || op.Priority == nil {
			return fmt.Errorf("name and priority are required")
		}
	case opCancel, opReschedule:
	default:
		return fmt.Errorf("unknown op")
	}
	return nil
}

func (op *Op) originText() string {
	if op.Origin == "" {
		return "root"
	}
	return op.Origin
}

func (op *Op) target() scheduler.DispatchTime {
	if op.After != nil {
		return scheduler.After(*op.After)
	}
	return scheduler.At(op.At)
}

func (op *Op) priority() scheduler.Priority {
	if op.Priority == nil {
		return scheduler.LowestPriority
	}
	return *op.Priority
}

// build encodes the call described by c.
func (c CallSpec) build() (dispatch.Call, error) {
	module, method, ok := strings.Cut(c.Name, ".")
	if !ok || module == "" || method == "" {
		return dispatch.Call{}, fmt.Errorf("call name %q is not module.method", c.Name)
	}
	var args any
	switch c.Name {
	case "system.remark":
		args = dispatch.RemarkArgs{Data: []byte(c.Data)}
	case "system.burn":
		args = dispatch.BurnArgs{RefTime: c.RefTime, ProofSize: c.ProofSize}
	case "scheduler.spawn":
		args = SpawnArgs{After: c.After, Name: c.Target, Priority: c.Priority, Data: []byte(c.Data)}
	case "scheduler.cancel_named":
		args = CancelNamedArgs{Name: c.Target}
	}
	return dispatch.NewCall(module, method, args)
}

// OpResult is the outcome of one applied op.
type OpResult struct {
	Tick    uint32
	Op      string
	Address scheduler.TaskAddress
	Err     error
}

func (r OpResult) String() string {
	if r.Err != nil {
		return fmt.Sprintf("tick %d %s: %v", r.Tick, r.Op, r.Err)
	}
	return fmt.Sprintf("tick %d %s: %s", r.Tick, r.Op, r.Address)
}

// apply submits op to s. Operation failures are returned in the result;
// they are part of the scenario, not faults of the driver.
func (op *Op) apply(ctx context.Context, s *scheduler.Scheduler, now uint32) OpResult {
	res := OpResult{Tick: now, Op: op.Op}
	o, err := origin.Parse(op.originText())
	if err != nil {
		res.Err = err
		return res
	}
	name := scheduler.NameFromString(op.Name)

	switch op.Op {
	case opSchedule:
		call, err := op.Call.build()
		if err != nil {
			res.Err = err
			break
		}
		if op.Name == "" {
			res.Address, res.Err = s.Schedule(ctx, op.target(), op.Period, op.priority(), o, call)
		} else {
			res.Address, res.Err = s.ScheduleNamed(ctx, name, op.target(), op.Period, op.priority(), o, call)
		}
	case opCancel:
		res.Address = scheduler.TaskAddress{When: op.When, Index: op.Index}
		res.Err = s.Cancel(ctx, o, op.When, op.Index)
	case opCancelNamed:
		res.Err = s.CancelNamed(ctx, o, name)
	case opChangePriority:
		res.Err = s.ChangeNamedPriority(ctx, o, name, *op.Priority)
	case opReschedule:
		res.Address, res.Err = s.Reschedule(ctx, o, op.When, op.Index, op.target())
	case opRescheduleNamed:
		res.Address, res.Err = s.RescheduleNamed(ctx, o, name, op.target())
	}
	return res
}

// byTick groups ops by submission tick. Ops before start are submitted at
// start; file order is kept within a tick.
func (sc *Scenario) byTick(start uint32) map[uint32][]*Op {
	out := make(map[uint32][]*Op)
	for i := range sc.Ops {
		op := &sc.Ops[i]
		t := op.Tick
		if t < start {
			t = start
		}
		out[t] = append(out[t], op)
	}
	return out
}
