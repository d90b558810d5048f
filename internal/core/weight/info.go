package weight

// Info is the cost model used by the scheduler. Every method returns the
// weight charged for one occurrence of the named step.
type Info interface {
	// ServiceAgendasBase is charged once per servicing pass.
	ServiceAgendasBase() Weight

	// ServiceAgendaBase is charged per visited tick holding items tasks.
	ServiceAgendaBase(items uint32) Weight

	// ServiceTaskBase is charged for an inline, anonymous, one-shot task.
	ServiceTaskBase() Weight

	// ServiceTaskFetched is charged instead of ServiceTaskBase when the call
	// has to be fetched from the preimage store.
	ServiceTaskFetched(length uint32) Weight

	// ServiceTaskNamed is the full cost of a named task; the surcharge over
	// ServiceTaskBase is what gets added.
	ServiceTaskNamed() Weight

	// ServiceTaskPeriodic is the full cost of a periodic task; the surcharge
	// over ServiceTaskBase is what gets added.
	ServiceTaskPeriodic() Weight

	// ExecuteDispatchSigned is the overhead of dispatching with a signed origin.
	ExecuteDispatchSigned() Weight

	// ExecuteDispatchUnsigned is the overhead of dispatching with any other origin.
	ExecuteDispatchUnsigned() Weight

	// Schedule, Cancel, ScheduleNamed and CancelNamed are charged to callers of
	// the placement operations; s is the agenda length at the target tick.
	Schedule(s uint32) Weight
	Cancel(s uint32) Weight
	ScheduleNamed(s uint32) Weight
	CancelNamed(s uint32) Weight
}

// ServiceTask computes the marginal weight of servicing a single task:
// base (or fetch by length), plus the named and periodic surcharges.
func ServiceTask(info Info, lookupLen *uint32, named, periodic bool) Weight {
	base := info.ServiceTaskBase()
	total := base
	if lookupLen != nil {
		total = info.ServiceTaskFetched(*lookupLen)
	}
	if named {
		total = total.SaturatingAdd(info.ServiceTaskNamed().SaturatingSub(base))
	}
	if periodic {
		total = total.SaturatingAdd(info.ServiceTaskPeriodic().SaturatingSub(base))
	}
	return total
}

// Linear is an affine cost model: every step costs Base + PerItem*n.
type Linear struct {
	Base    Weight `mapstructure:"base"`
	PerItem Weight `mapstructure:"per_item"`
}

// At evaluates the model for n items.
func (l Linear) At(n uint32) Weight {
	return l.Base.SaturatingAdd(l.PerItem.Mul(uint64(n)))
}

// Table is a configurable Info implementation. Fixed steps ignore PerItem.
type Table struct {
	AgendasBase       Linear `mapstructure:"service_agendas_base"`
	AgendaBase        Linear `mapstructure:"service_agenda_base"`
	TaskBase          Linear `mapstructure:"service_task_base"`
	TaskFetched       Linear `mapstructure:"service_task_fetched"`
	TaskNamed         Linear `mapstructure:"service_task_named"`
	TaskPeriodic      Linear `mapstructure:"service_task_periodic"`
	DispatchSigned    Linear `mapstructure:"execute_dispatch_signed"`
	DispatchUnsigned  Linear `mapstructure:"execute_dispatch_unsigned"`
	ScheduleCost      Linear `mapstructure:"schedule"`
	CancelCost        Linear `mapstructure:"cancel"`
	ScheduleNamedCost Linear `mapstructure:"schedule_named"`
	CancelNamedCost   Linear `mapstructure:"cancel_named"`
}

// DefaultTable returns reference costs benchmarked for a 50-slot agenda.
func DefaultTable() *Table {
	return &Table{
		AgendasBase:       Linear{Base: FromParts(4_992_000, 1_489)},
		AgendaBase:        Linear{Base: FromParts(4_320_000, 3_564), PerItem: FromParts(595_568, 0)},
		TaskBase:          Linear{Base: FromParts(3_000_000, 0)},
		TaskFetched:       Linear{Base: FromParts(26_000_000, 3_644), PerItem: FromParts(1_500, 1)},
		TaskNamed:         Linear{Base: FromParts(5_000_000, 0)},
		TaskPeriodic:      Linear{Base: FromParts(3_500_000, 0)},
		DispatchSigned:    Linear{Base: FromParts(7_000_000, 0)},
		DispatchUnsigned:  Linear{Base: FromParts(6_000_000, 0)},
		ScheduleCost:      Linear{Base: FromParts(13_000_000, 110_487), PerItem: FromParts(400_000, 0)},
		CancelCost:        Linear{Base: FromParts(17_000_000, 110_487), PerItem: FromParts(1_000_000, 0)},
		ScheduleNamedCost: Linear{Base: FromParts(17_000_000, 110_487), PerItem: FromParts(500_000, 0)},
		CancelNamedCost:   Linear{Base: FromParts(19_000_000, 110_487), PerItem: FromParts(1_000_000, 0)},
	}
}

func (t *Table) ServiceAgendasBase() Weight              { return t.AgendasBase.Base }
func (t *Table) ServiceAgendaBase(items uint32) Weight   { return t.AgendaBase.At(items) }
func (t *Table) ServiceTaskBase() Weight                 { return t.TaskBase.Base }
func (t *Table) ServiceTaskFetched(length uint32) Weight { return t.TaskFetched.At(length) }
func (t *Table) ServiceTaskNamed() Weight                { return t.TaskNamed.Base }
func (t *Table) ServiceTaskPeriodic() Weight             { return t.TaskPeriodic.Base }
func (t *Table) ExecuteDispatchSigned() Weight           { return t.DispatchSigned.Base }
func (t *Table) ExecuteDispatchUnsigned() Weight         { return t.DispatchUnsigned.Base }
func (t *Table) Schedule(s uint32) Weight                { return t.ScheduleCost.At(s) }
func (t *Table) Cancel(s uint32) Weight                  { return t.CancelCost.At(s) }
func (t *Table) ScheduleNamed(s uint32) Weight           { return t.ScheduleNamedCost.At(s) }
func (t *Table) CancelNamed(s uint32) Weight             { return t.CancelNamedCost.At(s) }

// ZeroTable returns a table where every step is free. Tests set the few
// fields they reason about.
func ZeroTable() *Table {
	return &Table{}
}
