package weight

// Counter tracks consumed weight against a fixed limit.
// It holds no storage and is only meant to live for a single tick.
type Counter struct {
	used  Weight
	limit Weight
}

// NewCounter creates a counter with the given limit and nothing consumed.
func NewCounter(limit Weight) *Counter {
	return &Counter{limit: limit}
}

// Consumed returns the weight accrued so far.
func (c *Counter) Consumed() Weight {
	return c.used
}

// Limit returns the counter's limit.
func (c *Counter) Limit() Weight {
	return c.limit
}

// Remaining returns limit - consumed, clamped at zero.
func (c *Counter) Remaining() Weight {
	return c.limit.SaturatingSub(c.used)
}

// CheckAccrue adds w to the consumed weight if the result stays within the
// limit and reports whether it did. On false the counter is unchanged.
func (c *Counter) CheckAccrue(w Weight) bool {
	next := c.used.SaturatingAdd(w)
	if !next.AllLTE(c.limit) {
		return false
	}
	c.used = next
	return true
}

// CanAccrue reports whether w would fit without changing the counter.
func (c *Counter) CanAccrue(w Weight) bool {
	return c.used.SaturatingAdd(w).AllLTE(c.limit)
}

// Accrue adds w unconditionally, saturating. Used for weight that has
// already been spent and must be accounted for even past the limit.
func (c *Counter) Accrue(w Weight) {
	c.used = c.used.SaturatingAdd(w)
}
