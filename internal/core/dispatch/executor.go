package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/UniqueNetwork/unique-chain-sub001/internal/core/origin"
	"github.com/UniqueNetwork/unique-chain-sub001/internal/core/weight"
)

var (
	// ErrUnknownCall is returned for a call no handler is registered for.
	ErrUnknownCall = errors.New("unknown call")

	// ErrBadOrigin is returned when the origin kind is not accepted by the route.
	ErrBadOrigin = errors.New("origin not allowed for call")
)

//go:generate mockgen -destination=mocks/executor.go -package=mocks . Executor

// Executor runs calls on behalf of the scheduler.
type Executor interface {
	// Weight returns the declared upper bound for dispatching call.
	Weight(call Call) weight.Weight

	// Dispatch runs call as o and returns the weight actually used. The
	// weight is meaningful even when err is non-nil.
	Dispatch(ctx context.Context, o origin.Origin, call Call) (weight.Weight, error)
}

// HandlerFunc executes a call's arguments and returns the weight it used.
// A zero return is charged at the route's declared weight.
type HandlerFunc func(ctx context.Context, o origin.Origin, args []byte) (weight.Weight, error)

// Route binds a handler to a module method.
type Route struct {
	// Weight is the declared cost when WeightFn is nil.
	Weight weight.Weight

	// WeightFn computes the declared cost from the arguments.
	WeightFn func(args []byte) weight.Weight

	// Origins restricts the accepted origin kinds. Empty accepts all.
	Origins []origin.Kind

	Handler HandlerFunc
}

func (r *Route) declared(args []byte) weight.Weight {
	if r.WeightFn != nil {
		return r.WeightFn(args)
	}
	return r.Weight
}

func (r *Route) accepts(o origin.Origin) bool {
	if len(r.Origins) == 0 {
		return true
	}
	if o == nil {
		return false
	}
	for _, k := range r.Origins {
		if o.Kind() == k {
			return true
		}
	}
	return false
}

// Router is an Executor dispatching by "module.method".
type Router struct {
	mu     sync.RWMutex
	routes map[string]*Route
}

// NewRouter creates an empty router.
func NewRouter() *Router {
	return &Router{routes: make(map[string]*Route)}
}

// Handle registers r for module.method, replacing any previous route.
func (rt *Router) Handle(module, method string, r Route) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	cp := r
	rt.routes[module+"."+method] = &cp
}

// Has reports whether a route is registered for call.
func (rt *Router) Has(call Call) bool {
	return rt.lookup(call) != nil
}

func (rt *Router) lookup(call Call) *Route {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return rt.routes[call.Name()]
}

// Weight returns the declared weight for call, or zero if unknown.
func (rt *Router) Weight(call Call) weight.Weight {
	r := rt.lookup(call)
	if r == nil {
		return weight.Zero
	}
	return r.declared(call.Args)
}

// Dispatch runs the handler registered for call.
func (rt *Router) Dispatch(ctx context.Context, o origin.Origin, call Call) (weight.Weight, error) {
	r := rt.lookup(call)
	if r == nil {
		return weight.Zero, fmt.Errorf("%w: %s", ErrUnknownCall, call.Name())
	}
	declared := r.declared(call.Args)
	if !r.accepts(o) {
		return weight.Zero, fmt.Errorf("%w: %s as %v", ErrBadOrigin, call.Name(), o)
	}
	if r.Handler == nil {
		return declared, nil
	}
	used, err := r.Handler(ctx, o, call.Args)
	if used.IsZero() {
		used = declared
	}
	return used, err
}
