package router

import "context"

// GuardFunc adapts a context-free predicate to a Guard. A true result
// continues; false aborts.
func GuardFunc(allow func(to, from *State) bool) Guard {
	return func(_ context.Context, to, from *State) (Decision, error) {
		if allow(to, from) {
			return Continue(), nil
		}
		return Abort(), nil
	}
}

// Chain combines guards into one that runs them in order and stops at the
// first non-continue decision or error.
func Chain(guards ...Guard) Guard {
	return func(ctx context.Context, to, from *State) (Decision, error) {
		for _, g := range guards {
			d, err := g(ctx, to, from)
			if err != nil || !d.IsContinue() {
				return d, err
			}
		}
		return Continue(), nil
	}
}

// Only runs g when cond holds for the target, and continues otherwise.
func Only(cond func(to *State) bool, g Guard) Guard {
	return func(ctx context.Context, to, from *State) (Decision, error) {
		if !cond(to) {
			return Continue(), nil
		}
		return g(ctx, to, from)
	}
}

// Skip runs g unless cond holds for the target.
func Skip(cond func(to *State) bool, g Guard) Guard {
	return func(ctx context.Context, to, from *State) (Decision, error) {
		if cond(to) {
			return Continue(), nil
		}
		return g(ctx, to, from)
	}
}

// MetaFlag returns a condition that holds when the target route has the
// bool meta key set.
func MetaFlag(key string) func(to *State) bool {
	return func(to *State) bool {
		return to.Meta().Bool(key)
	}
}
