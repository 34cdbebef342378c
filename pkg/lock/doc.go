// Copyright (c) 2024 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

/*
Package lock provides a reusable critical section for components that
guard shared mutable state.

# Sections

A component holds a [Section] by composition and routes every access to
its state through it:

	type Registry struct {
	    sec   lock.Section
	    items map[string]Item
	}

	func (r *Registry) Put(id string, it Item) error {
	    return r.sec.Protected(func() error {
	        r.items[id] = it
	        return nil
	    })
	}

	func (r *Registry) Len() int {
	    n, _ := lock.Guarded(&r.sec, func() (int, error) {
	        return len(r.items), nil
	    })
	    return n
	}

The section is released on every exit path, including a returned error
or a panic, so a failed action never leaves the component locked.

# Guarded Values

For a single value, [Value] bundles the section with the state it guards:

	counter := lock.NewValue(0)
	counter.Update(func(n *int) error { *n++; return nil })

# Semantics

  - At most one Protected or Guarded call holds a given Section at a time.
    Other callers block until it is released.
  - Sections are not reentrant. Calling Protected from inside a Protected
    action on the same Section deadlocks.
  - Waiters are not served in any particular order.
  - Acquisition has no timeout or cancellation.
*/
package lock
