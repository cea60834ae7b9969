package repl

import "fmt"

// SubscriptionNotFoundError reports that the named subscription does not
// exist on the destination.
type SubscriptionNotFoundError struct {
	Name string
}

func (e *SubscriptionNotFoundError) Error() string {
	return fmt.Sprintf("no subscription named %q exists on the destination", e.Name)
}

// UnsafeToReverseError reports that the pre-reversal safety check refused to
// proceed. Passing --force overrides it.
type UnsafeToReverseError struct {
	Reason string
	Lag    int64
}

func (e *UnsafeToReverseError) Error() string {
	return fmt.Sprintf("unsafe to reverse: %s (pass --force to override)", e.Reason)
}

// LockedError reports that another replctl instance holds the advisory lock
// on one of the endpoints.
type LockedError struct {
	Role string
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("could not acquire advisory lock on %s; is another replctl instance running?", e.Role)
}

// PartiallyReversedError reports a failure past the irreversibility boundary:
// the topology swap is already committed, only the new subscription is
// missing. Never auto-rolled-back, since silently swapping back could
// split-brain a pair the operator already started writing to.
type PartiallyReversedError struct {
	Subscription string
	Step         Step
	Err          error
}

func (e *PartiallyReversedError) Error() string {
	return fmt.Sprintf(
		"partially reversed at step %s: topology swap is already committed but subscription %q was not created: %v; "+
			"either create the subscription manually on the new destination, or restore the previous topology by reversing again",
		e.Step, e.Subscription, e.Err)
}

func (e *PartiallyReversedError) Unwrap() error { return e.Err }

// RewindFailedError reports that the origin advance did not succeed. The
// subscription is deliberately left disabled: re-enabling after an
// unknown-success advance could apply changes from the wrong position.
type RewindFailedError struct {
	Subscription string
	Origin       string
	LSN          string
	Err          error
}

func (e *RewindFailedError) Error() string {
	return fmt.Sprintf("rewind of origin %s to %s failed: %v; subscription %q is left DISABLED, re-enable manually once the origin state is verified",
		e.Origin, e.LSN, e.Err, e.Subscription)
}

func (e *RewindFailedError) Unwrap() error { return e.Err }

// ReenableFailedError reports that the origin advance succeeded but the
// subscription could not be re-enabled afterwards, leaving it disabled at the
// new position.
type ReenableFailedError struct {
	Subscription string
	LSN          string
	Err          error
}

func (e *ReenableFailedError) Error() string {
	return fmt.Sprintf("origin advanced to %s but re-enabling subscription %q failed: %v; enable it manually once the cause is fixed",
		e.LSN, e.Subscription, e.Err)
}

func (e *ReenableFailedError) Unwrap() error { return e.Err }
