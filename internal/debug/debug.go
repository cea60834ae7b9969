package debug

import (
	"fmt"
	"os"
)

// StopIf blocks indefinitely if the environment variable REPLCTL_TEST_STOP
// equals the provided label. It prints a marker line to stderr so tests can
// kill the process at an exact point of the reverse workflow and then inspect
// the SubscriptionDropped / RolesSwapped intermediate states.
func StopIf(label string) {
	if os.Getenv("REPLCTL_TEST_STOP") != label {
		return
	}
	fmt.Fprintf(os.Stderr, "TEST_stop_point_%s\n", label)
	select {}
}
