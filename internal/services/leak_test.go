package services_test

import (
	"testing"

	"go.uber.org/goleak"
)

// verifyNoLeaks fails t if goroutines outlive the test. The opencensus worker
// that the maps client starts from init is expected.
func verifyNoLeaks(t *testing.T) {
	t.Helper()
	goleak.VerifyNone(t, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}
