package feedback_test

import (
	"testing"

	"go.uber.org/goleak"
)

// Generate persists on a detached context; make sure nothing outlives the calls.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
