package agent

import (
	"testing"

	"go.uber.org/goleak"
)

// The coordinator spawns goroutines for parallel retrieval; none may outlive
// a turn.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
