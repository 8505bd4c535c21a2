package testutil

import (
	"fmt"
	"testing"

	"orderbot/lib/telemetry"
)

type TaskParams struct {
	Name string
}

type TaskResult struct {
	// scratch directory for artifacts produced during the test,
	// removed automatically on cleanup
	Dir string
}

func SetupTask(t testing.TB, params TaskParams) (TaskResult, func()) {
	cleanup := telemetry.SetupForTesting(t, fmt.Sprintf("test:%s", params.Name))
	return TaskResult{
		Dir: t.TempDir(),
	}, cleanup
}
