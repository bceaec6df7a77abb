package progrock_test

import (
	"context"
	"testing"

	"aria.build/aria/internal/adapters/telemetry/progrock"
)

func TestRecorder_Integration(t *testing.T) {
	recorder := progrock.New()

	ctx := context.Background()
	vertex := recorder.Record(ctx, "Test Task")

	if _, err := vertex.Stdout().Write([]byte("Standard Output\n")); err != nil {
		t.Errorf("failed to write to stdout: %v", err)
	}

	vertex.Complete(nil)

	if err := recorder.Close(); err != nil {
		t.Errorf("failed to close recorder: %v", err)
	}
}
