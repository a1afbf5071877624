//go:build integration
// +build integration

package integration

import (
	"context"
	"os/exec"
	"testing"
)

func restartContainer(t *testing.T, ctx context.Context) {
	t.Helper()

	service := getenv("E2E_SERVICE", "minishop")
	cmd := exec.CommandContext(ctx, "docker", "compose", "restart", service)
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("docker compose restart %s failed: %v\n%s", service, err, string(out))
	}
}
