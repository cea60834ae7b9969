//go:build integration
// +build integration

package util

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"time"
)

// StartCompose brings up the docker compose stack and returns a teardown
// func. projectName becomes `docker compose -p <name>`, which prefixes the
// container names.
func StartCompose(ctx context.Context, composeFile, projectName string) (func() error, error) {
	absCompose, err := filepath.Abs(composeFile)
	if err != nil {
		return nil, fmt.Errorf("abs path: %w", err)
	}

	up := exec.CommandContext(ctx, "docker", "compose", "-f", absCompose, "-p", projectName, "up", "-d", "--build")
	if out, err := up.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("docker compose up: %w\n%s", err, string(out))
	}

	teardown := func() error {
		downCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		down := exec.CommandContext(downCtx, "docker", "compose", "-f", absCompose, "-p", projectName, "down", "-v")
		return down.Run()
	}
	return teardown, nil
}
