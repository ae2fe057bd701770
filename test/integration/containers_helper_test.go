//go:build integration

package integration

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	postgresImage    = "postgres:15-alpine"
	postgresDB       = "statuswatch"
	postgresUser     = "statuswatch"
	postgresPassword = "password"
)

// requireContainers skips t unless a Docker or Podman socket is reachable.
func requireContainers(t *testing.T) {
	t.Helper()
	for _, sock := range containerSockets() {
		if _, err := os.Stat(sock); err == nil {
			return
		}
	}
	t.Skip("no container runtime available")
}

func containerSockets() []string {
	socks := []string{"/var/run/docker.sock"}
	if runtimeDir := os.Getenv("XDG_RUNTIME_DIR"); runtimeDir != "" {
		return append(socks, filepath.Join(runtimeDir, "podman", "podman.sock"))
	}
	if uid := os.Getuid(); uid > 0 {
		socks = append(socks, "/run/user/"+strconv.Itoa(uid)+"/podman/podman.sock")
	}
	return socks
}

// postgresRequest describes the database the user_reports migrations run against.
func postgresRequest() testcontainers.ContainerRequest {
	return testcontainers.ContainerRequest{
		Image: postgresImage,
		Env: map[string]string{
			"POSTGRES_DB":       postgresDB,
			"POSTGRES_USER":     postgresUser,
			"POSTGRES_PASSWORD": postgresPassword,
		},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
}

func postgresDSN(host, port string) string {
	return "postgres://" + postgresUser + ":" + postgresPassword + "@" + host + ":" + port + "/" + postgresDB + "?sslmode=disable"
}
