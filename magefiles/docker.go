//go:build mage

package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Mongo groups targets that manage a local mongo server for development.
type Mongo mg.Namespace

// Local mongo container constants.
const (
	mongoContainer = "bookshelf-mongo"
	mongoImage     = "mongo:7"
	mongoPort      = "27017"

	// envSkipMongo makes the test suites skip mongo-backed tests.
	envSkipMongo = "BOOKSHELF_SKIP_MONGO"
)

// containerRuntime returns "podman" or "docker" if a working runtime
// is available, or "" if neither is usable. It checks both that the
// binary exists on PATH and that it can connect to its daemon/machine.
func containerRuntime() string {
	for _, name := range []string{"podman", "docker"} {
		if _, err := exec.LookPath(name); err != nil {
			continue
		}
		if exec.Command(name, "info").Run() != nil {
			fmt.Fprintf(os.Stderr, "WARNING: %s found on PATH but not usable (is the daemon/machine running?)\n", name)
			continue
		}
		return name
	}
	return ""
}

// Up starts a detached mongo container listening on localhost:27017, which
// matches the default db:server setting.
func (Mongo) Up() error {
	rt := containerRuntime()
	if rt == "" {
		return fmt.Errorf("no container runtime found (tried podman, docker)")
	}
	return sh.RunV(rt, "run", "-d", "--rm",
		"--name", mongoContainer,
		"-p", mongoPort+":27017",
		mongoImage)
}

// Down stops the local mongo container. The container is started with
// --rm, so stopping also removes it.
func (Mongo) Down() error {
	rt := containerRuntime()
	if rt == "" {
		return fmt.Errorf("no container runtime found (tried podman, docker)")
	}
	return sh.RunV(rt, "stop", mongoContainer)
}

// Shell opens mongosh inside the local container.
func (Mongo) Shell() error {
	rt := containerRuntime()
	if rt == "" {
		return fmt.Errorf("no container runtime found (tried podman, docker)")
	}
	cmd := exec.Command(rt, "exec", "-it", mongoContainer, "mongosh", "mentoring")
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
