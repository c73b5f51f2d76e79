//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"errors"
	"fmt"
	"os"
	"os/user"
	"strings"

	"github.com/oshokin/wherering/internal/device"
	"github.com/oshokin/wherering/internal/domain/ringer"
)

// errUnknownUser is returned when neither the OS nor the environment names the user.
var errUnknownUser = errors.New("cannot determine current user")

// DetectActor identifies the person running the client. Manual ringer changes
// carry it so they can be told apart from engine writes.
func DetectActor() (*ringer.Actor, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("hostname: %w", err)
	}

	username, err := currentUsername(user.Current, os.Getenv)
	if err != nil {
		return nil, err
	}

	actor := &ringer.Actor{
		Hostname: hostname,
		Username: username,
	}

	// The engine's own identity would make a manual change look like a policy write.
	if *actor == device.EngineActor {
		actor.Username += "-user"
	}

	return actor, nil
}

// currentUsername asks the OS first and falls back to USER or USERNAME, which
// is what containers without a passwd entry provide. A DOMAIN\ prefix is dropped.
func currentUsername(lookup func() (*user.User, error), getenv func(string) string) (string, error) {
	var name string

	if u, err := lookup(); err == nil {
		name = u.Username
	}

	for _, key := range []string{"USER", "USERNAME"} {
		if name != "" {
			break
		}

		name = getenv(key)
	}

	if i := strings.LastIndexByte(name, '\\'); i >= 0 {
		name = name[i+1:]
	}

	if name == "" {
		return "", errUnknownUser
	}

	return name, nil
}
