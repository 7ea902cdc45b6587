package controller

import (
	"context"

	"github.com/hooktrace/cli/internal/juju"
	"github.com/hooktrace/cli/internal/session"
)

// Interceptor is a debug-hooks session on a pseudo-terminal.
type Interceptor interface {
	// Drain returns terminal output received since the last call, without blocking.
	Drain() []byte
	// Kill terminates the session. Safe to repeat.
	Kill() error
	// Wait blocks until the session exits or ctx is done.
	Wait(ctx context.Context) error
}

// Driver is the remote shell used to type into the unit's tmux session.
type Driver interface {
	Send(line string) error
	Close() error
	Kill() error
	Wait(ctx context.Context) error
}

// Platform is everything the controller needs from the orchestration
// platform.
type Platform interface {
	ListApplications(ctx context.Context) ([]string, error)
	ListUnits(ctx context.Context, application string) ([]string, error)
	KillSession(ctx context.Context, unit string) error
	Resolve(ctx context.Context, unit string) error
	OpenInterceptor(unit string) (Interceptor, error)
	OpenDriver(unit string) (Driver, error)
}

// jujuPlatform is the Platform backed by the juju CLI.
type jujuPlatform struct {
	*juju.Client
	opener *session.Opener
}

// NewJujuPlatform combines a juju client and a session opener into a Platform.
func NewJujuPlatform(client *juju.Client, opener *session.Opener) Platform {
	return &jujuPlatform{Client: client, opener: opener}
}

func (p *jujuPlatform) OpenInterceptor(unit string) (Interceptor, error) {
	i, err := p.opener.Interceptor(unit)
	if err != nil {
		return nil, err
	}
	return i, nil
}

func (p *jujuPlatform) OpenDriver(unit string) (Driver, error) {
	d, err := p.opener.Driver(unit)
	if err != nil {
		return nil, err
	}
	return d, nil
}
