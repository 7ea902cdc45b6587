package session

import (
	"github.com/hooktrace/cli/internal/juju"
)

// Opener starts the per-unit processes with the juju command lines for one
// model.
type Opener struct {
	client *juju.Client
	size   Geometry
}

// NewOpener creates an Opener. size is the geometry given to every
// debug-hooks terminal.
func NewOpener(client *juju.Client, size Geometry) *Opener {
	return &Opener{client: client, size: size}
}

// Interceptor starts `juju debug-hooks <unit>` on a new pseudo-terminal.
func (o *Opener) Interceptor(unit string) (*Interceptor, error) {
	return StartInterceptor(unit, o.client.Binary(), o.client.DebugHooksArgs(unit), o.size)
}

// Driver starts `juju ssh <unit> bash` with a writable stdin.
func (o *Opener) Driver(unit string) (*Driver, error) {
	return StartDriver(unit, o.client.Binary(), o.client.ShellArgs(unit))
}
