package runtime

import "context"

// Pinger is a backend that can report whether it is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Gateway is the chat connection.
type Gateway interface {
	Connected() bool
}

// Runtime is the state the readiness probe looks at.
type Runtime struct {
	GuideLoaded bool
	Gateway     Gateway
	Diffusion   Pinger
}
