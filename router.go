package kvrouter

import (
	"context"
	"net/url"

	"go.uber.org/zap"

	"kvrouter/utils/log"
)

// Router translates inbound command forms into backend calls.
type Router struct {
	mode      Mode
	commands  CommandSet
	forwarder Forwarder
	stats     *Stats
}

func NewRouter(mode Mode, forwarder Forwarder) *Router {
	commands := mode.Commands()
	return &Router{
		mode:      mode,
		commands:  commands,
		forwarder: forwarder,
		stats:     newStats(commands),
	}
}

func (r *Router) Mode() Mode {
	return r.mode
}

func (r *Router) Stats() *Stats {
	return r.stats
}

// Handle routes one inbound form.
//
// A form without cmd gets EmptyAck and a command the mode does not know gets
// UnknownAck; neither reaches the backend. Otherwise the backend's body is
// returned unchanged. Errors are either *MissingFieldError values (possibly
// several, combined with multierr) or a *BackendError.
func (r *Router) Handle(ctx context.Context, in url.Values) (string, error) {
	r.stats.requests.Inc()

	cmds, ok := in[FieldCmd]
	if !ok {
		r.stats.acknowledged.Inc()
		return EmptyAck, nil
	}
	var cmd string
	if len(cmds) > 0 {
		cmd = cmds[0]
	}

	spec, ok := r.commands.Lookup(cmd)
	if !ok {
		log.Debug("unrecognized command", zap.String("cmd", cmd), zap.Stringer("mode", r.mode))
		r.stats.acknowledged.Inc()
		return UnknownAck, nil
	}

	out, err := spec.Build(in)
	if err != nil {
		r.stats.failed.Inc()
		return "", err
	}

	r.stats.forward(spec.Name)
	log.Debug("forwarding command", zap.String("cmd", spec.Name), zap.Stringer("request", out))
	body, err := r.forwarder.Forward(ctx, out)
	if err != nil {
		r.stats.failed.Inc()
		return "", err
	}
	return body, nil
}
