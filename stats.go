package kvrouter

import (
	"sort"

	"go.uber.org/atomic"
	"go.uber.org/zap"

	"kvrouter/utils/log"
)

// Stats counts router outcomes. The per-command map is filled once at
// construction and only its counters change afterwards.
type Stats struct {
	requests     atomic.Int64
	forwarded    atomic.Int64
	acknowledged atomic.Int64
	failed       atomic.Int64
	commands     map[string]*atomic.Int64
}

type StatsSnapshot struct {
	Requests     int64
	Forwarded    int64
	Acknowledged int64
	Failed       int64
	Commands     map[string]int64
}

func newStats(commands CommandSet) *Stats {
	s := &Stats{commands: make(map[string]*atomic.Int64, len(commands))}
	for name := range commands {
		s.commands[name] = atomic.NewInt64(0)
	}
	return s
}

func (s *Stats) forward(cmd string) {
	s.forwarded.Inc()
	if c, ok := s.commands[cmd]; ok {
		c.Inc()
	}
}

func (s *Stats) Snapshot() StatsSnapshot {
	snap := StatsSnapshot{
		Requests:     s.requests.Load(),
		Forwarded:    s.forwarded.Load(),
		Acknowledged: s.acknowledged.Load(),
		Failed:       s.failed.Load(),
		Commands:     make(map[string]int64, len(s.commands)),
	}
	for name, c := range s.commands {
		snap.Commands[name] = c.Load()
	}
	return snap
}

func (s *Stats) Log() {
	snap := s.Snapshot()
	fields := []zap.Field{
		zap.Int64("requests", snap.Requests),
		zap.Int64("forwarded", snap.Forwarded),
		zap.Int64("acknowledged", snap.Acknowledged),
		zap.Int64("failed", snap.Failed),
	}
	names := make([]string, 0, len(snap.Commands))
	for name := range snap.Commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fields = append(fields, zap.Int64(name, snap.Commands[name]))
	}
	log.Info("router stats", fields...)
}
