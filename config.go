package kvrouter

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	"kvrouter/utils/log"
)

const (
	DefaultListenPort  = 33333
	DefaultBackendHost = "127.0.0.1"
	DefaultBackendPort = 5556
)

// BackendTarget locates the backend service. It is built once at startup.
type BackendTarget struct {
	Host string
	Port int
}

func (t BackendTarget) Addr() string {
	return net.JoinHostPort(t.Host, strconv.Itoa(t.Port))
}

// URL is the base URL commands are posted to.
func (t BackendTarget) URL() string {
	return "http://" + t.Addr() + "/"
}

func (t BackendTarget) String() string {
	return t.Addr()
}

// ParseBackendTarget parses a host:port address.
func ParseBackendTarget(addr string) (BackendTarget, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return BackendTarget{}, err
	}
	if host == "" {
		return BackendTarget{}, fmt.Errorf("backend address %q has no host", addr)
	}
	port, err := parsePort(portStr)
	if err != nil {
		return BackendTarget{}, err
	}
	return BackendTarget{Host: host, Port: port}, nil
}

type Config struct {
	Mode           Mode
	ListenAddr     string
	Backend        BackendTarget
	BackendTimeout time.Duration // zero waits for the backend indefinitely
	StatsInterval  time.Duration // zero disables the periodic report
	ReadTimeout    time.Duration // inbound request read limit, zero for none
	IdleTimeout    time.Duration // keep-alive idle limit, zero for none
	Log            log.Config
}

// ParseArgs builds a Config from command-line arguments.
//
// In store mode the backend comes from -backend and the listen port from
// -listen. In registry mode the three positional arguments
// <listen-port> <backend-host> <backend-port> are required.
func ParseArgs(name string, args []string, output io.Writer) (*Config, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(output)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: %s [flags]\n       %s -mode registry [flags] <listen-port> <backend-host> <backend-port>\n", name, name)
		fs.PrintDefaults()
	}

	var (
		mode    = fs.String("mode", StoreMode.String(), "deployment mode (store, registry)")
		backend = fs.String("backend", net.JoinHostPort(DefaultBackendHost, strconv.Itoa(DefaultBackendPort)), "backend host:port (store mode)")
		listen  = fs.Int("listen", DefaultListenPort, "port to listen on (store mode)")
		cfg     = &Config{}
	)
	fs.DurationVar(&cfg.BackendTimeout, "backend-timeout", 0, "timeout for a backend call, 0 for none")
	fs.DurationVar(&cfg.StatsInterval, "stats-interval", 0, "interval between stats reports, 0 to disable")
	fs.DurationVar(&cfg.ReadTimeout, "read-timeout", 15*time.Second, "timeout for reading an inbound request, 0 for none")
	fs.DurationVar(&cfg.IdleTimeout, "idle-timeout", 60*time.Second, "keep-alive idle timeout, 0 for none")
	fs.StringVar(&cfg.Log.Level, "log-level", "info", "log level (debug, info, warn, error)")
	fs.StringVar(&cfg.Log.FileName, "log-file", "", "log file prefix, empty for console only")
	fs.IntVar(&cfg.Log.MaxSize, "log-max-size", 100, "megabytes per log file before rotation")
	fs.IntVar(&cfg.Log.MaxBackups, "log-max-backups", 3, "rotated log files to keep")
	fs.IntVar(&cfg.Log.MaxAge, "log-max-age", 7, "days to keep rotated log files")
	fs.BoolVar(&cfg.Log.Compress, "log-compress", false, "gzip rotated log files")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	m, err := ParseMode(*mode)
	if err != nil {
		return nil, err
	}
	cfg.Mode = m

	switch m {
	case StoreMode:
		if fs.NArg() != 0 {
			return nil, fmt.Errorf("store mode takes no positional arguments, got %d", fs.NArg())
		}
		if cfg.Backend, err = ParseBackendTarget(*backend); err != nil {
			return nil, fmt.Errorf("-backend: %w", err)
		}
		if *listen < 1 || *listen > 65535 {
			return nil, fmt.Errorf("-listen: port %d out of range", *listen)
		}
		cfg.ListenAddr = ":" + strconv.Itoa(*listen)
	case RegistryMode:
		if fs.NArg() != 3 {
			return nil, errors.New("registry mode requires <listen-port> <backend-host> <backend-port>")
		}
		listenPort, err := parsePort(fs.Arg(0))
		if err != nil {
			return nil, fmt.Errorf("listen port: %w", err)
		}
		if fs.Arg(1) == "" {
			return nil, errors.New("backend host is empty")
		}
		backendPort, err := parsePort(fs.Arg(2))
		if err != nil {
			return nil, fmt.Errorf("backend port: %w", err)
		}
		cfg.ListenAddr = ":" + strconv.Itoa(listenPort)
		cfg.Backend = BackendTarget{Host: fs.Arg(1), Port: backendPort}
	}

	if cfg.BackendTimeout < 0 {
		return nil, fmt.Errorf("-backend-timeout must not be negative")
	}
	if cfg.StatsInterval < 0 {
		return nil, fmt.Errorf("-stats-interval must not be negative")
	}
	if cfg.ReadTimeout < 0 || cfg.IdleTimeout < 0 {
		return nil, fmt.Errorf("-read-timeout and -idle-timeout must not be negative")
	}
	return cfg, nil
}

func parsePort(s string) (int, error) {
	port, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid port %q", s)
	}
	if port < 1 || port > 65535 {
		return 0, fmt.Errorf("port %d out of range", port)
	}
	return port, nil
}
