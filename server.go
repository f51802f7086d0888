package kvrouter

import (
	"context"
	"errors"
	"io"
	"mime"
	"net"
	"net/http"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"kvrouter/utils/log"
)

const (
	shutdownTimeout = 5 * time.Second
	// multipart fields beyond this many bytes spill to temporary files
	maxMultipartMemory = 32 << 20
)

// RouterServer exposes a Router over HTTP.
type RouterServer struct {
	router        *Router
	statsInterval time.Duration
	readTimeout   time.Duration
	idleTimeout   time.Duration
}

// NewServer builds a server forwarding to the backend named in cfg.
func NewServer(cfg *Config) *RouterServer {
	client := Connect(cfg.Backend, WithTimeout(cfg.BackendTimeout))
	server := NewServerWithRouter(NewRouter(cfg.Mode, client))
	server.statsInterval = cfg.StatsInterval
	server.readTimeout = cfg.ReadTimeout
	server.idleTimeout = cfg.IdleTimeout
	return server
}

func NewServerWithRouter(router *Router) *RouterServer {
	return &RouterServer{router: router}
}

func (s *RouterServer) Router() *Router {
	return s.router
}

func (s *RouterServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("/api", s.handleAPI)
	return mux
}

func (s *RouterServer) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeText(w, "")
}

func (s *RouterServer) handleAPI(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
	case http.MethodGet, http.MethodHead:
		writeText(w, EmptyAck)
		return
	default:
		w.Header().Set("Allow", "GET, HEAD, POST")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	if err := parseBody(r); err != nil {
		log.Warnf("malformed form from %s: %v", r.RemoteAddr, err)
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	body, err := s.router.Handle(r.Context(), r.PostForm)
	if err != nil {
		log.Error("request failed", zap.String("remote", r.RemoteAddr),
			zap.String("cmd", r.PostForm.Get(FieldCmd)), zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	writeText(w, body)
}

// parseBody fills r.PostForm from an urlencoded or multipart body. The query
// string never contributes fields.
func parseBody(r *http.Request) error {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		return r.ParseMultipartForm(maxMultipartMemory)
	}
	return r.ParseForm()
}

func writeText(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, body)
}

// Run listens on addr and serves until ctx is cancelled.
func (s *RouterServer) Run(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, l)
}

// Serve serves on l until ctx is cancelled, then shuts down gracefully and
// logs the final stats.
func (s *RouterServer) Serve(ctx context.Context, l net.Listener) error {
	srv := &http.Server{
		Handler:     s.Handler(),
		ReadTimeout: s.readTimeout,
		IdleTimeout: s.idleTimeout,
	}

	log.Info("router listening", zap.String("addr", l.Addr().String()),
		zap.Stringer("mode", s.router.Mode()),
		zap.Strings("commands", s.router.commands.Names()))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(l)
	}()
	if s.statsInterval > 0 {
		go s.reportStats(ctx)
	}

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("router shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	if serveErr := <-errCh; !errors.Is(serveErr, http.ErrServerClosed) {
		err = multierr.Append(err, serveErr)
	}
	s.router.Stats().Log()
	return err
}

func (s *RouterServer) reportStats(ctx context.Context) {
	ticker := time.NewTicker(s.statsInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.router.Stats().Log()
		}
	}
}
