package kvrouter

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"
	"time"
)

// fakeBackend records raw request bodies and answers with a fixed status and body.
type fakeBackend struct {
	mu      sync.Mutex
	bodies  []string
	methods []string
	paths   []string
	types   []string
	status  int
	reply   string
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	data, _ := io.ReadAll(r.Body)
	b.mu.Lock()
	b.bodies = append(b.bodies, string(data))
	b.methods = append(b.methods, r.Method)
	b.paths = append(b.paths, r.URL.Path)
	b.types = append(b.types, r.Header.Get("Content-Type"))
	status, reply := b.status, b.reply
	b.mu.Unlock()
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	io.WriteString(w, reply)
}

func (b *fakeBackend) received() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.bodies...)
}

func startBackend(t *testing.T, b http.Handler) (*httptest.Server, BackendTarget) {
	t.Helper()
	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)
	return srv, targetOf(t, srv.URL)
}

func targetOf(t *testing.T, rawURL string) BackendTarget {
	t.Helper()
	u, err := url.Parse(rawURL)
	if err != nil {
		t.Fatal(err)
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil {
		t.Fatal(err)
	}
	return BackendTarget{Host: u.Hostname(), Port: port}
}

func TestForwardPostsForm(t *testing.T) {
	b := &fakeBackend{reply: "HTTP 200 OK\r\n\r\n"}
	_, target := startBackend(t, b)
	c := Connect(target)

	out, err := buildCommand(CmdSet, url.Values{"key": {"abc"}, "value": {"def"}})
	assertNoError(t, err)
	body, err := c.Forward(context.Background(), out)
	assertNoError(t, err)
	assertEqual(t, body, "HTTP 200 OK\r\n\r\n")

	assertEqual(t, len(b.received()), 1)
	assertEqual(t, b.bodies[0], "cmd=SET&abc=def")
	assertEqual(t, b.methods[0], http.MethodPost)
	assertEqual(t, b.paths[0], "/")
	assertEqual(t, b.types[0], "application/x-www-form-urlencoded")
}

func TestForwardReturnsBodyRegardlessOfStatus(t *testing.T) {
	b := &fakeBackend{status: http.StatusNotFound, reply: "HTTP 404 Not Found\r\n\r\n"}
	_, target := startBackend(t, b)

	body, err := Connect(target).Get(context.Background(), "missing")
	assertNoError(t, err)
	assertEqual(t, body, "HTTP 404 Not Found\r\n\r\n")
}

func TestClientCommands(t *testing.T) {
	b := &fakeBackend{reply: "ok"}
	_, target := startBackend(t, b)
	c := Connect(target)
	ctx := context.Background()

	for _, call := range []func() (string, error){
		func() (string, error) { return c.Get(ctx, "abc") },
		func() (string, error) { return c.Set(ctx, "abc", "def") },
		func() (string, error) { return c.Remove(ctx, "abc") },
		func() (string, error) { return c.Add(ctx, "10.0.0.1", "9000", "5") },
		func() (string, error) { return c.Del(ctx, "10.0.0.1", "9000") },
	} {
		body, err := call()
		assertNoError(t, err)
		assertEqual(t, body, "ok")
	}

	expect := []string{
		"cmd=GET&key=abc",
		"cmd=SET&abc=def",
		"cmd=REM&key=abc",
		"cmd=ADD&ip=10.0.0.1&port=9000&weight=5",
		"cmd=DEL&ip=10.0.0.1&port=9000",
	}
	got := b.received()
	assertEqual(t, len(got), len(expect))
	for i := range expect {
		assertEqual(t, got[i], expect[i])
	}
}

func TestForwardUnreachableBackend(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	target := targetOf(t, srv.URL)
	srv.Close()

	_, err := Connect(target).Get(context.Background(), "abc")
	var backendErr *BackendError
	if !errors.As(err, &backendErr) {
		t.Fatalf("expected BackendError, got %v", err)
	}
	assertEqual(t, backendErr.Target, target)
}

func TestForwardTimeout(t *testing.T) {
	release := make(chan struct{})
	_, target := startBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer close(release)

	start := time.Now()
	_, err := Connect(target, WithTimeout(50*time.Millisecond)).Get(context.Background(), "abc")
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("timeout took %v", elapsed)
	}
}

func TestForwardHonorsContext(t *testing.T) {
	release := make(chan struct{})
	_, target := startBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := Connect(target).Get(ctx, "abc")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestWithHTTPClient(t *testing.T) {
	hc := &http.Client{Timeout: time.Second}
	c := Connect(BackendTarget{Host: "127.0.0.1", Port: 5556}, WithHTTPClient(hc))
	if c.http != hc {
		t.Error("http client not replaced")
	}
	assertEqual(t, c.url, "http://127.0.0.1:5556/")
	assertEqual(t, c.Target().Port, 5556)
}

func TestMissingFieldNeverReachesBackend(t *testing.T) {
	b := &fakeBackend{reply: "ok"}
	_, target := startBackend(t, b)
	_, err := Connect(target).call(context.Background(), CmdAdd, url.Values{"ip": {"10.0.0.1"}})
	if err == nil {
		t.Fatal("expected error")
	}
	assertEqual(t, len(b.received()), 0)
}
