package mcp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/server"

	"tableflip.dev/notes/pkg/gateway"
)

// Transport selects the mechanism used to expose the MCP server.
type Transport string

const (
	// TransportStdio serves MCP over stdio.
	TransportStdio Transport = "stdio"
	// TransportHTTP serves MCP via the streamable HTTP transport on a
	// loopback address.
	TransportHTTP Transport = "http"
)

const (
	DefaultAddr = "127.0.0.1:7777"
	DefaultPath = "/mcp"
)

// Runner serves the account that is signed in when it starts. It refuses to
// start while signed out.
type Runner struct {
	Gateway gateway.Gateway
	Name    string
	Version string

	Transport Transport
	// Addr is the loopback host:port for TransportHTTP.
	Addr string
	// Path is the HTTP endpoint path.
	Path string
	// Ready is called with the endpoint URL once HTTP accepts connections.
	Ready func(url string)
}

// Do executes the runner.
func (r Runner) Do(ctx context.Context) error {
	if r.Gateway == nil {
		return errors.New("mcp runner requires a gateway")
	}
	owner, err := r.Gateway.CurrentSession(ctx)
	if err != nil {
		return err
	}
	if owner == nil {
		return ErrNotSignedIn
	}

	svc := NewService(r.Gateway)
	svc.Owner = owner
	srv := newServer(r.Name, r.Version, svc)
	log.Info("mcp: serving notes", "owner", owner.Email, "transport", r.Transport)

	switch t := r.Transport; t {
	case "", TransportStdio:
		return server.ServeStdio(srv)
	case TransportHTTP:
		return r.serveHTTP(ctx, srv)
	default:
		return fmt.Errorf("unknown MCP transport %q", t)
	}
}

func newServer(name, version string, svc *Service) *server.MCPServer {
	if name == "" {
		name = "notes"
	}
	if version == "" {
		version = "dev"
	}
	srv := server.NewMCPServer(
		fmt.Sprintf("%s MCP", name),
		version,
		server.WithResourceCapabilities(false, false),
		server.WithToolCapabilities(false),
		server.WithInstructions("List, read, create, update and delete the signed-in user's notes."),
		server.WithResourceRecovery(),
		server.WithRecovery(),
	)
	registerResources(srv, svc)
	registerTools(srv, svc)
	return srv
}

// Handler mounts the streamable HTTP endpoint at path. It is stateless:
// every request is answered as the runner's pinned owner.
func Handler(srv *server.MCPServer, path string) http.Handler {
	mux := http.NewServeMux()
	mux.Handle(endpointPath(path), server.NewStreamableHTTPServer(srv, server.WithStateLess(true)))
	return mux
}

func endpointPath(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return DefaultPath
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path
}

// loopback rejects addresses reachable from other machines; the endpoint
// acts with the stored session's tokens.
func loopback(addr string) error {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("invalid address %q: %w", addr, err)
	}
	if host == "localhost" {
		return nil
	}
	if ip := net.ParseIP(host); ip != nil && ip.IsLoopback() {
		return nil
	}
	return fmt.Errorf("refusing to serve notes on %q: use a loopback address", addr)
}

func (r Runner) serveHTTP(ctx context.Context, srv *server.MCPServer) error {
	addr := r.Addr
	if addr == "" {
		addr = DefaultAddr
	}
	if err := loopback(addr); err != nil {
		return err
	}
	path := endpointPath(r.Path)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	httpSrv := &http.Server{
		Handler:           Handler(srv, path),
		ReadHeaderTimeout: 10 * time.Second,
	}
	if r.Ready != nil {
		r.Ready("http://" + ln.Addr().String() + path)
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
	}()

	if err := httpSrv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
