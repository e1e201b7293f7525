// Package telemetry implements the pose-streaming TCP collaborator: up to
// MaxConns clients at a time can connect to a fixed port and receive one
// JSON pose object per line, at a fixed cadence, for as long as they stay
// connected.
//
// It's grounded on the teacher's one-goroutine-per-connection networking
// shape (see engine/local/local.go's net.Listener loop) and its
// semaphore-bounded concurrency pattern (util/semaphore), generalized from
// a local Unix-socket control channel into a TCP pose broadcaster. The
// lock-free pose-supplier swap uses sync/atomic.Pointer, exactly as spec.md
// §5 calls out for the telemetry collaborator's shared state.
package telemetry

import (
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fieldctl/core/util/semaphore"
)

// PoseSupplier returns the robot's current pose. It must be safe to call
// concurrently with Start/Disable.
type PoseSupplier func() (x, y, headingRad float64, err error)

// Server streams pose snapshots to connected TCP clients, serving at most
// MaxConns of them at once; further connections wait until a slot frees.
// The zero value is not ready to use; construct one with New.
type Server struct {
	Addr     string
	Interval time.Duration
	MaxConns int

	Logf func(format string, v ...interface{})

	supplier atomic.Pointer[PoseSupplier]

	mu       sync.Mutex
	listener net.Listener
	sem      *semaphore.Semaphore
	wg       sync.WaitGroup
	started  bool
}

// New returns a Server listening on addr, streaming one line every
// interval, accepting at most maxConns simultaneous clients.
func New(addr string, interval time.Duration, maxConns int, logf func(format string, v ...interface{})) *Server {
	if logf == nil {
		logf = func(string, ...interface{}) {}
	}
	return &Server{Addr: addr, Interval: interval, MaxConns: maxConns, Logf: logf}
}

// DefaultAddr is the address spec.md §6 specifies: TCP port 8888 on all
// interfaces.
const DefaultAddr = ":8888"

// DefaultInterval is the per-line streaming cadence spec.md §6 specifies.
const DefaultInterval = 50 * time.Millisecond

// SetSupplier installs supplier as the pose source. Safe to call
// concurrently with a running server; the swap is lock-free.
func (s *Server) SetSupplier(supplier PoseSupplier) {
	s.supplier.Store(&supplier)
}

// Disable clears the pose supplier without stopping the listener: connected
// and future clients keep receiving lines, each reporting provider_error,
// until a new supplier is installed.
func (s *Server) Disable() {
	s.supplier.Store(nil)
}

// Start begins listening, if it isn't already. Calling Start more than once
// is a no-op — idempotent per spec.md §6.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}
	addr := s.Addr
	if addr == "" {
		addr = DefaultAddr
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("telemetry: listen on %s: %w", addr, err)
	}
	s.listener = ln
	max := s.MaxConns
	if max <= 0 {
		max = 64
	}
	s.sem = semaphore.New(max)
	s.started = true

	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

// ListenAddr returns the address the server is actually bound to, useful
// when Addr was "" or ended in ":0". It returns nil if Start hasn't
// succeeded yet.
func (s *Server) ListenAddr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop closes the listener and waits for every connection handler to exit.
func (s *Server) Stop() error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	ln := s.listener
	s.mu.Unlock()

	err := ln.Close()
	s.wg.Wait()
	return err
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return // listener closed, Stop is tearing down
		}
		if err := s.sem.P(1); err != nil {
			conn.Close()
			continue
		}
		s.wg.Add(1)
		go s.serve(conn)
	}
}

func (s *Server) serve(conn net.Conn) {
	defer s.wg.Done()
	defer s.sem.V(1)
	defer conn.Close()

	ticker := time.NewTicker(s.interval())
	defer ticker.Stop()

	enc := json.NewEncoder(conn)
	for range ticker.C {
		if err := enc.Encode(s.snapshot()); err != nil {
			return // client gone
		}
	}
}

func (s *Server) interval() time.Duration {
	if s.Interval <= 0 {
		return DefaultInterval
	}
	return s.Interval
}

// poseLine is the JSON shape spec.md §6 specifies for a streamed pose line.
// x, y, and heading always round-trip, even at their zero value — the
// origin pose and a zero heading are both ordinary, frequent readings, not
// absent data.
type poseLine struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Heading float64 `json:"heading"`
}

// errorLine is the JSON shape spec.md §6 specifies on a supplier error:
// only the error key, no stale or zeroed pose fields alongside it.
type errorLine struct {
	Error string `json:"error"`
}

func (s *Server) snapshot() interface{} {
	supplier := s.supplier.Load()
	if supplier == nil {
		return errorLine{Error: "provider_error"}
	}
	x, y, heading, err := (*supplier)()
	if err != nil {
		s.Logf("telemetry: provider error: %v", err)
		return errorLine{Error: "provider_error"}
	}
	return poseLine{X: round4(x), Y: round4(y), Heading: round4(heading)}
}

func round4(f float64) float64 {
	return float64(int64(f*10000)) / 10000
}
