package integration

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"ClaimChain/client"
)

// safeBuffer wraps bytes.Buffer with a mutex for concurrent read/write.
type safeBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

// Write appends data to the buffer (implements io.Writer).
func (sb *safeBuffer) Write(p []byte) (int, error) {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	return sb.buf.Write(p)
}

// String returns the buffer contents as a string.
func (sb *safeBuffer) String() string {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	return sb.buf.String()
}

// Node represents a running ClaimChain node process.
type Node struct {
	cmd      *exec.Cmd          // cmd is the running process
	httpAddr string             // httpAddr is the HTTP API address
	dataDir  string             // dataDir is the node's data directory
	stdout   *safeBuffer        // stdout captures process output
	stderr   *safeBuffer        // stderr captures process errors
	done     chan struct{}      // done is closed when the process exits
	cancel   context.CancelFunc // cancel kills the process
}

// nodeOpts holds the flags a node is started with.
type nodeOpts struct {
	maxClaimLength int    // maxClaimLength is the -max-claim-length flag
	blockInterval  string // blockInterval is the -block-interval flag
	restore        string // restore is the -restore flag
}

// NodeOption configures a node.
type NodeOption func(*nodeOpts)

// WithMaxClaimLength sets the claim size limit.
func WithMaxClaimLength(n int) NodeOption { return func(o *nodeOpts) { o.maxClaimLength = n } }

// WithRestore starts the node from a snapshot file.
func WithRestore(path string) NodeOption { return func(o *nodeOpts) { o.restore = path } }

// HTTPAddr returns the node's HTTP address.
func (n *Node) HTTPAddr() string { return n.httpAddr }

// DataDir returns the node's data directory.
func (n *Node) DataDir() string { return n.dataDir }

// Logs returns the node's stdout output.
func (n *Node) Logs() string { return n.stdout.String() }

// LogContains checks if the node's logs contain a substring.
func (n *Node) LogContains(s string) bool {
	return strings.Contains(n.stdout.String(), s)
}

// Exited reports whether the process has stopped.
func (n *Node) Exited() bool {
	select {
	case <-n.done:
		return true
	default:
		return false
	}
}

// Stop sends SIGINT and waits for a graceful exit, killing the process on timeout.
func (n *Node) Stop() {
	if n.cmd == nil || n.cmd.Process == nil {
		return
	}

	n.cmd.Process.Signal(os.Interrupt)

	select {
	case <-n.done:
	case <-time.After(5 * time.Second):
		n.cancel()
		<-n.done
	}
}

// Client returns a client connected to the node.
func (n *Node) Client(t *testing.T) *client.Client {
	t.Helper()

	c, err := client.NewClient(n.httpAddr)
	if err != nil {
		t.Fatalf("connect to %s: %v", n.httpAddr, err)
	}

	return c
}

// StartNode launches a node process on a free port and waits until it serves HTTP.
func StartNode(t *testing.T, binary, dataDir string, options ...NodeOption) *Node {
	t.Helper()

	opts := nodeOpts{maxClaimLength: 256, blockInterval: "50ms"}
	for _, o := range options {
		o(&opts)
	}

	node := &Node{
		httpAddr: freeAddr(t),
		dataDir:  dataDir,
		stdout:   &safeBuffer{},
		stderr:   &safeBuffer{},
		done:     make(chan struct{}),
	}

	args := []string{
		"-data", dataDir,
		"-http", node.httpAddr,
		"-key", filepath.Join(dataDir, "key"),
		"-max-claim-length", fmt.Sprintf("%d", opts.maxClaimLength),
		"-block-interval", opts.blockInterval,
		"-log-level", "debug",
	}

	if opts.restore != "" {
		args = append(args, "-restore", opts.restore)
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		t.Fatalf("create node dir: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	node.cancel = cancel

	node.cmd = exec.CommandContext(ctx, binary, args...)
	node.cmd.Stdout = node.stdout
	node.cmd.Stderr = node.stderr

	if err := node.cmd.Start(); err != nil {
		t.Fatalf("start node: %v", err)
	}

	go func() {
		node.cmd.Wait()
		close(node.done)
	}()

	t.Cleanup(node.Stop)

	node.waitReady(t, 10*time.Second)

	return node
}

// waitReady polls /health until the node answers or exits.
func (n *Node) waitReady(t *testing.T, timeout time.Duration) {
	t.Helper()

	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		if n.Exited() {
			t.Fatalf("node exited during startup:\n%s\n%s", n.Logs(), n.stderr.String())
		}

		if _, err := client.NewClient(n.httpAddr); err == nil {
			return
		}

		time.Sleep(50 * time.Millisecond)
	}

	t.Fatalf("node not ready after %v:\n%s", timeout, n.Logs())
}

// freeAddr returns a loopback address with a port that was free a moment ago.
func freeAddr(t *testing.T) string {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("find free port: %v", err)
	}
	defer l.Close()

	return l.Addr().String()
}

// buildBinary compiles the node binary.
// Uses a unique temp file per test to avoid races when tests run in parallel.
func buildBinary(t *testing.T) string {
	t.Helper()

	tmpFile, err := os.CreateTemp("", "claimchain_test_*")
	if err != nil {
		t.Fatalf("create temp binary file: %v", err)
	}

	binary := tmpFile.Name()
	tmpFile.Close()

	cmd := exec.Command("go", "build", "-o", binary, "./cmd/node")
	cmd.Dir = getProjectRoot(t)

	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("build failed: %v\n%s", err, output)
	}

	t.Cleanup(func() { os.Remove(binary) })

	return binary
}

// getProjectRoot returns the project root directory (containing go.mod).
func getProjectRoot(t *testing.T) string {
	t.Helper()

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("get working dir: %v", err)
	}

	dir := wd
	for i := 0; i < 5; i++ {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		dir = filepath.Dir(dir)
	}

	t.Fatalf("could not find project root from %s", wd)

	return ""
}
