package bridge

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"

	"github.com/aigustalabs/switchboard/internal/protocol"
	"go.uber.org/zap"
)

// stdioConn is a bridge running as a spawned sidecar process: envelopes
// in on its stdout, commands out on its stdin, diagnostics on stderr.
type stdioConn struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	writer *protocol.Writer
	reader *protocol.Reader
}

func spawnStdio(ctx context.Context, service protocol.ServiceID, cfg ServiceConfig, logger *zap.Logger) (*stdioConn, error) {
	cmd := exec.CommandContext(ctx, cfg.Command, cfg.Args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("spawn %s: %w", cfg.Command, err)
	}
	logger.Info("bridge spawned",
		zap.String("service", service.String()),
		zap.String("command", cfg.Command),
		zap.Int("pid", cmd.Process.Pid),
	)

	go relayStderr(service, stderr, logger)

	return &stdioConn{
		cmd:    cmd,
		stdin:  stdin,
		writer: protocol.NewWriter(stdin),
		reader: protocol.NewReader(stdout),
	}, nil
}

func (c *stdioConn) send(env protocol.Envelope) error {
	return c.writer.Send(env)
}

// read returns the next envelope from the bridge's stdout, or io.EOF when
// the process exits.
func (c *stdioConn) read() (protocol.Envelope, error) {
	return c.reader.Read()
}

func (c *stdioConn) close() {
	_ = c.stdin.Close()
	// Reap the child; the spawn context kills it if still alive.
	_ = c.cmd.Wait()
}

// relayStderr forwards the bridge's stderr lines into the daemon log.
func relayStderr(service protocol.ServiceID, r io.Reader, logger *zap.Logger) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		logger.Info("bridge stderr",
			zap.String("service", service.String()),
			zap.String("line", scanner.Text()),
		)
	}
}
