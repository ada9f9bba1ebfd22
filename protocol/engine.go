package protocol

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/mklimuk/sensirion"
	"github.com/mklimuk/sensirion/snsctx"
)

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Sleep is the default Sleeper.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type Option func(*Engine)

// WithCRCCheck toggles per word CRC validation of responses (enabled by default).
func WithCRCCheck(enabled bool) Option {
	return func(e *Engine) {
		e.checkCRC = enabled
	}
}

func WithSleeper(s Sleeper) Option {
	return func(e *Engine) {
		e.sleep = s
	}
}

// WithClock replaces time.Now for settle deadline bookkeeping.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// Engine turns commands into bus transfers for one device address. It owns a
// single response buffer and is not safe for concurrent use.
type Engine struct {
	transport sensirion.I2CBus
	addr      byte
	checkCRC  bool
	sleep     Sleeper
	now       func() time.Time
	// earliest moment the device accepts the next transfer
	readyAt time.Time
	buf     [MaxResponseSize]byte
}

func NewEngine(transport sensirion.I2CBus, addr byte, opts ...Option) *Engine {
	e := &Engine{
		transport: transport,
		addr:      addr,
		checkCRC:  true,
		sleep:     Sleep,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Address() byte {
	return e.addr
}

func (e *Engine) CRCCheck() bool {
	return e.checkCRC
}

// WaitSettled blocks until the execution time of the last command elapsed.
func (e *Engine) WaitSettled(ctx context.Context) error {
	if e.readyAt.IsZero() {
		return nil
	}
	remaining := e.readyAt.Sub(e.now())
	if remaining <= 0 {
		e.readyAt = time.Time{}
		return nil
	}
	if err := e.sleep(ctx, remaining); err != nil {
		return err
	}
	e.readyAt = time.Time{}
	return nil
}

// Hold delays the next transfer by at least d. It is used after transfers the
// device is expected to NACK, which leave no settle deadline behind.
func (e *Engine) Hold(d time.Duration) {
	if at := e.now().Add(d); at.After(e.readyAt) {
		e.readyAt = at
	}
}

// Send writes the command and its payload in a single transfer and arms the
// command's settle time.
func (e *Engine) Send(ctx context.Context, cmd Command, payload ...uint16) error {
	out, err := Encode(cmd, payload...)
	if err != nil {
		return err
	}
	if err := e.WaitSettled(ctx); err != nil {
		return err
	}
	if snsctx.IsVerbose(ctx) {
		snsctx.Logger(ctx).DebugContext(ctx, "i2c write", "addr", fmt.Sprintf("%#x", e.addr), "cmd", cmd.Name, "frame", hex.EncodeToString(out))
	}
	if err := e.transport.WriteToAddr(ctx, e.addr, out); err != nil {
		return fmt.Errorf("%s: write failed: %w", cmd, err)
	}
	if cmd.Settle > 0 {
		e.readyAt = e.now().Add(cmd.Settle)
	}
	return nil
}

// Receive reads an n byte response. The returned frame aliases the engine
// buffer and stays valid until the next Receive.
func (e *Engine) Receive(ctx context.Context, n int) (Frame, error) {
	if !validResponseSize(n) {
		return nil, fmt.Errorf("%w: invalid response size %d, must be %d or %d bytes", ErrRange, n, WordSize, MaxResponseSize)
	}
	if err := e.WaitSettled(ctx); err != nil {
		return nil, err
	}
	frame := Frame(e.buf[:n])
	clear(frame)
	if err := e.transport.ReadFromAddr(ctx, e.addr, frame); err != nil {
		var short *sensirion.ShortReadError
		if errors.As(err, &short) {
			return nil, &LengthMismatchError{Expected: n, Got: short.Read}
		}
		return nil, fmt.Errorf("read failed: %w", err)
	}
	if snsctx.IsVerbose(ctx) {
		snsctx.Logger(ctx).DebugContext(ctx, "i2c read", "addr", fmt.Sprintf("%#x", e.addr), "frame", hex.EncodeToString(frame))
	}
	if e.checkCRC {
		if err := frame.Verify(); err != nil {
			return nil, err
		}
	}
	return frame, nil
}

// Exec sends cmd and, if it has a response, reads and validates it. Commands
// without a response return a nil frame.
func (e *Engine) Exec(ctx context.Context, cmd Command, payload ...uint16) (Frame, error) {
	if cmd.ResponseSize != 0 && !validResponseSize(cmd.ResponseSize) {
		return nil, fmt.Errorf("%s: %w: invalid response size %d, must be %d or %d bytes", cmd, ErrRange, cmd.ResponseSize, WordSize, MaxResponseSize)
	}
	if err := e.Send(ctx, cmd, payload...); err != nil {
		return nil, err
	}
	if cmd.ResponseSize == 0 {
		return nil, nil
	}
	frame, err := e.Receive(ctx, cmd.ResponseSize)
	if err != nil {
		var lm *LengthMismatchError
		if errors.As(err, &lm) {
			lm.Command = cmd.String()
			return nil, lm
		}
		var ce *ChecksumError
		if errors.As(err, &ce) {
			ce.Command = cmd.String()
			return nil, ce
		}
		return nil, fmt.Errorf("%s: %w", cmd, err)
	}
	return frame, nil
}
