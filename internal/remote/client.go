package remote

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-zeromq/zmq4"
	"github.com/google/uuid"

	"github.com/san-kum/jointctl/internal/logging"
)

const (
	DefaultEndpoint = "tcp://localhost:23000"
	dialTimeout     = 5 * time.Second
)

// conn is the part of a zmq4 socket the client uses.
type conn interface {
	Send(msg zmq4.Msg) error
	Recv() (zmq4.Msg, error)
	Close() error
}

// Client is a Sim backed by the CoppeliaSim ZeroMQ remote API.
type Client struct {
	mu     sync.Mutex
	sock   conn
	id     string
	broken bool
	logger *slog.Logger

	// closed is read without mu so Close never waits for an in-flight call.
	closed atomic.Bool
}

type Option func(*Client)

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// Dial connects to the simulator at endpoint and loads the "sim" module.
// The socket outlives ctx; release it with Close.
func Dial(ctx context.Context, endpoint string, opts ...Option) (*Client, error) {
	sock := zmq4.NewReq(context.WithoutCancel(ctx), zmq4.WithDialerTimeout(dialTimeout))
	if err := sock.Dial(endpoint); err != nil {
		sock.Close()
		return nil, fmt.Errorf("%w: dial %s: %v", ErrUnavailable, endpoint, err)
	}

	c := newClient(sock, opts...)
	if _, err := c.call(ctx, "zmqRemoteApi.require", "sim"); err != nil {
		c.Close()
		return nil, fmt.Errorf("load sim module: %w", err)
	}
	return c, nil
}

func newClient(sock conn, opts ...Option) *Client {
	c := &Client{
		sock:   sock,
		id:     uuid.NewString(),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) GetObject(ctx context.Context, path string) (Handle, error) {
	ret, err := c.call(ctx, "sim.getObject", path)
	if err != nil {
		return 0, err
	}
	if len(ret) == 0 {
		return 0, fmt.Errorf("%w: sim.getObject returned nothing", ErrProtocol)
	}
	return toHandle(ret[0])
}

func (c *Client) SetJointPosition(ctx context.Context, h Handle, rad float64) error {
	_, err := c.call(ctx, "sim.setJointPosition", int64(h), rad)
	return err
}

func (c *Client) Step(ctx context.Context) error {
	_, err := c.call(ctx, "sim.step")
	return err
}

func (c *Client) StartSimulation(ctx context.Context) error {
	_, err := c.call(ctx, "sim.startSimulation")
	return err
}

func (c *Client) StopSimulation(ctx context.Context) error {
	_, err := c.call(ctx, "sim.stopSimulation")
	return err
}

// Close releases the socket. It is safe to call more than once and from any
// goroutine; a call blocked on the socket returns ErrUnavailable.
func (c *Client) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	return c.sock.Close()
}

func (c *Client) call(ctx context.Context, fn string, args ...any) ([]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() || c.broken {
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, fn)
	}

	rep, err := c.roundTrip(fn, args)
	for err == nil && rep.Func != "" {
		if rep.Func != waitFunc {
			return nil, &CallError{Func: fn, Msg: "unsupported callback " + rep.Func}
		}
		rep, err = c.roundTrip(executedFunc, nil)
	}
	if err != nil {
		return nil, err
	}

	if msg, failed := rep.failure(); failed {
		return nil, &CallError{Func: fn, Msg: msg}
	}
	return rep.Ret, nil
}

// roundTrip must be called with c.mu held.
func (c *Client) roundTrip(fn string, args []any) (reply, error) {
	payload, err := encodeRequest(request{
		Func: fn,
		Args: args,
		UUID: c.id,
		Ver:  protocolVersion,
		Lang: clientLang,
	})
	if err != nil {
		return reply{}, fmt.Errorf("encode %s: %w", fn, err)
	}

	if err := c.sock.Send(zmq4.NewMsg(payload)); err != nil {
		c.broken = true
		c.logger.Debug("remote send failed", "func", fn, "err", err)
		return reply{}, fmt.Errorf("%w: send %s: %v", ErrUnavailable, fn, err)
	}

	msg, err := c.sock.Recv()
	if err != nil {
		c.broken = true
		c.logger.Debug("remote recv failed", "func", fn, "err", err)
		return reply{}, fmt.Errorf("%w: recv %s: %v", ErrUnavailable, fn, err)
	}

	return decodeReply(msg.Bytes())
}
