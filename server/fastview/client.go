package fastview

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	channerics "github.com/niceyeti/channerics/channels"
	"golang.org/x/sync/errgroup"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 1 * time.Second
	// Maximum message size allowed from peer.
	maxMessageSize = 8192

	// The default rate at which ele-updates are sent to the client, so as not to overburden it.
	defaultPubResolution = time.Millisecond * 100
	pingResolution       = time.Millisecond * 200
	// The number of pings to tolerate losing before concluding the peer is gone.
	pongWait = pingResolution * 4
)

var upgrader = websocket.Upgrader{}

// Client publishes updates unidirectionally to a web page via websocket. Messages
// from the page are read only to service control frames.
type Client[T any] struct {
	updates       <-chan T
	ws            *websock
	rootCtx       context.Context
	pubResolution time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*clientOptions)

type clientOptions struct {
	pubResolution time.Duration
}

// WithPublishRate sets the minimum interval between published updates. Updates arriving
// faster are dropped.
func WithPublishRate(d time.Duration) ClientOption {
	return func(o *clientOptions) { o.pubResolution = d }
}

// NewClient upgrades the request to a websocket and returns a publisher for the passed
// updates. Items in the updates chan should represent idempotent update objects, such
// that intervening updates can be discarded when they are received too quickly, and
// sending only the latest update is sufficient to specify the new client state.
func NewClient[T any](
	updates <-chan T,
	w http.ResponseWriter,
	r *http.Request,
	opts ...ClientOption,
) (*Client[T], error) {
	options := clientOptions{pubResolution: defaultPubResolution}
	for _, opt := range opts {
		opt(&options)
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already replied to the client.
		return nil, fmt.Errorf("upgrade: %w", err)
	}
	ws.SetReadLimit(maxMessageSize)

	return &Client[T]{
		updates:       updates,
		ws:            newWebSocket(ws),
		rootCtx:       r.Context(),
		pubResolution: options.pubResolution,
	}, nil
}

// Sync runs the read, ping-pong and publish routines until the client disconnects,
// the updates chan closes or an unexpected error occurs, then closes the socket.
// Sync returns nil upon client disconnect.
func (cli *Client[T]) Sync() error {
	group, groupCtx := errgroup.WithContext(cli.rootCtx)

	group.Go(func() error {
		return cli.readMessages(groupCtx)
	})
	group.Go(func() error {
		return cli.pingPong(groupCtx)
	})
	group.Go(func() error {
		return cli.publish(groupCtx)
	})

	err := group.Wait()
	cli.ws.Close()
	if errors.Is(err, errUpdatesClosed) || isClosure(err) {
		return nil
	}
	return err
}

// errUpdatesClosed tears down the reader and pinger once there is nothing left to publish.
var errUpdatesClosed = errors.New("updates closed")

var ErrPongDeadlineExceeded error = errors.New("client disconnect, pong deadline exceeded")

// Runs the ping-pong for the client liveness check.
// NOTE: This function requires that readMessages is running to ensure the pong handler is called.
func (cli *Client[T]) pingPong(ctx context.Context) error {
	pong := make(chan struct{}, 1)
	conn := cli.ws.Conn()
	conn.SetPongHandler(func(_ string) error {
		// Called from the reader's goroutine, so the deadline update is serialized with reads.
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		select {
		case pong <- struct{}{}:
		default:
		}
		return nil
	})

	pinger := channerics.NewTicker(ctx.Done(), pingResolution)
	lastPong := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-pinger:
			if time.Since(lastPong) > pongWait {
				return ErrPongDeadlineExceeded
			}
			if err := cli.ping(ctx); err != nil {
				return err
			}
		case <-pong:
			lastPong = time.Now()
		}
	}
}

func (cli *Client[T]) ping(ctx context.Context) error {
	return cli.ws.Write(
		ctx,
		func(ws *websocket.Conn) (err error) {
			if err = ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				err = fmt.Errorf("ping failed: %w", err)
			}
			return
		})
}

// readMessages monitors for messages from the client.
// Errors returned by websocket Read methods are permanent, hence any error
// must trigger full teardown.
func (cli *Client[T]) readMessages(ctx context.Context) error {
	_ = cli.ws.Conn().SetReadDeadline(time.Now().Add(pongWait))
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		err := cli.ws.Read(
			ctx,
			func(ws *websocket.Conn) (readErr error) {
				_, _, readErr = ws.ReadMessage()
				return
			})
		if err != nil {
			var netErr interface{ Timeout() bool }
			if errors.As(err, &netErr) && netErr.Timeout() {
				// The liveness check belongs to pingPong.
				return ErrPongDeadlineExceeded
			}
			return err
		}
	}
}

func (cli *Client[T]) publish(ctx context.Context) error {
	var lastSync time.Time

	for {
		select {
		case <-ctx.Done():
			return nil
		case updates, ok := <-cli.updates:
			// Graceful input channel closure
			if !ok {
				return errUpdatesClosed
			}
			// Drop updates when receiving too quickly.
			if time.Since(lastSync) < cli.pubResolution {
				break
			}

			lastSync = time.Now()
			err := cli.ws.Write(
				ctx,
				func(ws *websocket.Conn) (writeErr error) {
					if writeErr = ws.SetWriteDeadline(time.Now().Add(writeWait)); writeErr != nil {
						return fmt.Errorf("failed to set deadline: %w", writeErr)
					}
					if writeErr = ws.WriteJSON(updates); writeErr != nil {
						writeErr = fmt.Errorf("publish failed: %w", writeErr)
					}
					return
				})
			if err != nil {
				return err
			}
		}
	}
}

func isClosure(err error) bool {
	var closeErr *websocket.CloseError
	return errors.As(err, &closeErr) && (closeErr.Code == websocket.CloseNormalClosure ||
		closeErr.Code == websocket.CloseGoingAway ||
		closeErr.Code == websocket.CloseNoStatusReceived)
}

// ErrSockCongestion indicates there are too many waiters on the socket for a given op.
var ErrSockCongestion = errors.New("sock op failed due to congestion")

const (
	readDeadline     = time.Second
	writeDeadline    = time.Second
	closeGracePeriod = 100 * time.Millisecond
)

// websock merely serializes reads and writes to the websocket, whose requirements
// are that there may be only one concurrent read and writer at a time.
type websock struct {
	// These are merely mutexes, but channel semantics are cleaner.
	readSem  chan struct{}
	writeSem chan struct{}
	ws       *websocket.Conn
}

func newWebSocket(ws *websocket.Conn) *websock {
	return &websock{
		readSem:  make(chan struct{}, 1),
		writeSem: make(chan struct{}, 1),
		ws:       ws,
	}
}

// Returns the underlying websocket.
// This should only be used non-concurrently for setup, e.g. adding handlers.
func (sock *websock) Conn() *websocket.Conn {
	return sock.ws
}

// Close sends a close frame and closes the websocket. It must only be called once no
// further writers exist; a blocked reader is released by the close.
func (sock *websock) Close() {
	sock.writeSem <- struct{}{}
	_ = sock.ws.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
	time.Sleep(closeGracePeriod)
	_ = sock.ws.Close()
}

// Read serializes read operations on the internal web socket.
func (sock *websock) Read(
	ctx context.Context,
	readFn func(*websocket.Conn) error,
) error {
	select {
	case <-ctx.Done():
		return nil
	case sock.readSem <- struct{}{}:
		defer func() { <-sock.readSem }()
		return readFn(sock.ws)
	case <-time.After(readDeadline):
		return ErrSockCongestion
	}
}

// Write serializes write operations to the websocket.
func (sock *websock) Write(
	ctx context.Context,
	writeFn func(*websocket.Conn) error,
) error {
	select {
	case <-ctx.Done():
		return nil
	case sock.writeSem <- struct{}{}:
		defer func() { <-sock.writeSem }()
		return writeFn(sock.ws)
	case <-time.After(writeDeadline):
		return ErrSockCongestion
	}
}
