package zusiclient

import (
	"errors"
	"time"

	"github.com/arloliu/go-zusi/logger"
	"github.com/arloliu/go-zusi/zusi"
)

// ClientConfig holds the tuning parameters of a Client.
// It is built once by NewClient and never changes afterwards.
type ClientConfig struct {
	// tickInterval is the pause of the driver between two phase handler invocations.
	// It should be between 10 milliseconds and 1 second. Defaults to 100 milliseconds.
	tickInterval time.Duration

	// reconnectDelay is the backoff after a failed connect attempt.
	// It should be between 10 milliseconds and 60 seconds. Defaults to 5 seconds.
	reconnectDelay time.Duration

	// disposeCooldown is the pause after a session was torn down.
	// It should be between 0 and 60 seconds. Defaults to 5 seconds.
	disposeCooldown time.Duration

	// connectTimeout bounds one transport connect attempt.
	// It should be between 100 milliseconds and 30 seconds. Defaults to 5 seconds.
	connectTimeout time.Duration

	// ioTimeout bounds every receive and every send on the transport.
	// It should be between 10 milliseconds and 60 seconds. Defaults to 5 seconds.
	ioTimeout time.Duration

	// ackTimeout bounds the wait for a handshake acknowledgement.
	// Zero waits forever, otherwise it should be between 100 milliseconds and 300 seconds.
	// Defaults to 0.
	ackTimeout time.Duration

	recvBufferSize int
	sendBufferSize int
	maxNeededData  int

	logger       logger.Logger
	phaseHandler []PhaseChangeHandler

	// codec replaces the zusi.Session created by NewClient; the buffer sizes are ignored then.
	codec Codec
}

func newClientConfig(opts ...ClientOption) (*ClientConfig, error) {
	cfg := &ClientConfig{
		tickInterval:    100 * time.Millisecond,
		reconnectDelay:  5 * time.Second,
		disposeCooldown: 5 * time.Second,
		connectTimeout:  5 * time.Second,
		ioTimeout:       5 * time.Second,
		ackTimeout:      0,
		recvBufferSize:  zusi.DefaultRecvBufferSize,
		sendBufferSize:  zusi.DefaultSendBufferSize,
		maxNeededData:   zusi.DefaultMaxNeededData,
		logger:          logger.GetLogger(),
	}

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.apply(cfg); err != nil {
			return cfg, err
		}
	}

	return cfg, nil
}

// TickInterval returns the pause of the driver between two phase handler invocations.
func (cfg *ClientConfig) TickInterval() time.Duration { return cfg.tickInterval }

// ReconnectDelay returns the backoff after a failed connect attempt.
func (cfg *ClientConfig) ReconnectDelay() time.Duration { return cfg.reconnectDelay }

// DisposeCooldown returns the pause after a session was torn down.
func (cfg *ClientConfig) DisposeCooldown() time.Duration { return cfg.disposeCooldown }

// ConnectTimeout returns the timeout of one connect attempt.
func (cfg *ClientConfig) ConnectTimeout() time.Duration { return cfg.connectTimeout }

// IOTimeout returns the timeout of every receive and send.
func (cfg *ClientConfig) IOTimeout() time.Duration { return cfg.ioTimeout }

// AckTimeout returns the handshake acknowledgement timeout, 0 means no timeout.
func (cfg *ClientConfig) AckTimeout() time.Duration { return cfg.ackTimeout }

// ClientOption represents a functional option for configuring a Client.
type ClientOption interface {
	apply(*ClientConfig) error
}

type clientOptFunc struct {
	name      string
	applyFunc func(*ClientConfig) error
}

func (c *clientOptFunc) apply(cfg *ClientConfig) error { return c.applyFunc(cfg) }

func newClientOptFunc(name string, f func(*ClientConfig) error) *clientOptFunc {
	return &clientOptFunc{
		name:      name,
		applyFunc: f,
	}
}

// WithTickInterval sets the pause of the driver between two phase handler invocations.
// An error is returned if the interval is outside the valid range (10ms-1s) or if the configuration is nil.
//
// The default value is 100 milliseconds.
func WithTickInterval(val time.Duration) ClientOption {
	return newClientOptFunc("WithTickInterval", func(cfg *ClientConfig) error {
		if cfg == nil {
			return ErrConfigNil
		}

		if val < 10*time.Millisecond || val > time.Second {
			return errors.New("tick interval out of range [10ms, 1s]")
		}
		cfg.tickInterval = val

		return nil
	})
}

// WithReconnectDelay sets the backoff after a failed connect attempt.
// An error is returned if the delay is outside the valid range (10ms-60s) or if the configuration is nil.
//
// The default value is 5 seconds.
func WithReconnectDelay(val time.Duration) ClientOption {
	return newClientOptFunc("WithReconnectDelay", func(cfg *ClientConfig) error {
		if cfg == nil {
			return ErrConfigNil
		}

		if val < 10*time.Millisecond || val > 60*time.Second {
			return errors.New("reconnect delay out of range [10ms, 60s]")
		}
		cfg.reconnectDelay = val

		return nil
	})
}

// WithDisposeCooldown sets the pause after a session was torn down and before the next connect attempt.
// An error is returned if the cooldown is outside the valid range (0-60s) or if the configuration is nil.
//
// The default value is 5 seconds.
func WithDisposeCooldown(val time.Duration) ClientOption {
	return newClientOptFunc("WithDisposeCooldown", func(cfg *ClientConfig) error {
		if cfg == nil {
			return ErrConfigNil
		}

		if val < 0 || val > 60*time.Second {
			return errors.New("dispose cooldown out of range [0, 60s]")
		}
		cfg.disposeCooldown = val

		return nil
	})
}

// WithConnectTimeout sets the timeout of one transport connect attempt.
// An error is returned if the timeout is outside the valid range (100ms-30s) or if the configuration is nil.
//
// The default value is 5 seconds.
func WithConnectTimeout(val time.Duration) ClientOption {
	return newClientOptFunc("WithConnectTimeout", func(cfg *ClientConfig) error {
		if cfg == nil {
			return ErrConfigNil
		}

		if val < 100*time.Millisecond || val > 30*time.Second {
			return errors.New("connect timeout out of range [100ms, 30s]")
		}
		cfg.connectTimeout = val

		return nil
	})
}

// WithIOTimeout sets the timeout of every receive and send on the transport.
//
// The receive timeout also bounds how long the reader goroutine takes to notice a stop request
// when it is not interrupted explicitly.
//
// An error is returned if the timeout is outside the valid range (10ms-60s) or if the configuration is nil.
//
// The default value is 5 seconds.
func WithIOTimeout(val time.Duration) ClientOption {
	return newClientOptFunc("WithIOTimeout", func(cfg *ClientConfig) error {
		if cfg == nil {
			return ErrConfigNil
		}

		if val < 10*time.Millisecond || val > 60*time.Second {
			return errors.New("io timeout out of range [10ms, 60s]")
		}
		cfg.ioTimeout = val

		return nil
	})
}

// WithAckTimeout sets how long the client waits for ACK_HELLO and ACK_NEEDED_DATA.
// When the timeout expires the session is disposed and the client reconnects.
//
// Zero disables the timeout: the client waits for the acknowledgement as long as the
// connection stays up.
//
// An error is returned if the timeout is neither 0 nor inside the valid range (100ms-300s),
// or if the configuration is nil.
//
// The default value is 0.
func WithAckTimeout(val time.Duration) ClientOption {
	return newClientOptFunc("WithAckTimeout", func(cfg *ClientConfig) error {
		if cfg == nil {
			return ErrConfigNil
		}

		if val != 0 && (val < 100*time.Millisecond || val > 300*time.Second) {
			return errors.New("ack timeout out of range [100ms, 300s]")
		}
		cfg.ackTimeout = val

		return nil
	})
}

// WithRecvBufferSize sets the size of the codec receive buffer in bytes.
// A single message larger than the buffer cannot be decoded.
// An error is returned if the size is outside the valid range (64-65536) or if the configuration is nil.
//
// The default value is 1024.
func WithRecvBufferSize(size int) ClientOption {
	return newClientOptFunc("WithRecvBufferSize", func(cfg *ClientConfig) error {
		if cfg == nil {
			return ErrConfigNil
		}

		if size < 64 || size > 65536 {
			return errors.New("receive buffer size out of range [64, 65536]")
		}
		cfg.recvBufferSize = size

		return nil
	})
}

// WithSendBufferSize sets the size of the codec send buffer in bytes.
// The NEEDED_DATA message of all registered entries has to fit into it.
// An error is returned if the size is outside the valid range (64-65536) or if the configuration is nil.
//
// The default value is 512.
func WithSendBufferSize(size int) ClientOption {
	return newClientOptFunc("WithSendBufferSize", func(cfg *ClientConfig) error {
		if cfg == nil {
			return ErrConfigNil
		}

		if size < 64 || size > 65536 {
			return errors.New("send buffer size out of range [64, 65536]")
		}
		cfg.sendBufferSize = size

		return nil
	})
}

// WithMaxNeededData sets how many needed data entries the client accepts.
// An error is returned if the value is outside the valid range (1-1024) or if the configuration is nil.
//
// The default value is 128.
func WithMaxNeededData(val int) ClientOption {
	return newClientOptFunc("WithMaxNeededData", func(cfg *ClientConfig) error {
		if cfg == nil {
			return ErrConfigNil
		}

		if val < 1 || val > 1024 {
			return errors.New("max needed data out of range [1, 1024]")
		}
		cfg.maxNeededData = val

		return nil
	})
}

// WithLogger sets the logger of the client.
// An error is returned if the logger or the configuration is nil.
//
// The default value is the package logger returned by logger.GetLogger.
func WithLogger(l logger.Logger) ClientOption {
	return newClientOptFunc("WithLogger", func(cfg *ClientConfig) error {
		if cfg == nil {
			return ErrConfigNil
		}

		if l == nil {
			return errors.New("logger is nil")
		}
		cfg.logger = l

		return nil
	})
}

// WithPhaseChangeHandler adds handlers invoked on every phase change.
// See PhaseChangeHandler for the calling convention.
func WithPhaseChangeHandler(handlers ...PhaseChangeHandler) ClientOption {
	return newClientOptFunc("WithPhaseChangeHandler", func(cfg *ClientConfig) error {
		if cfg == nil {
			return ErrConfigNil
		}

		for _, h := range handlers {
			if h != nil {
				cfg.phaseHandler = append(cfg.phaseHandler, h)
			}
		}

		return nil
	})
}

// WithCodec replaces the zusi.Session codec of the client.
// The data handler given to NewClient is not used by an injected codec.
// An error is returned if the codec or the configuration is nil.
func WithCodec(codec Codec) ClientOption {
	return newClientOptFunc("WithCodec", func(cfg *ClientConfig) error {
		if cfg == nil {
			return ErrConfigNil
		}

		if codec == nil {
			return errors.New("codec is nil")
		}
		cfg.codec = codec

		return nil
	})
}
