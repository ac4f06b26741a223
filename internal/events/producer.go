package events

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/muesli/cancelreader"

	"github.com/NeverVane/historic/internal/logger"
)

const readBufferSize = 256

// Producer reads raw input on a background goroutine and forwards decoded
// keys to a Channel in the order they were typed.
type Producer struct {
	ch      *Channel
	reader  cancelreader.CancelReader
	decoder Decoder
	logger  *logger.Logger

	running  atomic.Bool
	started  atomic.Bool
	done     chan struct{}
	stopOnce sync.Once
	stopErr  error
}

// NewProducer wraps r so that a blocked read can be cancelled on Stop
func NewProducer(r io.Reader, ch *Channel) (*Producer, error) {
	reader, err := cancelreader.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create cancelable input reader: %w", err)
	}

	return &Producer{
		ch:     ch,
		reader: reader,
		logger: logger.GetLogger().Events(),
		done:   make(chan struct{}),
	}, nil
}

// Start sends the Init event and begins reading. It may be called once.
func (p *Producer) Start() {
	if !p.started.CompareAndSwap(false, true) {
		return
	}
	p.running.Store(true)
	p.ch.Send(InitEvent())

	go p.loop()
}

// Running reports whether the producer is still reading
func (p *Producer) Running() bool {
	return p.running.Load()
}

func (p *Producer) loop() {
	defer close(p.done)
	defer p.running.Store(false)

	buf := make([]byte, readBufferSize)
	for p.running.Load() {
		n, err := p.reader.Read(buf)
		if n > 0 {
			for _, k := range p.decoder.Decode(buf[:n]) {
				p.ch.Send(KeyEvent(k))
			}
		}

		if err == nil {
			continue
		}

		switch {
		case errors.Is(err, cancelreader.ErrCanceled) || !p.running.Load():
			p.logger.Debug().Msg("Input reader canceled")
		case errors.Is(err, io.EOF):
			p.forwardFlush()
			p.logger.Debug().Msg("Input closed")
			p.ch.Send(QuitEvent())
		default:
			p.logger.WithError(err).Error().Msg("Failed to read terminal input")
			p.ch.Send(FailureEvent(fmt.Errorf("failed to read terminal input: %w", err)))
		}
		return
	}
}

func (p *Producer) forwardFlush() {
	for _, k := range p.decoder.Flush() {
		p.ch.Send(KeyEvent(k))
	}
}

// Stop clears the running flag, cancels a blocked read, and waits up to
// timeout for the reading goroutine to exit. It is safe to call more than
// once.
func (p *Producer) Stop(timeout time.Duration) error {
	p.stopOnce.Do(func() {
		p.stopErr = p.stop(timeout)
	})
	return p.stopErr
}

func (p *Producer) stop(timeout time.Duration) error {
	defer p.reader.Close()

	p.running.Store(false)
	if !p.started.Load() {
		return nil
	}

	if !p.reader.Cancel() {
		p.logger.Debug().Msg("Input reader does not support cancellation")
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-p.done:
		return nil
	case <-timer.C:
		return fmt.Errorf("input producer did not stop within %s", timeout)
	}
}
