package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/cfacal/cfacal/pkg/types"
	"github.com/cfacal/cfacal/server/internal/config"
)

const (
	backoffInitial    = 1 * time.Second
	backoffMax        = 60 * time.Second
	backoffMultiplier = 2.0
	sendTimeout       = 10 * time.Second
)

// Writer is the part of *kafka.Writer the publisher uses.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Event is the message value published for one report.
type Event struct {
	Type   string        `json:"type"`
	Report *types.Report `json:"report"`
}

// EventCompleted is the type of every published event.
const EventCompleted = "calculation.completed"

// Publisher buffers reports and writes them to Kafka.
// Publish() is non-blocking; Run() must be called in a goroutine.
type Publisher struct {
	w     Writer
	buf   chan *types.Report
	sleep func(ctx context.Context, d time.Duration) bool // injectable for tests
}

// New returns a Publisher writing to the configured brokers and topic.
func New(cfg config.KafkaConfig) *Publisher {
	return NewWithWriter(&kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
	}, cfg.BufferSize)
}

// NewWithWriter returns a Publisher over w with a buffer of size reports.
func NewWithWriter(w Writer, size int) *Publisher {
	if size <= 0 {
		size = config.DefaultKafkaBuffer
	}
	return &Publisher{
		w:     w,
		buf:   make(chan *types.Report, size),
		sleep: sleepCtx,
	}
}

// Publish enqueues rep. If the buffer is full the oldest report is evicted.
func (p *Publisher) Publish(rep *types.Report) {
	select {
	case p.buf <- rep:
	default:
		select {
		case old := <-p.buf:
			slog.Warn("events: buffer full, evicted oldest report",
				"run_id", old.RunID, "buffer_cap", cap(p.buf))
		default:
		}
		select {
		case p.buf <- rep:
		default:
		}
	}
}

// Pending returns the number of buffered reports.
func (p *Publisher) Pending() int { return len(p.buf) }

// Run drains the buffer until ctx is cancelled, then closes the writer.
func (p *Publisher) Run(ctx context.Context) {
	defer func() {
		if err := p.w.Close(); err != nil {
			slog.Warn("events: close writer", "err", err)
		}
	}()

	bo := newBackoff()
	for {
		select {
		case <-ctx.Done():
			return
		case rep := <-p.buf:
			for {
				err := p.send(ctx, rep)
				if err == nil {
					bo.reset()
					break
				}
				if isPermanent(err) {
					slog.Error("events: discarding report", "run_id", rep.RunID, "err", err)
					break
				}
				wait := bo.next()
				slog.Warn("events: publish failed, will retry",
					"run_id", rep.RunID, "err", err, "retry_in", wait)
				if !p.sleep(ctx, wait) {
					return
				}
			}
		}
	}
}

func (p *Publisher) send(ctx context.Context, rep *types.Report) error {
	msg, err := message(rep)
	if err != nil {
		return err
	}
	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	if err := p.w.WriteMessages(sendCtx, msg); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	slog.Debug("events: report published", "run_id", rep.RunID)
	return nil
}

// errEncode marks a report that cannot be serialised; retrying cannot help.
var errEncode = errors.New("events: encode report")

func isPermanent(err error) bool {
	return errors.Is(err, errEncode) || errors.Is(err, kafka.MessageSizeTooLarge)
}

// message keys by audit id so every run of one audit lands in one partition.
func message(rep *types.Report) (kafka.Message, error) {
	value, err := json.Marshal(Event{Type: EventCompleted, Report: rep})
	if err != nil {
		return kafka.Message{}, fmt.Errorf("%w: %v", errEncode, err)
	}
	var key []byte
	if rep.Result != nil {
		key = []byte(rep.Result.Audit.AuditID)
	}
	return kafka.Message{
		Key:   key,
		Value: value,
		Time:  rep.ComputedAt,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(EventCompleted)},
		},
	}, nil
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// backoff implements truncated exponential backoff with jitter.
type backoff struct {
	current time.Duration
}

func newBackoff() *backoff {
	return &backoff{current: backoffInitial}
}

// next returns the current backoff duration and advances the internal state.
func (b *backoff) next() time.Duration {
	d := b.current
	// ±25 % jitter.
	jitter := time.Duration(float64(b.current) * 0.25 * (rand.Float64()*2 - 1)) //nolint:gosec // not crypto
	d += jitter
	if d < 0 {
		d = 0
	}

	b.current = time.Duration(float64(b.current) * backoffMultiplier)
	if b.current > backoffMax {
		b.current = backoffMax
	}
	return d
}

func (b *backoff) reset() {
	b.current = backoffInitial
}
