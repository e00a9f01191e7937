package report

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/sony/gobreaker"

	"git.home.luguber.info/inful/csmon/internal/logfields"
	"git.home.luguber.info/inful/csmon/internal/metrics"
)

// Publisher sends one message. JetStream satisfies it through jsPublisher.
type Publisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// NATSConfig configures the NATS sink.
type NATSConfig struct {
	URL           string
	SubjectPrefix string
	QueueSize     int
	Timeout       time.Duration
}

// NATSReporter publishes events as JSON on "<prefix>.<kind>". Report only enqueues;
// Run drains the queue through a circuit breaker so a dead broker costs one failed
// publish per breaker timeout instead of one per event.
type NATSReporter struct {
	pub      Publisher
	prefix   string
	timeout  time.Duration
	queue    chan Event
	breaker  *gobreaker.CircuitBreaker
	recorder metrics.Recorder
	logger   *slog.Logger
	closeFn  func()
}

type jsPublisher struct {
	js jetstream.JetStream
}

func (p jsPublisher) Publish(ctx context.Context, subject string, data []byte) error {
	_, err := p.js.Publish(ctx, subject, data)
	return err
}

// DialNATS connects to cfg.URL and returns a reporter publishing through JetStream.
func DialNATS(cfg NATSConfig, recorder metrics.Recorder, logger *slog.Logger) (*NATSReporter, error) {
	conn, err := nats.Connect(cfg.URL, nats.Timeout(2*time.Second))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}
	r := NewNATSReporter(jsPublisher{js: js}, cfg, recorder, logger)
	r.closeFn = conn.Close
	return r, nil
}

const natsBreaker = "nats-reports"

// NewNATSReporter wraps an arbitrary publisher.
func NewNATSReporter(pub Publisher, cfg NATSConfig, recorder metrics.Recorder, logger *slog.Logger) *NATSReporter {
	if cfg.SubjectPrefix == "" {
		cfg.SubjectPrefix = "csmon.reports"
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Second
	}
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	r := &NATSReporter{
		pub:      pub,
		prefix:   cfg.SubjectPrefix,
		timeout:  cfg.Timeout,
		queue:    make(chan Event, cfg.QueueSize),
		recorder: recorder,
		logger:   logger,
	}
	r.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        natsBreaker,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Report publisher circuit changed state",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				logfields.State(to.String()))
			recorder.SetBreakerState(name, to.String())
		},
	})
	recorder.SetBreakerState(natsBreaker, gobreaker.StateClosed.String())
	return r
}

// Report enqueues ev, dropping it when the queue is full.
func (r *NATSReporter) Report(_ context.Context, ev Event) {
	select {
	case r.queue <- ev:
	default:
		r.recorder.IncReportDropped("nats")
	}
}

// Run publishes queued events until ctx is done.
func (r *NATSReporter) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-r.queue:
			if err := r.publish(ctx, ev); err != nil {
				r.recorder.IncReportDropped("nats")
				r.logger.Debug("Report publish failed",
					logfields.ReportID(ev.Header().ID),
					logfields.Error(err))
			}
		}
	}
}

// Subject returns the subject ev is published on.
func (r *NATSReporter) Subject(ev Event) string {
	return r.prefix + "." + string(ev.Kind())
}

func (r *NATSReporter) publish(ctx context.Context, ev Event) error {
	data, err := json.Marshal(envelope{Kind: ev.Kind(), Event: ev})
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	_, err = r.breaker.Execute(func() (interface{}, error) {
		pctx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()
		return nil, r.pub.Publish(pctx, r.Subject(ev), data)
	})
	return err
}

// Close releases the NATS connection when the reporter owns one.
func (r *NATSReporter) Close() {
	if r.closeFn != nil {
		r.closeFn()
	}
}

type envelope struct {
	Kind  Kind  `json:"kind"`
	Event Event `json:"event"`
}
