package persist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"git.home.luguber.info/inful/csmon/internal/logfields"
)

// KVConfig configures the JetStream key/value backend.
type KVConfig struct {
	URL    string
	Bucket string
}

// KVBackend stores buffers in a NATS JetStream key/value bucket.
type KVBackend struct {
	conn *nats.Conn
	kv   jetstream.KeyValue
}

// NewKVBackend connects to NATS and opens, or creates, the bucket.
func NewKVBackend(ctx context.Context, cfg KVConfig) (*KVBackend, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("kv bucket is required")
	}

	conn, err := nats.Connect(cfg.URL, nats.Timeout(2*time.Second))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	kv, err := js.KeyValue(ctx, cfg.Bucket)
	if err != nil {
		kv, err = js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
			Bucket:      cfg.Bucket,
			Description: "csmon persistent enable state",
			History:     1,
		})
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to create KV bucket: %w", err)
		}
		slog.Info("Created KV bucket for persistent state", slog.String("bucket", cfg.Bucket))
	}

	slog.Info("NATS persistence backend initialized",
		slog.String("url", cfg.URL),
		logfields.Backend("nats_kv"))

	return &KVBackend{conn: conn, kv: kv}, nil
}

func (b *KVBackend) Name() string { return "nats_kv" }

func (b *KVBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	entry, err := b.kv.Get(ctx, key)
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get state entry: %w", err)
	}
	return entry.Value(), true, nil
}

func (b *KVBackend) Set(ctx context.Context, key string, buf []byte) error {
	if _, err := b.kv.Put(ctx, key, buf); err != nil {
		return fmt.Errorf("failed to put state entry: %w", err)
	}
	return nil
}

// Close closes the NATS connection.
func (b *KVBackend) Close() error {
	if b.conn != nil {
		b.conn.Close()
	}
	return nil
}
