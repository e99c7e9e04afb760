// Package objcache persists the client object store between runs so a
// session can show the last known tree before the first sync completes.
// Objects are stored as JSON, one record per object.
package objcache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fbuehrmann/netxms/pkg/objects"
)

// Cache loads and saves a snapshot of the object store.
type Cache interface {
	Load(ctx context.Context) ([]*objects.Object, error)
	Save(ctx context.Context, objs []*objects.Object) error
	Close() error
}

// Backends accepted by Config.Backend.
const (
	BackendNone     = "none"
	BackendEtcd     = "etcd"
	BackendPostgres = "postgres"
)

// Config selects and configures a cache backend.
type Config struct {
	Backend       string
	EtcdEndpoints []string
	PostgresDSN   string
	DialTimeout   time.Duration
}

// NewFromConfig opens the configured backend. It returns a nil Cache for
// the "none" backend or an empty one.
func NewFromConfig(ctx context.Context, cfg Config) (Cache, error) {
	switch cfg.Backend {
	case "", BackendNone:
		return nil, nil
	case BackendEtcd:
		if len(cfg.EtcdEndpoints) == 0 {
			return nil, fmt.Errorf("objcache: etcd backend needs at least one endpoint")
		}
		return NewEtcd(cfg.EtcdEndpoints, cfg.DialTimeout)
	case BackendPostgres:
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("objcache: postgres backend needs a DSN")
		}
		return NewPostgres(ctx, cfg.PostgresDSN)
	}
	return nil, fmt.Errorf("objcache: unknown backend %q", cfg.Backend)
}

func encodeObject(o *objects.Object) ([]byte, error) {
	data, err := json.Marshal(o)
	if err != nil {
		return nil, fmt.Errorf("marshal object %d: %w", o.ID, err)
	}
	return data, nil
}

func decodeObject(key string, data []byte) (*objects.Object, error) {
	var o objects.Object
	if err := json.Unmarshal(data, &o); err != nil {
		return nil, fmt.Errorf("unmarshal %q: %w", key, err)
	}
	return &o, nil
}
