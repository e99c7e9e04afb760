package objcache

import (
	"context"
	"fmt"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fbuehrmann/netxms/pkg/objects"
)

// All cache keys live under keyPrefix. Ids are zero padded so that etcd's
// lexical key order is numeric order.
const (
	keyPrefix  = "/nxctl/v1/objects/"
	maxTxnOps  = 64
	etcdDialTO = 5 * time.Second
)

func objectKey(id uint64) string {
	return fmt.Sprintf("%s%020d", keyPrefix, id)
}

// EtcdCache keeps the object snapshot in etcd.
type EtcdCache struct {
	client *clientv3.Client
}

// NewEtcd dials the etcd cluster at endpoints. The caller must call Close.
func NewEtcd(endpoints []string, dialTimeout time.Duration) (*EtcdCache, error) {
	if dialTimeout <= 0 {
		dialTimeout = etcdDialTO
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(zapcore.ErrorLevel)
	zl, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("objcache: etcd logger: %w", err)
	}
	client, err := clientv3.New(clientv3.Config{
		Endpoints:   endpoints,
		DialTimeout: dialTimeout,
		Logger:      zl,
	})
	if err != nil {
		return nil, fmt.Errorf("objcache: etcd dial: %w", err)
	}
	return &EtcdCache{client: client}, nil
}

// Load returns the saved objects ordered by id.
func (c *EtcdCache) Load(ctx context.Context) ([]*objects.Object, error) {
	resp, err := c.client.Get(ctx, keyPrefix, clientv3.WithPrefix(), clientv3.WithSort(clientv3.SortByKey, clientv3.SortAscend))
	if err != nil {
		return nil, fmt.Errorf("objcache: etcd list %q: %w", keyPrefix, err)
	}
	out := make([]*objects.Object, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		o, err := decodeObject(string(kv.Key), kv.Value)
		if err != nil {
			return nil, fmt.Errorf("objcache: %w", err)
		}
		out = append(out, o)
	}
	return out, nil
}

// Save replaces the stored snapshot with objs. The old snapshot is deleted
// in the first transaction; puts follow in batches of at most maxTxnOps.
func (c *EtcdCache) Save(ctx context.Context, objs []*objects.Object) error {
	ops := make([]clientv3.Op, 0, len(objs)+1)
	ops = append(ops, clientv3.OpDelete(keyPrefix, clientv3.WithPrefix()))
	for _, o := range objs {
		data, err := encodeObject(o)
		if err != nil {
			return fmt.Errorf("objcache: %w", err)
		}
		ops = append(ops, clientv3.OpPut(objectKey(o.ID), string(data)))
	}

	for start := 0; start < len(ops); start += maxTxnOps {
		end := min(start+maxTxnOps, len(ops))
		if _, err := c.client.Txn(ctx).Then(ops[start:end]...).Commit(); err != nil {
			return fmt.Errorf("objcache: etcd txn: %w", err)
		}
	}
	return nil
}

// Close releases the etcd client.
func (c *EtcdCache) Close() error {
	return c.client.Close()
}
