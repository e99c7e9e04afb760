package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/fbuehrmann/netxms/pkg/objcache"
	"github.com/fbuehrmann/netxms/pkg/session"
)

const defaultConnectTimeout = 10 * time.Second

// connect opens a session to the configured server and loads the full
// object tree. The caller stops the session.
func (a *app) connect(ctx context.Context, extra ...session.Option) (*session.Session, error) {
	cache, err := objcache.NewFromConfig(ctx, a.cfg.CacheConfig())
	if err != nil {
		return nil, err
	}
	opts := []session.Option{
		session.WithLogger(a.log),
		session.WithTransportConfig(a.cfg.TransportConfig()),
		session.WithCodec(a.cfg.ProtocolCodec()),
		session.WithDialTimeout(a.cfg.Transport.DialTimeout),
	}
	if cache != nil {
		opts = append(opts, session.WithCache(cache))
	}
	opts = append(opts, extra...)

	s, err := session.Dial(a.cfg.Server, opts...)
	if err != nil {
		if cache != nil {
			_ = cache.Close()
		}
		return nil, err
	}
	if err := s.Start(ctx); err != nil {
		_ = s.Stop(context.Background())
		return nil, err
	}

	timeout := a.cfg.Transport.DialTimeout * 2
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}
	wctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := s.WaitConnected(wctx); err != nil {
		_ = s.Stop(context.Background())
		return nil, fmt.Errorf("connect to %s: %w", a.cfg.Server, err)
	}

	n, err := s.SyncObjects(wctx)
	if err != nil {
		_ = s.Stop(context.Background())
		return nil, fmt.Errorf("synchronize objects: %w", err)
	}
	a.log.Debugf("synchronized %d objects from %s", n, a.cfg.Server)
	return s, nil
}

// disconnect stops s, logging instead of failing on error.
func (a *app) disconnect(s *session.Session) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		a.log.Warningf("stop session: %v", err)
	}
}
