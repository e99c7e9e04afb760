package cli

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fbuehrmann/netxms/pkg/apiserver"
	"github.com/fbuehrmann/netxms/pkg/objects"
	"github.com/fbuehrmann/netxms/pkg/session"
	"github.com/fbuehrmann/netxms/pkg/transport"
)

// eventView is one streamed change.
type eventView struct {
	Kind  string        `json:"kind" yaml:"kind"`
	ID    uint64        `json:"id" yaml:"id"`
	Name  string        `json:"name,omitempty" yaml:"name,omitempty"`
	Class objects.Class `json:"class" yaml:"class"`
}

func newEventView(ev objects.Event) eventView {
	v := eventView{Kind: ev.Kind.String(), ID: ev.ObjectID}
	if ev.Object != nil {
		v.Name = ev.Object.Name
		v.Class = ev.Object.Class
	}
	return v
}

// eventPrinter serializes writes from the store's delivery goroutine.
type eventPrinter struct {
	mu  sync.Mutex
	w   io.Writer
	app *app
}

func (p *eventPrinter) print(ev objects.Event) {
	v := newEventView(ev)
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.app.isTable() {
		fmt.Fprintf(p.w, "%-8s %-8d %s\n", v.Kind, v.ID, v.Name)
		return
	}
	fmt.Fprint(p.w, p.app.formatter.Format(v))
}

func (a *app) newWatchCmd() *cobra.Command {
	var metricsAddr string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream object changes until interrupted",
		Long: `watch keeps a session open and prints every object change the server
pushes. With --metrics-addr it also serves health probes, Prometheus
metrics and a read-only object API.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if metricsAddr == "" {
				metricsAddr = a.cfg.MetricsAddr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			stateChanged := func(st transport.State, err error) {
				if err != nil {
					a.log.Warningf("connection %s: %v", st, err)
					return
				}
				a.log.Infof("connection %s", st)
			}
			s, err := a.connect(ctx, session.WithStateHandler(stateChanged))
			if err != nil {
				return err
			}
			defer a.disconnect(s)

			p := &eventPrinter{w: cmd.OutOrStdout(), app: a}
			cancel := s.Subscribe(p.print)
			defer cancel()

			if metricsAddr != "" {
				ln, err := net.Listen("tcp", metricsAddr)
				if err != nil {
					return fmt.Errorf("metrics listener: %w", err)
				}
				srv := apiserver.New(metricsAddr, s, a.log)
				go func() {
					if err := srv.Serve(ln); err != nil {
						a.log.Errorf("api server: %v", err)
					}
				}()
				defer func() {
					sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer scancel()
					_ = srv.Shutdown(sctx)
				}()
			}

			a.log.Infof("watching %d objects on %s", s.Store().Len(), a.cfg.Server)
			<-ctx.Done()
			return nil
		},
	}
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve /healthz, /readyz, /metrics and /api/v1 on this address")
	return cmd
}
