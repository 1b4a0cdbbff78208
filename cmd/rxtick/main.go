// Command rxtick observes a timer publisher for a fixed window and logs the
// ticks it receives.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/7vars/rxkit"
	"github.com/7vars/rxkit/rx"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "rxtick",
		Short:         "Subscribe to a timer publisher and log its ticks",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf := rxkit.DefaultConfig()
			rxkit.ConfigureLogging(conf)
			return run(cmd.Context(), rxkit.LoadSettings(conf), rxkit.NewLogger())
		},
	}

	flags := cmd.Flags()
	flags.Duration("interval", time.Second, "tick interval")
	flags.Duration("observe", 3400*time.Millisecond, "how long to observe the timer")
	flags.String("mode", string(rxkit.ModeAutoconnect), "autoconnect or connect")
	flags.Duration("connect-delay", time.Second, "delay before connecting in connect mode")
	flags.Int("every", 1, "log only every nth tick")
	flags.String("metrics-addr", "", "serve prometheus metrics on this address")
	flags.String("log-level", "INFO", "DEBUG, INFO, WARN or ERROR")
	flags.String("log-format", "text", "text or json")

	bind := map[string]string{
		rxkit.KeyTimerInterval:     "interval",
		rxkit.KeyTimerObserve:      "observe",
		rxkit.KeyTimerMode:         "mode",
		rxkit.KeyTimerConnectDelay: "connect-delay",
		rxkit.KeyTimerEvery:        "every",
		rxkit.KeyMetricsAddr:       "metrics-addr",
		rxkit.KeyLogLevel:          "log-level",
		rxkit.KeyLogFormatter:      "log-format",
	}
	for key, name := range bind {
		if err := viper.BindPFlag(key, flags.Lookup(name)); err != nil {
			panic(err)
		}
	}
	return cmd
}

func run(ctx context.Context, s rxkit.Settings, log rxkit.Logger) error {
	if s.Every < 1 {
		return fmt.Errorf("every must be at least 1, got %d", s.Every)
	}

	reg := prometheus.NewRegistry()
	metrics := rxkit.NewMetrics(reg)

	timer, err := rx.NewTimerPublisher(s.Interval,
		rx.WithLogger(log),
		rx.WithMetrics(metrics),
	)
	if err != nil {
		return err
	}

	var source rx.Publisher[time.Time] = timer
	if s.Mode == rxkit.ModeAutoconnect {
		source = timer.Autoconnect()
	}

	var seen int
	every := rx.Filter(source, func(time.Time) bool {
		seen++
		return seen%s.Every == 0
	}, rx.WithStageName("every"), rx.WithStageLogger(log), rx.WithStageMetrics(metrics))

	var received atomic.Int64
	start := time.Now()
	sink, err := rx.ForEach(every, func(ts time.Time) {
		n := received.Add(1)
		log.WithField("tick", n).Infof("received tick at %s (+%s)", ts.Format(time.RFC3339Nano), ts.Sub(start).Round(time.Millisecond))
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.Observe)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-ctx.Done()
		sink.Cancel()
		return nil
	})

	if s.Mode == rxkit.ModeConnect {
		g.Go(func() error {
			return connectAfter(ctx, timer, s.ConnectDelay, log)
		})
	}

	if s.MetricsAddr != "" {
		srv := &http.Server{
			Addr:              s.MetricsAddr,
			Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			log.Infof("serving metrics on %s", s.MetricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	err = g.Wait()
	log.WithField("mode", string(s.Mode)).Infof("received %d ticks in %s", received.Load(), s.Observe)
	return err
}

func connectAfter(ctx context.Context, timer *rx.TimerPublisher, delay time.Duration, log rxkit.Logger) error {
	select {
	case <-ctx.Done():
		return nil
	case <-time.After(delay):
	}

	conn, err := timer.Connect()
	if err != nil {
		return err
	}
	log.Infof("connected after %s", delay)
	<-ctx.Done()
	conn.Cancel()
	return nil
}
