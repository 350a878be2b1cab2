package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	vfs "github.com/twpayne/go-vfs"

	"dpu-platform/pkg"
	"dpu-platform/pkg/monitor"
)

var watchMetricsAddr string

var watchCmd = &cobra.Command{
	Use:   "watch [module...]",
	Short: "Watch DPU module presence and export it as Prometheus metrics",
	Long: `Watch the PCI device tree for DPU modules appearing and disappearing.

Presence and the transition recorded in the state database are exported on
/metrics as dpu_pci_present and dpu_pci_transition. The command only
observes; it never removes or rescans a module.

Examples:
  dpuctl watch                          # All modules, metrics on the configured address
  dpuctl watch DPU0 --metrics-addr :9200`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVar(&watchMetricsAddr, "metrics-addr", "", "Metrics listen address (overrides config)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	factory := newModuleFactory(cfg, vfs.OSFS)
	defer factory.Close()

	mods, err := factory.modules(args)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	mon, err := monitor.New(vfs.OSFS, mods, monitor.Options{
		DevicesRoot: cfg.Sysfs.DevicesRoot,
		Debounce:    cfg.Monitor.Debounce,
		Registerer:  registry,
	})
	if err != nil {
		return err
	}

	addr := cfg.Monitor.MetricsAddr
	if watchMetricsAddr != "" {
		addr = watchMetricsAddr
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		pkg.WithField("addr", addr).Info("Serving metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			pkg.WithError(err).Error("metrics server failed")
			stop()
		}
	}()

	err = mon.Run(ctx)

	pkg.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		pkg.WithError(shutdownErr).Warn("metrics server shutdown failed")
	}
	return err
}
