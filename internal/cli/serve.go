// serve.go implements the "cutover serve" command: the HTTP sessions API.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/berth-dev/cutover/internal/metrics"
	"github.com/berth-dev/cutover/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the simulation over HTTP",
	Long: `Run the sessions API. Each session accepts one message at a time;
different sessions run in parallel. Prometheus metrics are exposed on
/metrics and finished sessions are archived.`,
	RunE: runServe,
}

var (
	addrFlag        string
	traceStdoutFlag bool
)

func init() {
	serveCmd.Flags().StringVar(&addrFlag, "addr", "", "Listen address (default from config)")
	serveCmd.Flags().BoolVar(&traceStdoutFlag, "trace-stdout", false, "Print OpenTelemetry spans to stdout")
	serveCmd.Flags().BoolVar(&offlineFlag, "offline", false, "Serve without a model (keyword extraction, profile replies)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	proj, err := loadProject()
	if err != nil {
		return err
	}

	if traceStdoutFlag || proj.cfg.Telemetry.TraceStdout {
		shutdown, err := initTracer(cmd.OutOrStdout())
		if err != nil {
			return fmt.Errorf("setting up tracing: %w", err)
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(sctx); err != nil {
				proj.logger.Error("flushing spans failed", "error", err)
			}
		}()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	ctrl, err := proj.newController(offlineFlag, metrics.New(reg))
	if err != nil {
		return err
	}

	opts := server.Options{Controller: ctrl, Gatherer: reg, Logger: proj.logger}
	store, err := proj.openArchive()
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
		opts.Archive = store
	}

	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}

	addr := proj.cfg.Server.Addr
	if addrFlag != "" {
		addr = addrFlag
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           server.New(opts).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		proj.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()
	fmt.Fprintf(cmd.ErrOrStderr(), "cutover serving on %s\n", addr)

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

// initTracer installs an SDK tracer provider that prints spans to w.
func initTracer(w io.Writer) (func(context.Context) error, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", "cutover"))),
		sdktrace.WithBatcher(exporter),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	return tp.Shutdown, nil
}
