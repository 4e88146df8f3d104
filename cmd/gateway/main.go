// Command gateway is a minimal runnable wiring of the transformation
// pipeline over a single reverse-proxied upstream, in the spirit of the
// teacher's own sample blueprint apps.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"os"

	"github.com/spf13/viper"

	"github.com/reqrep/transform/catalog"
	"github.com/reqrep/transform/config"
	"github.com/reqrep/transform/host"
	"github.com/reqrep/transform/host/nethttp"
	"github.com/reqrep/transform/internal/server"
	"github.com/reqrep/transform/internal/telemetry"
	"github.com/reqrep/transform/messagecontext"
	"github.com/reqrep/transform/payload"
	"github.com/reqrep/transform/pipeline"
	"github.com/reqrep/transform/provider"
	"github.com/reqrep/transform/provider/memstore"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	v := viper.New()
	v.SetEnvPrefix("REQREP")
	v.AutomaticEnv()
	opts, err := config.Load(v)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	upstream, err := url.Parse(envOr("UPSTREAM_URL", "http://localhost:9000"))
	if err != nil {
		logger.Error("invalid upstream url", "error", err)
		os.Exit(1)
	}

	store := memstore.New(
		provider.RouteEntry{
			Method: "*", PathPattern: "/{id}", Side: "request", Order: 1,
			TransformName: "correlation-id",
		},
		provider.RouteEntry{
			Method: "*", PathPattern: "/{id}", Side: "response", Order: 1,
			TransformName: "gateway-response-tag",
		},
	)

	registry := catalog.NewRegistry()
	builder := provider.NewBuilder(registry, func(entry provider.RouteEntry, err error) {
		logger.Warn("skipping unresolvable route entry", "transform", entry.TransformName, "error", err)
	})
	detailProvider := provider.NewDetailProvider(store, builder, opts.PlanCacheTTL)

	tel, err := telemetry.New(telemetry.Options{ServiceName: "reqrep-gateway"})
	if err != nil {
		logger.Error("failed to initialize telemetry", "error", err)
		os.Exit(1)
	}
	executor := pipeline.New(registry, tel, logger, opts.DefaultTimeout, opts.DefaultFailureMode)

	proxy := nethttp.NewReverseProxy(upstream)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		detail, err := detailProvider.Resolve(r.Context(), r.Method, r.URL.Path)
		if err != nil {
			logger.Error("failed to resolve transformation plan", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		mc := messagecontext.New(r.Context(), messagecontext.Request, r.Method, r.URL, r.Header,
			payload.New(r.Header.Get("Content-Type"), nil, r.Body))

		if err := executor.RunRequest(r.Context(), mc, detail); err != nil {
			http.Error(w, host.GatewayErrorMessage("request", transformNameOf(err)), http.StatusBadGateway)
			return
		}
		r.Method = mc.Method()

		proxy.ServeHTTP(w, r)
	})

	app := server.New(handler,
		server.WithLogger(logger),
		server.WithShutdownTimeout(opts.DefaultTimeout),
	)

	addr := envOr("LISTEN_ADDR", ":8080")
	logger.Info("starting gateway", "addr", addr, "upstream", upstream.String())
	if err := app.Listen(context.Background(), addr); err != nil {
		logger.Error("gateway exited with error", "error", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// transformNameOf extracts the failing transform's name for the fixed
// gateway error message format, falling back to "unknown" for errors
// that did not originate from a specific transform.
func transformNameOf(err error) string {
	var failure *pipeline.TransformationFailure
	if ok := asTransformationFailure(err, &failure); ok {
		return failure.Transform
	}
	return "unknown"
}

func asTransformationFailure(err error, target **pipeline.TransformationFailure) bool {
	if tf, ok := err.(*pipeline.TransformationFailure); ok {
		*target = tf
		return true
	}
	return false
}
