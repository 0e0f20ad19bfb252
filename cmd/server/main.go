// cmd/server/main.go
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"golang.org/x/time/rate"

	_ "github.com/lib/pq"

	"matekasse/internal/config"
	"matekasse/internal/inventory"
	"matekasse/internal/store"
)

func main() {
	ctx := context.Background()

	cfg := config.Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			log.Printf("Failed to load config: %v (using defaults)", err)
		} else {
			cfg = loaded
		}
	}

	vocab := inventory.VocabGeneric
	if cfg.Vocabulary == "bottles" {
		vocab = inventory.VocabBottles
	}

	shutdownTracing, err := setupTracing(ctx)
	if err != nil {
		log.Fatalf("Failed to set up tracing: %v", err)
	}
	defer shutdownTracing(ctx)

	var st inventory.Store
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		db, err := sql.Open("postgres", dbURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		pg := store.NewPostgresStore(db, vocab)
		if err := pg.EnsureSchema(ctx); err != nil {
			log.Fatalf("Failed to prepare database: %v", err)
		}
		st = pg
	} else {
		st = store.NewFileStore(getEnv("DATA_FILE", "inventory_data.json"), vocab)
	}

	svc := inventory.NewService(st, cfg.Defaults.InitialStock)
	handler := inventory.NewHandler(svc, vocab, cfg.Defaults.LowStockThreshold)

	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	limiter := rate.NewLimiter(rate.Limit(50), 100)
	router.Route("/api", func(r chi.Router) {
		r.Get("/state", handler.HandleState)
		r.Get("/report", handler.HandleReport)
		r.Get("/config", cfg.HandleGet)

		r.Group(func(r chi.Router) {
			r.Use(inventory.Throttle(limiter))
			r.Post("/users", handler.HandleAddUser)
			r.Delete("/users/{id}", handler.HandleRemoveUser)
			r.Post("/items", handler.HandleAddItem)
			r.Delete("/items/{id}", handler.HandleRemoveItem)
			r.Put("/items/{id}/stock", handler.HandleUpdateStock)
			r.Post("/consumption", handler.HandleRecordConsumption)
			r.Post("/payments", handler.HandleRecordPayment)
		})
	})

	if dir := os.Getenv("STATIC_DIR"); dir != "" {
		router.Handle("/*", http.FileServer(http.Dir(dir)))
	}

	port := getEnv("PORT", "3000")
	fmt.Printf("%s Starting %s on port %s\n", cfg.AppEmoji, cfg.AppName, port)
	log.Fatal(http.ListenAndServe(":"+port, router))
}

// setupTracing wires the OTLP/HTTP exporter when an endpoint is
// configured; otherwise tracing stays a no-op.
func setupTracing(ctx context.Context) (func(context.Context) error, error) {
	if os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") == "" {
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := otlptracehttp.New(ctx)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(sdkresource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName("matekasse"),
		)),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
