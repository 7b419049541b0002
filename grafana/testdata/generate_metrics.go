// Package main generates sample deskd metrics for testing Grafana
// dashboards without running the real daemon.
package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics for testing dashboards. Names, labels, and buckets mirror the
// instruments the daemon registers in internal/pipeline, internal/http,
// and internal/embeddings, as rendered by the Prometheus exporter.
var (
	// Pipeline metrics
	pipelineRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deskd_pipeline_requests_total",
			Help: "Completed pipeline requests by outcome and fallback flag",
		},
		[]string{"outcome", "fallback"},
	)
	pipelineRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "deskd_pipeline_request_duration_seconds",
			Help:    "End-to-end pipeline duration",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0},
		},
		[]string{"outcome"},
	)
	pipelineStageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "deskd_pipeline_stage_duration_seconds",
			Help:    "Per-stage pipeline duration",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
		},
		[]string{"stage"},
	)
	pipelineDepartments = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "deskd_pipeline_departments_per_request",
			Help:    "Departments consulted per answered request",
			Buckets: []float64{1, 2, 3, 4, 5},
		},
	)
	pipelineEmptyRetrievals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deskd_pipeline_empty_retrievals_total",
			Help: "Department retrievals that found no policy entries",
		},
		[]string{"department"},
	)

	// HTTP server metrics
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deskd_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "deskd_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0},
		},
		[]string{"method", "endpoint", "status"},
	)
	httpResponseSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "deskd_http_response_size_bytes",
			Help:    "HTTP response body size",
			Buckets: []float64{100, 500, 1000, 5000, 10000, 50000, 100000, 500000},
		},
		[]string{"method", "endpoint", "status"},
	)
	httpActiveRequests = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "deskd_http_active_requests",
			Help: "Number of currently active HTTP requests",
		},
	)

	// Embedding metrics
	embeddingDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "deskd_embedding_generation_duration_seconds",
			Help:    "Embedding generation duration",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		},
		[]string{"model", "operation"},
	)
	embeddingBatchSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "deskd_embedding_batch_size",
			Help:    "Texts per embedding batch request",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250, 500},
		},
		[]string{"model", "operation"},
	)
	embeddingErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deskd_embedding_errors_total",
			Help: "Total embedding generation errors",
		},
		[]string{"model", "operation"},
	)
)

func init() {
	// Register all metrics
	prometheus.MustRegister(
		// Pipeline
		pipelineRequests,
		pipelineRequestDuration,
		pipelineStageDuration,
		pipelineDepartments,
		pipelineEmptyRetrievals,
		// HTTP
		httpRequestsTotal,
		httpRequestDuration,
		httpResponseSize,
		httpActiveRequests,
		// Embeddings
		embeddingDuration,
		embeddingBatchSize,
		embeddingErrors,
	)
}

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "9090"
	}

	// Generate initial sample data
	generateSampleData()

	// Start background goroutine to continuously generate data
	ctx, cancel := context.WithCancel(context.Background())
	go generateContinuousData(ctx)

	// Serve metrics
	http.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:    ":" + port,
		Handler: nil,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		cancel()
		server.Shutdown(context.Background())
	}()

	fmt.Printf("Sample metrics server running on http://localhost:%s/metrics\n", port)
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println("\nTo use with Prometheus, add this to prometheus.yml:")
	fmt.Printf("  - job_name: 'deskd-test'\n    static_configs:\n      - targets: ['localhost:%s']\n", port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatal(err)
	}
}

var (
	departments = []string{"hr", "engineering", "sales", "finance", "support"}
	stages      = []string{"route", "execute", "merge"}
	endpoints   = []string{"/api/v1/query", "/api/v1/route", "/health"}
	statuses    = []string{"200", "200", "200", "200", "400", "502"}
	models      = []string{"BAAI/bge-small-en-v1.5"}
	operations  = []string{"embed_documents", "embed_query"}
)

func generateSampleData() {
	// Answered pipeline requests, mostly routed, a few broadcast
	for i := 0; i < 200; i++ {
		fallback := rand.Float64() > 0.85
		outcome := "ok"
		if rand.Float64() > 0.95 {
			outcome = "error"
		}

		pipelineRequests.WithLabelValues(outcome, boolLabel(fallback)).Inc()
		pipelineRequestDuration.WithLabelValues(outcome).Observe(0.5 + rand.Float64()*8.0)

		if outcome == "ok" {
			if fallback {
				pipelineDepartments.Observe(float64(len(departments)))
			} else {
				pipelineDepartments.Observe(float64(rand.Intn(3) + 1))
			}
		}

		pipelineStageDuration.WithLabelValues("route").Observe(0.2 + rand.Float64()*1.5)
		pipelineStageDuration.WithLabelValues("execute").Observe(0.5 + rand.Float64()*6.0)
		pipelineStageDuration.WithLabelValues("merge").Observe(0.2 + rand.Float64()*1.5)
	}

	// Departments with thin handbook coverage retrieve nothing more often
	for i := 0; i < 30; i++ {
		pipelineEmptyRetrievals.WithLabelValues(randomChoice([]string{"engineering", "sales", "sales"})).Inc()
	}

	// HTTP traffic across the three endpoints
	for i := 0; i < 400; i++ {
		endpoint := randomChoice(endpoints)
		method := "POST"
		if endpoint == "/health" {
			method = "GET"
		}
		status := randomChoice(statuses)

		httpRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
		if endpoint == "/health" {
			httpRequestDuration.WithLabelValues(method, endpoint, status).Observe(rand.Float64() * 0.01)
			httpResponseSize.WithLabelValues(method, endpoint, status).Observe(float64(rand.Intn(100) + 80))
		} else {
			httpRequestDuration.WithLabelValues(method, endpoint, status).Observe(0.3 + rand.Float64()*8.0)
			httpResponseSize.WithLabelValues(method, endpoint, status).Observe(float64(rand.Intn(2000) + 200))
		}
	}

	// Embedding activity: large batches at ingest, single queries at search
	for i := 0; i < 20; i++ {
		embeddingDuration.WithLabelValues(models[0], "embed_documents").Observe(0.1 + rand.Float64()*2.0)
		embeddingBatchSize.WithLabelValues(models[0], "embed_documents").Observe(float64(rand.Intn(100) + 10))
	}
	for i := 0; i < 300; i++ {
		embeddingDuration.WithLabelValues(models[0], "embed_query").Observe(0.005 + rand.Float64()*0.05)
		embeddingBatchSize.WithLabelValues(models[0], "embed_query").Observe(1)
	}
	for i := 0; i < 3; i++ {
		embeddingErrors.WithLabelValues(models[0], randomChoice(operations)).Inc()
	}

	httpActiveRequests.Set(float64(rand.Intn(4)))
}

func generateContinuousData(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// A question arrives most ticks
			if rand.Float64() > 0.3 {
				fallback := rand.Float64() > 0.85
				outcome := "ok"
				if rand.Float64() > 0.95 {
					outcome = "error"
				}
				duration := 0.5 + rand.Float64()*8.0

				pipelineRequests.WithLabelValues(outcome, boolLabel(fallback)).Inc()
				pipelineRequestDuration.WithLabelValues(outcome).Observe(duration)
				pipelineStageDuration.WithLabelValues(randomChoice(stages)).Observe(rand.Float64() * 3.0)
				if outcome == "ok" {
					if fallback {
						pipelineDepartments.Observe(float64(len(departments)))
					} else {
						pipelineDepartments.Observe(float64(rand.Intn(3) + 1))
					}
				}

				status := "200"
				if outcome == "error" {
					status = "502"
				}
				httpRequestsTotal.WithLabelValues("POST", "/api/v1/query", status).Inc()
				httpRequestDuration.WithLabelValues("POST", "/api/v1/query", status).Observe(duration)
				httpResponseSize.WithLabelValues("POST", "/api/v1/query", status).Observe(float64(rand.Intn(2000) + 200))

				// One query embedding per consulted department
				embeddingDuration.WithLabelValues(models[0], "embed_query").Observe(0.005 + rand.Float64()*0.05)
				embeddingBatchSize.WithLabelValues(models[0], "embed_query").Observe(1)
			}

			// Occasional empty retrieval from a thin department
			if rand.Float64() > 0.8 {
				pipelineEmptyRetrievals.WithLabelValues(randomChoice(departments)).Inc()
			}

			// Health checks tick along steadily
			if rand.Float64() > 0.5 {
				httpRequestsTotal.WithLabelValues("GET", "/health", "200").Inc()
				httpRequestDuration.WithLabelValues("GET", "/health", "200").Observe(rand.Float64() * 0.01)
				httpResponseSize.WithLabelValues("GET", "/health", "200").Observe(float64(rand.Intn(100) + 80))
			}

			httpActiveRequests.Set(float64(rand.Intn(4)))
		}
	}
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func randomChoice(choices []string) string {
	return choices[rand.Intn(len(choices))]
}
