package handlers

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/christian-hnz/functime/pkg/jobs"
)

// Build information - can be set at build time using ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// HealthHandler handles health check requests
type HealthHandler struct {
	store *jobs.Store
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(store *jobs.Store) *HealthHandler {
	return &HealthHandler{
		store: store,
	}
}

// HealthCheck handles GET /health - basic liveness check
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "functime",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   Version,
	})
}

// ReadinessCheck handles GET /ready
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	response := gin.H{
		"status":    "ready",
		"service":   "functime",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    gin.H{},
	}

	allHealthy := true
	checks := response["checks"].(gin.H)

	// Check the job store by probing for a key that never exists
	if h.store != nil {
		storeStartTime := time.Now()
		_, err := h.store.Exists(ctx, "health-check-probe")
		storeDuration := time.Since(storeStartTime)

		if err != nil {
			checks["job_store"] = gin.H{
				"status":   "unhealthy",
				"error":    err.Error(),
				"duration": storeDuration.String(),
			}
			allHealthy = false
		} else {
			checks["job_store"] = gin.H{
				"status":   "healthy",
				"duration": storeDuration.String(),
			}
		}
	} else {
		checks["job_store"] = gin.H{
			"status": "unhealthy",
			"error":  "job store not initialized",
		}
		allHealthy = false
	}

	checks["system"] = gin.H{
		"status":     "healthy",
		"goroutines": runtime.NumGoroutine(),
	}

	// Set overall status based on all checks
	if !allHealthy {
		response["status"] = "not_ready"
		c.JSON(http.StatusServiceUnavailable, response)
		return
	}

	c.JSON(http.StatusOK, response)
}

// LivenessCheck handles GET /live - Kubernetes liveness probe endpoint
func (h *HealthHandler) LivenessCheck(c *gin.Context) {
	// Simple liveness check - just confirm the service is running
	c.JSON(http.StatusOK, gin.H{
		"status":    "alive",
		"service":   "functime",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// DetailedHealthCheck handles GET /health/detailed - comprehensive health information
func (h *HealthHandler) DetailedHealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	startTime := time.Now()
	response := gin.H{
		"status":  "healthy",
		"service": "functime",
		"version": Version,
		"build_info": gin.H{
			"git_commit": GitCommit,
			"build_time": BuildTime,
		},
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"environment": gin.H{
			"go_version": GoVersion,
		},
		"checks": gin.H{},
		"metrics": gin.H{
			"response_time_ms": 0, // Will be set at the end
		},
	}

	allHealthy := true
	checks := response["checks"].(gin.H)

	if h.store != nil {
		// Job store connectivity check
		storeStartTime := time.Now()
		_, err := h.store.Exists(ctx, "health-check-detailed")
		storeDuration := time.Since(storeStartTime)

		storeStatus := gin.H{
			"status":      "healthy",
			"duration_ms": storeDuration.Milliseconds(),
			"operation":   "Exists",
		}

		if err != nil {
			storeStatus["status"] = "unhealthy"
			storeStatus["error"] = err.Error()
			allHealthy = false
		}

		checks["job_store"] = storeStatus

		// Job listing check, verifies the store can iterate its records
		listStartTime := time.Now()
		records, listErr := h.store.List(ctx)
		listDuration := time.Since(listStartTime)

		listStatus := gin.H{
			"status":      "healthy",
			"duration_ms": listDuration.Milliseconds(),
			"operation":   "List",
		}

		if listErr != nil {
			listStatus["status"] = "unhealthy"
			listStatus["error"] = listErr.Error()
			allHealthy = false
		} else {
			listStatus["jobs"] = len(records)
		}

		checks["job_listing"] = listStatus
	} else {
		checks["job_store"] = gin.H{
			"status": "unhealthy",
			"error":  "job store not initialized",
		}
		allHealthy = false
	}

	// Add system health metrics
	systemMetrics := h.getSystemMetrics()
	checks["system"] = gin.H{
		"status":       "healthy",
		"memory_usage": systemMetrics.MemoryUsage,
		"goroutines":   systemMetrics.Goroutines,
		"gc_cycles":    systemMetrics.GCCycles,
		"heap_objects": systemMetrics.HeapObjects,
		"stack_usage":  systemMetrics.StackUsage,
	}

	// Set final response
	totalDuration := time.Since(startTime)
	response["metrics"].(gin.H)["response_time_ms"] = totalDuration.Milliseconds()

	if !allHealthy {
		response["status"] = "unhealthy"
		c.JSON(http.StatusServiceUnavailable, response)
		return
	}

	c.JSON(http.StatusOK, response)
}

// SystemMetrics holds system runtime metrics
type SystemMetrics struct {
	MemoryUsage string `json:"memory_usage"`
	Goroutines  int    `json:"goroutines"`
	GCCycles    uint32 `json:"gc_cycles"`
	HeapObjects uint64 `json:"heap_objects"`
	StackUsage  string `json:"stack_usage"`
}

// getSystemMetrics collects current system runtime metrics
func (h *HealthHandler) getSystemMetrics() SystemMetrics {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	// Convert bytes to human-readable format
	memoryUsage := fmt.Sprintf("%.2f MB", float64(m.Alloc)/(1024*1024))
	stackUsage := fmt.Sprintf("%.2f MB", float64(m.StackSys)/(1024*1024))

	return SystemMetrics{
		MemoryUsage: memoryUsage,
		Goroutines:  runtime.NumGoroutine(),
		GCCycles:    m.NumGC,
		HeapObjects: m.HeapObjects,
		StackUsage:  stackUsage,
	}
}
