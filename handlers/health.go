package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/voxlane/voxlane/services/logging"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type HealthHandler struct {
	db      *gorm.DB
	logger  *logging.Service
	started time.Time
}

func NewHealthHandler(db *gorm.DB, logger *logging.Service) *HealthHandler {
	return &HealthHandler{
		db:      db,
		logger:  logger,
		started: time.Now(),
	}
}

type healthReport struct {
	Status        string  `json:"status"`
	Timestamp     string  `json:"timestamp"`
	UptimeSeconds float64 `json:"uptime"`
	MemoryUsage   struct {
		AllocBytes      uint64 `json:"alloc_bytes"`
		TotalAllocBytes uint64 `json:"total_alloc_bytes"`
		SysBytes        uint64 `json:"sys_bytes"`
		NumGC           uint32 `json:"num_gc"`
	} `json:"memory_usage"`
}

func (h *HealthHandler) Check(c echo.Context) error {
	report := healthReport{
		Status:        "healthy",
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		UptimeSeconds: time.Since(h.started).Seconds(),
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	report.MemoryUsage.AllocBytes = mem.Alloc
	report.MemoryUsage.TotalAllocBytes = mem.TotalAlloc
	report.MemoryUsage.SysBytes = mem.Sys
	report.MemoryUsage.NumGC = mem.NumGC

	if err := h.ping(); err != nil {
		if h.logger != nil {
			h.logger.Error("health check failed", zap.Error(err))
		}
		report.Status = "unhealthy"
		return c.JSON(http.StatusServiceUnavailable, report)
	}

	return c.JSON(http.StatusOK, report)
}

func (h *HealthHandler) ping() error {
	sqlDB, err := h.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
