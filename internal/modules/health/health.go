// Package health reports store and cache reachability along with background job state.
package health

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ferminotify/core/internal/pkg/cron"
)

const defaultTimeout = 3 * time.Second

// Check probes one dependency.
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

type CheckResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency int64  `json:"latency_ms"`
}

type Report struct {
	OK     bool                   `json:"ok"`
	Time   int64                  `json:"time"`
	Checks map[string]CheckResult `json:"checks"`
	Jobs   []cron.ListItem        `json:"jobs,omitempty"`
}

// JobLister exposes scheduled jobs.
type JobLister interface {
	List() []cron.ListItem
}

type Service struct {
	checks  []Check
	jobs    JobLister
	timeout time.Duration
	logger  *zap.Logger
}

func NewService(checks []Check, jobs JobLister, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{checks: checks, jobs: jobs, timeout: defaultTimeout, logger: logger.Named("Health")}
}

// Run probes every dependency concurrently, each under its own timeout.
func (s *Service) Run(ctx context.Context) Report {
	rep := Report{OK: true, Time: time.Now().UnixMilli(), Checks: make(map[string]CheckResult, len(s.checks))}
	var mu sync.Mutex
	var g errgroup.Group
	for _, chk := range s.checks {
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()
			start := time.Now()
			err := chk.Ping(cctx)
			res := CheckResult{Status: "up", Latency: time.Since(start).Milliseconds()}
			if err != nil {
				res.Status = "down"
				res.Message = err.Error()
				s.logger.Warn("health check failed", zap.String("check", chk.Name), zap.Error(err))
			}
			mu.Lock()
			rep.Checks[chk.Name] = res
			if err != nil {
				rep.OK = false
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	if s.jobs != nil {
		rep.Jobs = s.jobs.List()
	}
	return rep
}

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/health", h.health)
}

func (h *Handler) health(c *gin.Context) {
	rep := h.svc.Run(c.Request.Context())
	status := http.StatusOK
	if !rep.OK {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, rep)
}
