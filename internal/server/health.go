package server

import (
	"net/http"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// healthPayload is the response body for GET /health.
type healthPayload struct {
	Status      string  `json:"status"`
	DBHealthy   bool    `json:"db_healthy"`
	DBError     string  `json:"db_error,omitempty"`
	CPUPercent  float64 `json:"cpu_percent"`
	MemUsedPct  float64 `json:"mem_used_percent"`
}

// handleHealth reports database integrity plus host CPU/memory pressure,
// the pair a dashboard would poll every couple of seconds.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	payload := healthPayload{Status: "ok", DBHealthy: true}

	if err := s.db.QuickCheck(r.Context()); err != nil {
		payload.Status = "degraded"
		payload.DBHealthy = false
		payload.DBError = err.Error()
	}

	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to read cpu percentage")
		cpuPercent = []float64{0}
	}
	if len(cpuPercent) > 0 {
		payload.CPUPercent = cpuPercent[0]
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to read memory statistics")
	} else {
		payload.MemUsedPct = memStat.UsedPercent
	}

	status := http.StatusOK
	if !payload.DBHealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, payload)
}
