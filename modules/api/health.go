package api

import (
	"context"
	"net/http"
)

type healthHandler struct {
	mongo func(context.Context) error
	redis func(context.Context) error
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func (h *healthHandler) handle(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Checks: make(map[string]string)}

	probe := func(name string, fn func(context.Context) error) {
		if fn == nil {
			resp.Checks[name] = "disabled"
			return
		}
		if err := fn(r.Context()); err != nil {
			resp.Checks[name] = err.Error()
			resp.Status = "degraded"
			return
		}
		resp.Checks[name] = "ok"
	}

	probe("mongo", h.mongo)
	probe("redis", h.redis)

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	respondJSON(w, r, status, resp)
}
