package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/beltline/beltline/pkg/errors"
	"github.com/beltline/beltline/pkg/plan"
)

const liveWriteTimeout = 10 * time.Second

// upgrader configures the websocket handshake. CheckOrigin accepts any
// host; the API carries no credentials, so cross-origin reads are safe.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// liveResult is one websocket reply: the solve envelope mirrored from
// the HTTP handler.
type liveResult struct {
	Success bool           `json:"success"`
	Data    *solveResponse `json:"data,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// handleLive upgrades to a websocket and re-solves every layout the
// client sends. One goroutine serves the whole connection: reads and
// writes strictly alternate, so no write lock is needed.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()
	s.logger.Debug("live connection opened", "remote", r.RemoteAddr)

	for {
		var req solveRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("live connection closed", "err", err)
			}
			return
		}

		result := s.liveSolve(r, &req)

		_ = conn.SetWriteDeadline(time.Now().Add(liveWriteTimeout))
		if err := conn.WriteJSON(result); err != nil {
			return
		}
	}
}

func (s *Server) liveSolve(r *http.Request, req *solveRequest) liveResult {
	if len(req.Game) == 0 || len(req.Layout) == 0 {
		return liveResult{Error: "message must include a game catalog and a layout"}
	}
	opts, err := req.pipelineOptions()
	if err != nil {
		return liveResult{Error: errors.UserMessage(err)}
	}

	start := time.Now()
	result, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		return liveResult{Error: errors.UserMessage(err)}
	}

	return liveResult{
		Success: true,
		Data: &solveResponse{
			Plan:      plan.ToPayload(result.Plan),
			Passes:    result.Stats.Passes,
			Converged: result.Stats.Converged,
			NodeCount: result.Stats.NodeCount,
			EdgeCount: result.Stats.EdgeCount,
			GameHash:  result.GameHash,
			PlanHash:  result.PlanHash,
			SolveHash: result.SolveHash,
			Cached:    result.CacheInfo.SolveHit,
			Duration:  time.Since(start).Round(time.Millisecond).String(),
		},
	}
}
