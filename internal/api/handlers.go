package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/beltline/beltline/pkg/errors"
	"github.com/beltline/beltline/pkg/game"
	"github.com/beltline/beltline/pkg/pipeline"
	"github.com/beltline/beltline/pkg/plan"
)

// solveRequest is the body for POST /api/solve and for live messages.
type solveRequest struct {
	Game    json.RawMessage `json:"game"`
	Layout  json.RawMessage `json:"layout"`
	Options solveOptions    `json:"options"`
}

// solveOptions are the client-settable solve parameters.
type solveOptions struct {
	RateUnit      string `json:"rateUnit,omitempty"`
	SkipRouting   bool   `json:"skipRouting,omitempty"`
	OnlyRouteNode string `json:"onlyRouteNode,omitempty"`
	Refresh       bool   `json:"refresh,omitempty"`
}

// solveResponse is the data payload for a successful solve.
type solveResponse struct {
	Plan      plan.Payload `json:"plan"`
	Passes    int          `json:"passes"`
	Converged bool         `json:"converged"`
	NodeCount int          `json:"nodeCount"`
	EdgeCount int          `json:"edgeCount"`
	GameHash  string       `json:"gameHash"`
	PlanHash  string       `json:"planHash"`
	SolveHash string       `json:"solveHash"`
	Cached    bool         `json:"cached"`
	Duration  string       `json:"duration"`
}

func (req *solveRequest) decode(r *http.Request) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(req); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request body")
	}
	if len(req.Game) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "request is missing a game catalog")
	}
	if len(req.Layout) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "request is missing a layout")
	}
	return nil
}

// pipelineOptions builds pipeline options from the decoded request.
func (req *solveRequest) pipelineOptions() (pipeline.Options, error) {
	g, err := game.Import(req.Game)
	if err != nil {
		return pipeline.Options{}, err
	}
	p, err := plan.Import(req.Layout)
	if err != nil {
		return pipeline.Options{}, err
	}
	return pipeline.Options{
		Game:          g,
		Plan:          p,
		RateUnit:      req.Options.RateUnit,
		SkipRouting:   req.Options.SkipRouting,
		OnlyRouteNode: req.Options.OnlyRouteNode,
		Refresh:       req.Options.Refresh,
		Formats:       []string{pipeline.FormatJSON},
	}, nil
}

func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) {
	var req solveRequest
	if err := req.decode(r); err != nil {
		writeError(w, statusForError(err), errors.UserMessage(err))
		return
	}
	opts, err := req.pipelineOptions()
	if err != nil {
		writeError(w, statusForError(err), errors.UserMessage(err))
		return
	}

	start := time.Now()
	result, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		s.logger.Error("solve failed", "err", err)
		writeError(w, statusForError(err), errors.UserMessage(err))
		return
	}

	writeData(w, http.StatusOK, solveResponse{
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
	})
}

// validateRequest is the body for POST /api/validate. Either field may
// be omitted; present fields are validated.
type validateRequest struct {
	Game   json.RawMessage `json:"game"`
	Layout json.RawMessage `json:"layout"`
}

// validateResponse reports schema validity plus advisory consistency
// issues for the catalog.
type validateResponse struct {
	Issues []game.Issue `json:"issues,omitempty"`
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "decode request body: "+err.Error())
		return
	}
	if len(req.Game) == 0 && len(req.Layout) == 0 {
		writeError(w, http.StatusBadRequest, "request must include a game catalog or a layout")
		return
	}

	var resp validateResponse
	if len(req.Game) > 0 {
		g, err := game.Import(req.Game)
		if err != nil {
			writeError(w, http.StatusBadRequest, errors.UserMessage(err))
			return
		}
		resp.Issues = game.CheckConsistency(g)
	}
	if len(req.Layout) > 0 {
		if _, err := plan.Import(req.Layout); err != nil {
			writeError(w, http.StatusBadRequest, errors.UserMessage(err))
			return
		}
	}

	writeData(w, http.StatusOK, resp)
}
