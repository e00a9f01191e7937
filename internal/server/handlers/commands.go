package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"git.home.luguber.info/inful/csmon/internal/catalog"
	"git.home.luguber.info/inful/csmon/internal/command"
	ferrors "git.home.luguber.info/inful/csmon/internal/foundation/errors"
	"git.home.luguber.info/inful/csmon/internal/scheduler"
	"git.home.luguber.info/inful/csmon/internal/server/responses"
)

// Commands is the command surface served over HTTP. *command.Facade implements it.
type Commands interface {
	Noop(ctx context.Context) error
	ResetCounters(ctx context.Context) error
	EnableAll(ctx context.Context) error
	DisableAll(ctx context.Context) error
	EnableType(ctx context.Context, t catalog.ResourceType) error
	DisableType(ctx context.Context, t catalog.ResourceType) error
	EnableEntry(ctx context.Context, t catalog.ResourceType, entry int) error
	DisableEntry(ctx context.Context, t catalog.ResourceType, entry int) error
	ReportBaseline(ctx context.Context, ref command.Ref) (scheduler.RegionBaseline, error)
	RecomputeBaseline(ctx context.Context, ref command.Ref) error
	OneShot(ctx context.Context, start, length, maxPerTick uint64) error
	CancelOneShot(ctx context.Context) error
	GetEntryID(ctx context.Context, t catalog.ResourceType, addr uint64) ([]scheduler.RegionBaseline, error)
	SetByteBudget(ctx context.Context, n uint64) error
	Housekeeping(ctx context.Context) command.Housekeeping
	Regions(ctx context.Context, t catalog.ResourceType) ([]scheduler.RegionBaseline, error)
}

// CommandHandlers maps admin routes onto Commands.
type CommandHandlers struct {
	cmds         Commands
	errorAdapter *ferrors.HTTPErrorAdapter
}

// NewCommandHandlers creates command handlers.
func NewCommandHandlers(cmds Commands, logger *slog.Logger) *CommandHandlers {
	return &CommandHandlers{cmds: cmds, errorAdapter: ferrors.NewHTTPErrorAdapter(logger)}
}

// Register adds the command routes to mux.
func (h *CommandHandlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/housekeeping", h.HandleHousekeeping)
	mux.HandleFunc("POST /api/v1/noop", h.simple(command.CmdNoop, h.cmds.Noop))
	mux.HandleFunc("POST /api/v1/counters/reset", h.simple(command.CmdResetCounters, h.cmds.ResetCounters))
	mux.HandleFunc("POST /api/v1/enable", h.simple(command.CmdEnableAll, h.cmds.EnableAll))
	mux.HandleFunc("POST /api/v1/disable", h.simple(command.CmdDisableAll, h.cmds.DisableAll))

	mux.HandleFunc("POST /api/v1/types/{type}/enable", h.typed(command.CmdEnableType, h.cmds.EnableType))
	mux.HandleFunc("POST /api/v1/types/{type}/disable", h.typed(command.CmdDisableType, h.cmds.DisableType))
	mux.HandleFunc("GET /api/v1/types/{type}/regions", h.HandleRegions)
	mux.HandleFunc("GET /api/v1/types/{type}/regions/{name}", h.HandleReportBaseline)
	mux.HandleFunc("POST /api/v1/types/{type}/regions/{name}/recompute", h.HandleRecompute)
	mux.HandleFunc("GET /api/v1/types/{type}/entries", h.HandleEntryLookup)
	mux.HandleFunc("GET /api/v1/types/{type}/entries/{entry}", h.HandleReportBaseline)
	mux.HandleFunc("POST /api/v1/types/{type}/entries/{entry}/recompute", h.HandleRecompute)
	mux.HandleFunc("POST /api/v1/types/{type}/entries/{entry}/enable", h.entry(command.CmdEnableEntry, h.cmds.EnableEntry))
	mux.HandleFunc("POST /api/v1/types/{type}/entries/{entry}/disable", h.entry(command.CmdDisableEntry, h.cmds.DisableEntry))

	mux.HandleFunc("POST /api/v1/oneshot", h.HandleOneShot)
	mux.HandleFunc("DELETE /api/v1/oneshot", h.simple(command.CmdCancelOneShot, h.cmds.CancelOneShot))
	mux.HandleFunc("PUT /api/v1/byte-budget", h.HandleByteBudget)
}

func (h *CommandHandlers) ack(w http.ResponseWriter, r *http.Request, name string, err error) {
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	_ = writeJSON(w, http.StatusOK, responses.AckResponse{Status: "accepted", Command: name})
}

func (h *CommandHandlers) simple(name string, fn func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.ack(w, r, name, fn(r.Context()))
	}
}

func (h *CommandHandlers) typed(name string, fn func(context.Context, catalog.ResourceType) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := pathType(r)
		if err != nil {
			h.errorAdapter.WriteErrorResponse(w, r, err)
			return
		}
		h.ack(w, r, name, fn(r.Context(), t))
	}
}

func (h *CommandHandlers) entry(name string, fn func(context.Context, catalog.ResourceType, int) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := pathType(r)
		if err != nil {
			h.errorAdapter.WriteErrorResponse(w, r, err)
			return
		}
		e, err := pathEntry(r)
		if err != nil {
			h.errorAdapter.WriteErrorResponse(w, r, err)
			return
		}
		h.ack(w, r, name, fn(r.Context(), t, e))
	}
}

// ref resolves {type} plus either {name} or {entry}.
func (h *CommandHandlers) ref(r *http.Request) (command.Ref, error) {
	t, err := pathType(r)
	if err != nil {
		return command.Ref{}, err
	}
	if name := r.PathValue("name"); name != "" {
		return command.Ref{Type: t, Name: name}, nil
	}
	e, err := pathEntry(r)
	if err != nil {
		return command.Ref{}, err
	}
	return command.Ref{Type: t, Entry: e}, nil
}

// HandleHousekeeping returns the scheduler status and command counters.
func (h *CommandHandlers) HandleHousekeeping(w http.ResponseWriter, r *http.Request) {
	_ = writeJSONPretty(w, r, http.StatusOK, h.cmds.Housekeeping(r.Context()))
}

// HandleRegions lists the regions of one type with their baselines.
func (h *CommandHandlers) HandleRegions(w http.ResponseWriter, r *http.Request) {
	t, err := pathType(r)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	regions, err := h.cmds.Regions(r.Context(), t)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	if regions == nil {
		regions = []scheduler.RegionBaseline{}
	}
	_ = writeJSONPretty(w, r, http.StatusOK, responses.RegionsResponse{ResourceType: t.String(), Regions: regions})
}

// HandleReportBaseline returns one region's baseline.
func (h *CommandHandlers) HandleReportBaseline(w http.ResponseWriter, r *http.Request) {
	ref, err := h.ref(r)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	rb, err := h.cmds.ReportBaseline(r.Context(), ref)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	_ = writeJSONPretty(w, r, http.StatusOK, rb)
}

// HandleRecompute queues a baseline recompute.
func (h *CommandHandlers) HandleRecompute(w http.ResponseWriter, r *http.Request) {
	ref, err := h.ref(r)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	err = h.cmds.RecomputeBaseline(r.Context(), ref)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	_ = writeJSON(w, http.StatusAccepted, responses.AckResponse{Status: "accepted", Command: command.CmdRecomputeBaseline})
}

// HandleEntryLookup finds the regions containing ?address=.
func (h *CommandHandlers) HandleEntryLookup(w http.ResponseWriter, r *http.Request) {
	t, err := pathType(r)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	addr, err := parseAddress(r.URL.Query().Get("address"))
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	hits, err := h.cmds.GetEntryID(r.Context(), t, addr)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	_ = writeJSONPretty(w, r, http.StatusOK, responses.RegionsResponse{ResourceType: t.String(), Regions: hits})
}

// HandleOneShot starts a one-shot checksum.
func (h *CommandHandlers) HandleOneShot(w http.ResponseWriter, r *http.Request) {
	var req responses.OneShotRequest
	if err := decodeJSON(r, &req); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	if err := h.cmds.OneShot(r.Context(), req.Start, req.Length, req.MaxPerTick); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	_ = writeJSON(w, http.StatusAccepted, responses.AckResponse{Status: "accepted", Command: command.CmdOneShot})
}

// HandleByteBudget changes the per-tick byte budget.
func (h *CommandHandlers) HandleByteBudget(w http.ResponseWriter, r *http.Request) {
	var req responses.ByteBudgetRequest
	if err := decodeJSON(r, &req); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	h.ack(w, r, command.CmdSetByteBudget, h.cmds.SetByteBudget(r.Context(), req.ByteBudget))
}
