package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/jaykayes/lottery-script/internal/adapters/intake"
	"github.com/jaykayes/lottery-script/internal/adapters/render"
	service "github.com/jaykayes/lottery-script/internal/app"
	"github.com/jaykayes/lottery-script/internal/domain/dedupe"
	"github.com/jaykayes/lottery-script/internal/domain/model"
	"github.com/jaykayes/lottery-script/internal/domain/types"
	"github.com/jaykayes/lottery-script/pkg/logger"
)

// IdempotencyHeader carries a client key that makes POST /draws run once.
const IdempotencyHeader = "Idempotency-Key"

// SheetsPath is where the handout sheets are served.
const SheetsPath = "/sheets/"

const maxBodyBytes = 8 << 20

// drawRequest mirrors the OpenAPI schema for POST /draws.
type drawRequest struct {
	LotteryID  string             `json:"lottery_id"`
	Seed       *uint64            `json:"seed,omitempty"`
	Policy     string             `json:"policy,omitempty"`
	Pools      []string           `json:"pools,omitempty"`
	Items      []itemRequest      `json:"items"`
	Applicants []applicantRequest `json:"applicants"`
}

type itemRequest struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Stock int    `json:"stock"`
	Pool  string `json:"pool"`
	Group string `json:"group,omitempty"` // primary:<tag> or dependent:<tag>
}

type applicantRequest struct {
	Identity  string `json:"identity"`
	Eligible  *bool  `json:"eligible,omitempty"` // absent means eligible
	Requested []int  `json:"requested"`
}

func (d drawRequest) toRequest() (service.Request, error) {
	if len(d.Items) == 0 {
		return service.Request{}, errors.New("missing items")
	}
	req := service.Request{
		LotteryID: strings.TrimSpace(d.LotteryID),
		Seed:      d.Seed,
		Policy:    d.Policy,
		Catalog:   make(model.Catalog, len(d.Items)),
	}
	for _, it := range d.Items {
		switch {
		case strings.TrimSpace(it.Name) == "":
			return req, fmt.Errorf("item %d: missing name", it.ID)
		case strings.TrimSpace(it.Pool) == "":
			return req, fmt.Errorf("item %d: missing pool", it.ID)
		case req.Catalog.Has(it.ID):
			return req, fmt.Errorf("item %d: %w", it.ID, model.ErrDuplicateItem)
		}
		group, err := intake.ParseMembership(it.Group)
		if err != nil {
			return req, fmt.Errorf("item %d: %w", it.ID, err)
		}
		req.Catalog[it.ID] = model.InventoryItem{
			ID:    it.ID,
			Name:  strings.TrimSpace(it.Name),
			Stock: it.Stock,
			Pool:  model.Pool(strings.TrimSpace(it.Pool)),
			Group: group,
		}
	}
	for i, a := range d.Applicants {
		identity := intake.NormalizeName(a.Identity)
		if identity == "" {
			return req, fmt.Errorf("applicant %d: missing identity", i)
		}
		req.Applicants = append(req.Applicants, model.Applicant{
			Identity:  identity,
			Eligible:  a.Eligible == nil || *a.Eligible,
			Requested: a.Requested,
		})
	}
	for _, p := range d.Pools {
		req.Pools = append(req.Pools, model.Pool(p))
	}
	return req, nil
}

type demandStats struct {
	Applicants int `json:"applicants"`
	Ineligible int `json:"ineligible"`
	Requests   int `json:"requests"`
	Unknown    int `json:"unknown"`
	Duplicates int `json:"duplicates"`
}

type drawResponse struct {
	Snapshot *types.Snapshot `json:"snapshot"`
	Demand   demandStats     `json:"demand"`
	Saved    bool            `json:"saved"`
	Sheets   []string        `json:"sheets,omitempty"`
}

type listResponse struct {
	Draws []types.Summary `json:"draws"`
}

// DrawsHandler handles draw requests.
type DrawsHandler struct {
	deps     Dependencies
	deduper  dedupe.Deduper
	sheetDir string
	logger   logger.Logger
}

// NewDrawsHandler creates a new draws handler. An empty sheetDir disables
// sheet files.
func NewDrawsHandler(deps Dependencies, deduper dedupe.Deduper, sheetDir string, log logger.Logger) *DrawsHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &DrawsHandler{deps: deps, deduper: deduper, sheetDir: sheetDir, logger: log.Named("api")}
}

// HandlePostDraw handles POST /draws requests.
func (h *DrawsHandler) HandlePostDraw(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_draw"
	ctx := r.Context()

	var body drawRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	req, err := body.toRequest()
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	key := strings.TrimSpace(r.Header.Get(IdempotencyHeader))
	if key != "" && h.deduper.SeenAndRecord(ctx, key) {
		writeError(w, http.StatusConflict, "duplicate", NewKind(op, ErrDuplicate))
		return
	}

	res, err := h.deps.Draw(ctx, req)
	if res == nil {
		if key != "" {
			// Rejected draws may be retried with the same key.
			h.deduper.Unrecord(ctx, key)
		}
		status, code := statusFor(err)
		writeError(w, status, code, err)
		return
	}

	resp := drawResponse{
		Snapshot: res.Snapshot,
		Demand: demandStats{
			Applicants: res.Demand.Applicants,
			Ineligible: res.Demand.Ineligible,
			Requests:   res.Demand.Requests,
			Unknown:    res.Demand.Unknown,
			Duplicates: res.Demand.Duplicates,
		},
		Saved: err == nil,
	}
	if err != nil {
		h.logger.Warn(ctx, "draw not persisted", logger.String("run", res.Snapshot.RunID), logger.Error(err))
	}
	if h.sheetDir != "" {
		sheets, err := h.writeSheets(res.Snapshot)
		if err != nil {
			h.logger.Error(ctx, "sheets not written", logger.String("run", res.Snapshot.RunID), logger.Error(err))
		}
		resp.Sheets = sheets
	}
	writeJSON(w, http.StatusCreated, resp)
}

// writeSheets writes the pool sheets and returns their URLs.
func (h *DrawsHandler) writeSheets(snap *types.Snapshot) ([]string, error) {
	lottery := filepath.Base(snap.LotteryID)
	if lottery == "." || lottery == ".." || lottery != snap.LotteryID {
		return nil, fmt.Errorf("%w: lottery id %q is not a directory name", ErrSheets, snap.LotteryID)
	}
	paths, err := render.WriteSheetFiles(filepath.Join(h.sheetDir, lottery), snap)
	urls := make([]string, 0, len(paths))
	for _, p := range paths {
		urls = append(urls, SheetsPath+lottery+"/"+filepath.Base(p))
	}
	return urls, err
}

// HandleGetDraw handles GET /draws/{id} requests. The format query
// parameter selects json (default), yaml, csv or table.
func (h *DrawsHandler) HandleGetDraw(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_draw"

	format := render.FormatJSON
	if raw := r.URL.Query().Get("format"); raw != "" {
		f, err := render.ParseFormat(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		format = f
	}

	snap, err := h.deps.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		status, code := statusFor(err)
		writeError(w, status, code, err)
		return
	}
	if format == render.FormatJSON {
		writeJSON(w, http.StatusOK, snap)
		return
	}

	w.Header().Set("Content-Type", contentType(format))
	w.WriteHeader(http.StatusOK)
	if err := render.Write(w, format, snap); err != nil {
		h.logger.Error(r.Context(), "render failed", logger.String("run", snap.RunID), logger.Error(err))
	}
}

// HandleListDraws handles GET /draws requests, optionally filtered by
// lottery_id.
func (h *DrawsHandler) HandleListDraws(w http.ResponseWriter, r *http.Request) {
	sums, err := h.deps.List(r.Context(), r.URL.Query().Get("lottery_id"))
	if err != nil {
		status, code := statusFor(err)
		writeError(w, status, code, err)
		return
	}
	if sums == nil {
		sums = []types.Summary{}
	}
	writeJSON(w, http.StatusOK, listResponse{Draws: sums})
}

func contentType(f render.Format) string {
	switch f {
	case render.FormatCSV:
		return "text/csv; charset=utf-8"
	case render.FormatYAML:
		return "application/yaml; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}
