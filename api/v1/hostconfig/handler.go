package hostconfig

import (
	"context"
	"strconv"
	"time"

	"go_hostcfg/api/v1/middleware"
	"go_hostcfg/internal/hostconfig"
	"go_hostcfg/internal/httpx"
	"go_hostcfg/internal/model"

	"github.com/gin-gonic/gin"
)

// Notifier pushes change events to connected clients
type Notifier interface {
	NotifyConfigSaved(payload interface{})
}

// RevisionLister lists recorded configuration revisions
type RevisionLister interface {
	List(ctx context.Context, page, pageSize int) ([]model.ConfigRevision, int64, error)
}

// Handler handles host configuration requests
type Handler struct {
	svc       *hostconfig.Service
	revisions RevisionLister
	notifier  Notifier
	timeout   time.Duration
}

// NewHandler creates a new host configuration handler. notifier may be nil.
func NewHandler(svc *hostconfig.Service, revisions RevisionLister, notifier Notifier, timeout time.Duration) *Handler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Handler{svc: svc, revisions: revisions, notifier: notifier, timeout: timeout}
}

// ValidateResponse is returned by the dry-run endpoint
type ValidateResponse struct {
	Valid  bool                `json:"valid"`
	Errors map[string][]string `json:"errors"`
}

// SaveResponse is returned after a successful save
type SaveResponse struct {
	ID int `json:"id"`
}

// Get handles GET /api/v1/config/host
func (h *Handler) Get(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	snap, err := h.svc.Get(ctx)
	if err != nil {
		httpx.FailErr(c, httpx.ErrInternalError("failed to read host configuration", err))
		return
	}
	httpx.OK(c, snap)
}

// Validate handles POST /api/v1/config/host/validate
func (h *Handler) Validate(c *gin.Context) {
	var req hostconfig.Resource
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid(err.Error()))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	res, err := h.svc.Validate(ctx, &req)
	if err != nil {
		httpx.FailErr(c, httpx.ErrInternalError("failed to validate host configuration", err))
		return
	}
	if res == nil {
		res = hostconfig.Result{}
	}
	httpx.OK(c, ValidateResponse{Valid: res.Valid(), Errors: res})
}

// Put handles PUT /api/v1/config/host
func (h *Handler) Put(c *gin.Context) {
	var req hostconfig.Resource
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid(err.Error()))
		return
	}

	actor := c.GetString(middleware.CtxUsername)
	ctx, cancel := context.WithTimeout(hostconfig.WithActor(c.Request.Context(), actor), h.timeout)
	defer cancel()

	id, res, err := h.svc.Save(ctx, &req)
	if err != nil {
		httpx.FailErr(c, httpx.ErrInternalError("failed to save host configuration", err))
		return
	}
	if !res.Valid() {
		httpx.FailErr(c, httpx.ErrValidation(res))
		return
	}

	if h.notifier != nil {
		h.notifier.NotifyConfigSaved(gin.H{"id": id, "actor": actor})
	}
	httpx.OK(c, SaveResponse{ID: id})
}

// Revisions handles GET /api/v1/config/host/revisions
func (h *Handler) Revisions(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	items, total, err := h.revisions.List(c.Request.Context(), page, pageSize)
	if err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to list revisions", err))
		return
	}
	httpx.OK(c, gin.H{
		"items":    items,
		"total":    total,
		"page":     page,
		"pageSize": pageSize,
	})
}
