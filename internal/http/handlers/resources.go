package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/geocoder89/amnii/internal/cache"
	"github.com/geocoder89/amnii/internal/config"
	"github.com/geocoder89/amnii/internal/domain/resource"
	"github.com/geocoder89/amnii/internal/utils"
	"github.com/geocoder89/amnii/internal/validation"
	"github.com/gin-gonic/gin"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// ResourcesHandler serves CRUD for one catalog kind.
type ResourcesHandler struct {
	kind      resource.Kind
	store     resource.Store
	cache     cache.Store
	validator *validation.Validator
	log       *slog.Logger
}

func NewResourcesHandler(kind resource.Kind, store resource.Store, c cache.Store, log *slog.Logger) *ResourcesHandler {
	if log == nil {
		log = slog.Default()
	}
	return &ResourcesHandler{
		kind:      kind,
		store:     store,
		cache:     c,
		validator: validation.Default(),
		log:       log,
	}
}

func (h *ResourcesHandler) notFoundMessage() string {
	return "The " + h.kind.Singular() + " with the given ID was not found."
}

func (h *ResourcesHandler) List(ctx *gin.Context) {
	limit := defaultListLimit
	if raw := ctx.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxListLimit {
			RespondBadRequest(ctx, "limit must be between 1 and 100", gin.H{"limit": raw})
			return
		}
		limit = n
	}

	rawCursor := ctx.Query("cursor")
	filter := resource.ListFilter{Limit: limit}

	if rawCursor != "" {
		cur, err := utils.DecodeResourceCursor(rawCursor)
		if err != nil {
			RespondBadRequest(ctx, "Invalid cursor", gin.H{"cursor": "invalid_cursor"})
			return
		}
		filter.AfterName = cur.Name
		filter.AfterID = cur.ID
	}

	key := utils.BuildResourceListCacheKey(string(h.kind), limit, rawCursor)

	if h.cache != nil {
		if b, ok := h.cache.Get(ctx.Request.Context(), key); ok {
			var page resource.Page
			if err := json.Unmarshal(b, &page); err == nil {
				ctx.Header("X-Cache", "HIT")
				RespondJSONWithETag(ctx, http.StatusOK, page)
				return
			}
		}
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	items, hasMore, err := h.store.List(cctx, h.kind, filter)
	if err != nil {
		h.log.ErrorContext(ctx.Request.Context(), "list resources failed", "kind", h.kind, "err", err)
		RespondInternal(ctx, "Could not list "+string(h.kind))
		return
	}

	page := resource.Page{Items: items, Count: len(items), HasMore: hasMore}

	if hasMore && len(items) > 0 {
		last := items[len(items)-1]
		next, err := utils.EncodeResourceCursor(last.Name, last.ID)
		if err != nil {
			RespondInternal(ctx, "Could not list "+string(h.kind))
			return
		}
		page.NextCursor = &next
	}

	if h.cache != nil {
		if b, err := json.Marshal(page); err == nil {
			h.cache.Set(ctx.Request.Context(), key, b)
		}
		ctx.Header("X-Cache", "MISS")
	}

	RespondJSONWithETag(ctx, http.StatusOK, page)
}

func (h *ResourcesHandler) Get(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	res, err := h.store.GetByID(cctx, h.kind, ctx.Param("id"))
	if err != nil {
		h.respondStoreError(ctx, "get", err)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, res)
}

func (h *ResourcesHandler) Create(ctx *gin.Context) {
	in, ok := h.input(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	res, err := h.store.Create(cctx, h.kind, in)
	if err != nil {
		h.respondStoreError(ctx, "create", err)
		return
	}

	h.invalidate(ctx)
	ctx.JSON(http.StatusOK, res)
}

func (h *ResourcesHandler) Update(ctx *gin.Context) {
	in, ok := h.input(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	res, err := h.store.Update(cctx, h.kind, ctx.Param("id"), in)
	if err != nil {
		h.respondStoreError(ctx, "update", err)
		return
	}

	h.invalidate(ctx)
	ctx.JSON(http.StatusOK, res)
}

// Delete answers with the removed record.
func (h *ResourcesHandler) Delete(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	res, err := h.store.Delete(cctx, h.kind, ctx.Param("id"))
	if err != nil {
		h.respondStoreError(ctx, "delete", err)
		return
	}

	h.invalidate(ctx)
	ctx.JSON(http.StatusOK, res)
}

func (h *ResourcesHandler) input(ctx *gin.Context) (resource.Input, bool) {
	var in resource.Input

	if !DecodeJSON(ctx, &in) {
		return in, false
	}

	if err := h.validator.Struct(in); err != nil {
		if !respondInputError(ctx, err) {
			RespondInternal(ctx, "Could not validate request")
		}
		return in, false
	}

	return in, true
}

func (h *ResourcesHandler) respondStoreError(ctx *gin.Context, op string, err error) {
	if errors.Is(err, resource.ErrNotFound) {
		RespondNotFound(ctx, h.notFoundMessage())
		return
	}

	h.log.ErrorContext(ctx.Request.Context(), "resource store failed", "kind", h.kind, "op", op, "err", err)
	RespondInternal(ctx, "Could not "+op+" "+h.kind.Singular())
}

func (h *ResourcesHandler) invalidate(ctx *gin.Context) {
	if h.cache == nil {
		return
	}
	h.cache.DeletePrefix(ctx.Request.Context(), utils.ResourceListCachePrefix(string(h.kind)))
}
