package httpapi

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Leganyst/studio-booking/internal/model"
	"github.com/Leganyst/studio-booking/internal/pricing"
	"github.com/Leganyst/studio-booking/internal/service"
)

// registerPriceRoutes вешает маршруты временной шкалы цен на группу /rooms или /upgrades.
func registerPriceRoutes(g *gin.RouterGroup, timeline *service.PriceTimeline, h *Handler) {
	g.GET("/:id/prices/current", func(c *gin.Context) {
		id, ok := pathUUID(c, "id")
		if !ok {
			return
		}
		p, err := timeline.Current(c.Request.Context(), id)
		if err != nil {
			writeError(c, h.log, err)
			return
		}
		c.JSON(http.StatusOK, toPrice(p))
	})

	g.GET("/:id/prices/history", func(c *gin.Context) {
		id, ok := pathUUID(c, "id")
		if !ok {
			return
		}
		history, err := timeline.History(c.Request.Context(), id)
		if err != nil {
			writeError(c, h.log, err)
			return
		}
		c.JSON(http.StatusOK, mapSlice(history, toPrice))
	})

	// GET .../prices/at?t=RFC3339
	g.GET("/:id/prices/at", func(c *gin.Context) {
		id, ok := pathUUID(c, "id")
		if !ok {
			return
		}
		at, ok := queryTime(c, "t", true)
		if !ok {
			return
		}
		p, err := timeline.At(c.Request.Context(), id, *at)
		if err != nil {
			writeError(c, h.log, err)
			return
		}
		c.JSON(http.StatusOK, toPrice(p))
	})

	g.POST("/:id/prices", func(c *gin.Context) {
		id, ok := pathUUID(c, "id")
		if !ok {
			return
		}
		var req priceRequest
		if !bindJSON(c, &req) {
			return
		}
		p, err := timeline.SetNewPrice(c.Request.Context(), id, req.Amount, req.ValidFrom)
		if err != nil {
			writeError(c, h.log, err)
			return
		}
		c.JSON(http.StatusCreated, toPrice(p))
	})
}

// GET /room-prices/:id/tiers
func (h *Handler) ListTiers(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	rows, err := h.svc.Tiers.List(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toTiers(rows))
}

// POST /room-prices/:id/tiers
func (h *Handler) CreateTiers(c *gin.Context) {
	h.replaceTiers(c, http.StatusCreated, h.svc.Tiers.Create)
}

// PUT /room-prices/:id/tiers
func (h *Handler) UpdateTiers(c *gin.Context) {
	h.replaceTiers(c, http.StatusOK, h.svc.Tiers.Update)
}

func (h *Handler) replaceTiers(
	c *gin.Context,
	status int,
	apply func(context.Context, uuid.UUID, []pricing.Tier) ([]model.RoomPriceTier, error),
) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req tiersRequest
	if !bindJSON(c, &req) {
		return
	}
	tiers, err := req.tiers()
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	rows, err := apply(c.Request.Context(), id, tiers)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(status, toTiers(rows))
}

// DELETE /room-prices/:id/tiers/:tierId
func (h *Handler) DeleteTier(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	tierID, ok := pathUUID(c, "tierId")
	if !ok {
		return
	}
	if err := h.svc.Tiers.Delete(c.Request.Context(), id, tierID); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
