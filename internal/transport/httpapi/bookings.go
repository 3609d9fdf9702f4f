package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Leganyst/studio-booking/internal/calendar"
	"github.com/Leganyst/studio-booking/internal/repository"
)

// POST /bookings
func (h *Handler) CreateBooking(c *gin.Context) {
	var req bookingRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.StartsAt.IsZero() {
		badRequest(c, "starts_at is required")
		return
	}
	b, err := h.svc.Bookings.Create(c.Request.Context(), req.input())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, toBooking(b))
}

// GET /bookings/:id
func (h *Handler) GetBooking(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	b, err := h.svc.Bookings.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toBooking(b))
}

// PUT /bookings/:id
func (h *Handler) UpdateBooking(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req bookingRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.StartsAt.IsZero() {
		badRequest(c, "starts_at is required")
		return
	}
	b, err := h.svc.Bookings.Update(c.Request.Context(), id, req.input())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toBooking(b))
}

// DELETE /bookings/:id
func (h *Handler) DeleteBooking(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Bookings.Delete(c.Request.Context(), id); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /bookings?room_id=&provider_id=&from=&to=&page=&page_size=
func (h *Handler) ListBookings(c *gin.Context) {
	var f repository.BookingFilter
	var ok bool
	if f.RoomID, ok = queryUUID(c, "room_id"); !ok {
		return
	}
	if f.ProviderID, ok = queryUUID(c, "provider_id"); !ok {
		return
	}
	if f.From, ok = queryTime(c, "from", false); !ok {
		return
	}
	if f.To, ok = queryTime(c, "to", false); !ok {
		return
	}
	var req calendar.PageRequest
	if req.Page, ok = queryInt(c, "page", 1); !ok {
		return
	}
	if req.Size, ok = queryInt(c, "page_size", 0); !ok {
		return
	}

	list, err := h.svc.Bookings.List(c.Request.Context(), f)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, calendar.Paginate(mapSlice(list, toBooking), req))
}

// GET /bookings/:id/quote
func (h *Handler) QuoteBooking(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	q, err := h.svc.Bookings.Quote(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

// GET /rooms/:id/free-slots?from=&to=&duration=&resting=&step=
// duration, resting и step в минутах.
func (h *Handler) FreeSlots(c *gin.Context) {
	roomID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	from, ok := queryTime(c, "from", true)
	if !ok {
		return
	}
	to, ok := queryTime(c, "to", true)
	if !ok {
		return
	}
	duration, ok := queryInt(c, "duration", 0)
	if !ok {
		return
	}
	resting, ok := queryInt(c, "resting", 0)
	if !ok {
		return
	}
	step, ok := queryInt(c, "step", 0)
	if !ok {
		return
	}

	slots, err := h.svc.Bookings.FreeSlots(c.Request.Context(), roomID,
		calendar.TimeRange{Start: *from, End: *to}, duration, resting, time.Duration(step)*time.Minute)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toSlots(slots))
}
