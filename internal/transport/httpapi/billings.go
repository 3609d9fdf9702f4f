package httpapi

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Leganyst/studio-booking/internal/export"
	"github.com/Leganyst/studio-booking/internal/model"
)

// POST /billings
func (h *Handler) CreateBillings(c *gin.Context) {
	var req billingRequest
	if !bindJSON(c, &req) {
		return
	}
	created, err := h.svc.Billings.CreateBillings(c.Request.Context(), req.BookingIDs, req.PeriodStart, req.PeriodEnd)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, mapSlice(created, toBilling))
}

// POST /billings/period
func (h *Handler) CreateBillingsForPeriod(c *gin.Context) {
	var req periodBillingRequest
	if !bindJSON(c, &req) {
		return
	}
	created, err := h.svc.Billings.CreateBillingsForPeriod(c.Request.Context(), req.ServiceProviderID, req.PeriodStart, req.PeriodEnd)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, mapSlice(created, toBilling))
}

// GET /billings?provider_id=
func (h *Handler) ListBillings(c *gin.Context) {
	providerID, ok := queryUUID(c, "provider_id")
	if !ok {
		return
	}

	var (
		list []model.Billing
		err  error
	)
	if providerID != nil {
		list, err = h.svc.Billings.GetBillingsByServiceProvider(c.Request.Context(), *providerID)
	} else {
		list, err = h.svc.Billings.GetAllBillings(c.Request.Context())
	}
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, mapSlice(list, toBilling))
}

// GET /billings/:id
func (h *Handler) GetBilling(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	b, err := h.svc.Billings.GetBillingByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toBilling(b))
}

// GET /billings/:id/items
func (h *Handler) GetBillingItems(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	items, err := h.svc.Billings.GetBillingItems(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toBillingItems(items))
}

// GET /billings/:id/export?format=pdf|xlsx
// С объектным хранилищем отдаёт ссылку на файл, без него сам файл.
func (h *Handler) ExportBilling(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	res, err := h.svc.Export.Export(c.Request.Context(), id, format)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	if res.URL != "" {
		c.JSON(http.StatusOK, gin.H{"url": res.URL, "file_name": res.FileName})
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.FileName))
	c.Data(http.StatusOK, res.ContentType, res.Data)
}

// GET /providers/:id/unbilled?from=&to=
func (h *Handler) UnbilledBookings(c *gin.Context) {
	providerID, ok := pathUUID(c, "id")
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
	list, err := h.svc.Billings.UnbilledBookings(c.Request.Context(), providerID, *from, *to)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, mapSlice(list, toBooking))
}
