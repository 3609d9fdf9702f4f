package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Leganyst/studio-booking/internal/model"
)

// ---- locations ----

func (h *Handler) ListLocations(c *gin.Context) {
	list, err := h.svc.Catalog.ListLocations(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, mapSlice(list, toLocation))
}

func (h *Handler) CreateLocation(c *gin.Context) {
	var req locationRequest
	if !bindJSON(c, &req) {
		return
	}
	l := &model.Location{Name: req.Name, TimeZone: req.TimeZone}
	if err := h.svc.Catalog.CreateLocation(c.Request.Context(), l); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, toLocation(l))
}

func (h *Handler) GetLocation(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	l, err := h.svc.Catalog.GetLocation(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toLocation(l))
}

func (h *Handler) UpdateLocation(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req locationRequest
	if !bindJSON(c, &req) {
		return
	}
	l := &model.Location{ID: id, Name: req.Name, TimeZone: req.TimeZone}
	if err := h.svc.Catalog.UpdateLocation(c.Request.Context(), l); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toLocation(l))
}

// ---- rooms ----

// GET /locations/:id/rooms?active=true
func (h *Handler) ListRooms(c *gin.Context) {
	locationID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	list, err := h.svc.Catalog.ListRooms(c.Request.Context(), locationID, queryBool(c, "active"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, mapSlice(list, toRoom))
}

func (h *Handler) CreateRoom(c *gin.Context) {
	locationID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req roomRequest
	if !bindJSON(c, &req) {
		return
	}
	r := &model.Room{
		LocationID: locationID,
		Name:       req.Name,
		HourlyRate: req.HourlyRate,
		Active:     activeOr(req.Active),
		SortOrder:  req.SortOrder,
		Color:      req.Color,
	}
	if err := h.svc.Catalog.CreateRoom(c.Request.Context(), r); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, toRoom(r))
}

func (h *Handler) GetRoom(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	r, err := h.svc.Catalog.GetRoom(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toRoom(r))
}

func (h *Handler) UpdateRoom(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req roomRequest
	if !bindJSON(c, &req) {
		return
	}
	r := &model.Room{
		ID:         id,
		Name:       req.Name,
		HourlyRate: req.HourlyRate,
		Active:     activeOr(req.Active),
		SortOrder:  req.SortOrder,
		Color:      req.Color,
	}
	if err := h.svc.Catalog.UpdateRoom(c.Request.Context(), r); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toRoom(r))
}

func (h *Handler) DeleteRoom(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	res, err := h.svc.Catalog.DeleteRoom(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ---- service providers ----

func (h *Handler) ListProviders(c *gin.Context) {
	locationID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	list, err := h.svc.Catalog.ListProviders(c.Request.Context(), locationID, queryBool(c, "active"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, mapSlice(list, toProvider))
}

func (h *Handler) CreateProvider(c *gin.Context) {
	locationID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req providerRequest
	if !bindJSON(c, &req) {
		return
	}
	p := &model.ServiceProvider{
		LocationID: locationID,
		Name:       req.Name,
		Active:     activeOr(req.Active),
		SortOrder:  req.SortOrder,
		Color:      req.Color,
	}
	if err := h.svc.Catalog.CreateProvider(c.Request.Context(), p); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, toProvider(p))
}

func (h *Handler) GetProvider(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	p, err := h.svc.Catalog.GetProvider(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toProvider(p))
}

func (h *Handler) UpdateProvider(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req providerRequest
	if !bindJSON(c, &req) {
		return
	}
	p := &model.ServiceProvider{
		ID:        id,
		Name:      req.Name,
		Active:    activeOr(req.Active),
		SortOrder: req.SortOrder,
		Color:     req.Color,
	}
	if err := h.svc.Catalog.UpdateProvider(c.Request.Context(), p); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toProvider(p))
}

func (h *Handler) DeleteProvider(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	res, err := h.svc.Catalog.DeleteProvider(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ---- duration options ----

func (h *Handler) ListDurationOptions(c *gin.Context) {
	locationID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	list, err := h.svc.Catalog.ListDurationOptions(c.Request.Context(), locationID, queryBool(c, "active"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, mapSlice(list, toDurationOption))
}

func (req durationOptionRequest) option() *model.DurationOption {
	return &model.DurationOption{
		Label:       req.Label,
		Minutes:     req.Minutes,
		MinMinutes:  req.MinMinutes,
		MaxMinutes:  req.MaxMinutes,
		StepMinutes: req.StepMinutes,
		Active:      activeOr(req.Active),
		SortOrder:   req.SortOrder,
	}
}

func (h *Handler) CreateDurationOption(c *gin.Context) {
	locationID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req durationOptionRequest
	if !bindJSON(c, &req) {
		return
	}
	d := req.option()
	d.LocationID = locationID
	if err := h.svc.Catalog.CreateDurationOption(c.Request.Context(), d); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, toDurationOption(d))
}

func (h *Handler) UpdateDurationOption(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req durationOptionRequest
	if !bindJSON(c, &req) {
		return
	}
	d := req.option()
	d.ID = id
	if err := h.svc.Catalog.UpdateDurationOption(c.Request.Context(), d); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toDurationOption(d))
}

func (h *Handler) DeleteDurationOption(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Catalog.DeleteDurationOption(c.Request.Context(), id); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ---- upgrades ----

func (h *Handler) ListUpgrades(c *gin.Context) {
	list, err := h.svc.Catalog.ListUpgrades(c.Request.Context(), queryBool(c, "active"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, mapSlice(list, toUpgrade))
}

func (h *Handler) CreateUpgrade(c *gin.Context) {
	var req upgradeRequest
	if !bindJSON(c, &req) {
		return
	}
	u := &model.Upgrade{Name: req.Name, Active: activeOr(req.Active)}
	if err := h.svc.Catalog.CreateUpgrade(c.Request.Context(), u); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, toUpgrade(u))
}

func (h *Handler) GetUpgrade(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	u, err := h.svc.Catalog.GetUpgrade(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toUpgrade(u))
}

func (h *Handler) UpdateUpgrade(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req upgradeRequest
	if !bindJSON(c, &req) {
		return
	}
	u := &model.Upgrade{ID: id, Name: req.Name, Active: activeOr(req.Active)}
	if err := h.svc.Catalog.UpdateUpgrade(c.Request.Context(), u); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toUpgrade(u))
}

func (h *Handler) DeleteUpgrade(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	res, err := h.svc.Catalog.DeleteUpgrade(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
