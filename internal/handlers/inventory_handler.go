package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"elderlink/internal/responses"
	"elderlink/internal/services"
)

type InventoryHandler struct {
	inventoryService *services.InventoryService
}

func NewInventoryHandler(inventoryService *services.InventoryService) *InventoryHandler {
	return &InventoryHandler{inventoryService: inventoryService}
}

type inventoryRequest struct {
	MedicineName   string `json:"medicine_name"    binding:"required,max=200"`
	GenericName    string `json:"generic_name"     binding:"max=200"`
	Manufacturer   string `json:"manufacturer"     binding:"max=200"`
	BatchNumber    string `json:"batch_number"     binding:"max=100"`
	Quantity       int    `json:"quantity"         binding:"gte=0"`
	Unit           string `json:"unit"             binding:"max=32"`
	UnitPriceCents int64  `json:"unit_price_cents" binding:"gte=0"`
	ReorderLevel   int    `json:"reorder_level"    binding:"gte=0"`
	ExpiryDate     string `json:"expiry_date"      binding:"required,datetime=2006-01-02"`
}

func (h *InventoryHandler) bind(c *gin.Context) (services.InventoryInput, bool) {
	var req inventoryRequest
	if !bindJSON(c, &req) {
		return services.InventoryInput{}, false
	}
	expiry, err := time.Parse(dateLayout, req.ExpiryDate)
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid expiry_date")
		return services.InventoryInput{}, false
	}
	return services.InventoryInput{
		MedicineName:   req.MedicineName,
		GenericName:    req.GenericName,
		Manufacturer:   req.Manufacturer,
		BatchNumber:    req.BatchNumber,
		Quantity:       req.Quantity,
		Unit:           req.Unit,
		UnitPriceCents: req.UnitPriceCents,
		ReorderLevel:   req.ReorderLevel,
		ExpiryDate:     expiry,
	}, true
}

func (h *InventoryHandler) Create(c *gin.Context) {
	in, ok := h.bind(c)
	if !ok {
		return
	}
	item, err := h.inventoryService.Create(c.Request.Context(), actor(c), in)
	if err != nil {
		respondError(c, err, "Failed to add stock")
		return
	}
	responses.Success(c, http.StatusCreated, item, "Stock added successfully")
}

// List handles GET /api/v1/inventory?search=&low_stock=true
func (h *InventoryHandler) List(c *gin.Context) {
	page := pagination(c)
	items, total, err := h.inventoryService.List(c.Request.Context(), actor(c), services.InventoryListFilter{
		Search:   c.Query("search"),
		LowStock: c.Query("low_stock") == "true",
	}, page)
	if err != nil {
		respondError(c, err, "Failed to list inventory")
		return
	}
	paginated(c, items, page, total, "Inventory retrieved successfully")
}

func (h *InventoryHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	item, err := h.inventoryService.Get(c.Request.Context(), actor(c), id)
	if err != nil {
		respondError(c, err, "Failed to retrieve stock item")
		return
	}
	responses.Success(c, http.StatusOK, item, "Stock item retrieved successfully")
}

func (h *InventoryHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	in, ok := h.bind(c)
	if !ok {
		return
	}
	item, err := h.inventoryService.Update(c.Request.Context(), actor(c), id, in)
	if err != nil {
		respondError(c, err, "Failed to update stock item")
		return
	}
	responses.Success(c, http.StatusOK, item, "Stock item updated successfully")
}

func (h *InventoryHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.inventoryService.Delete(c.Request.Context(), actor(c), id); err != nil {
		respondError(c, err, "Failed to delete stock item")
		return
	}
	responses.Success(c, http.StatusOK, nil, "Stock item deleted successfully")
}

// Adjust handles PATCH /api/v1/inventory/:id/adjust
func (h *InventoryHandler) Adjust(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Delta  int    `json:"delta"  binding:"required"`
		Reason string `json:"reason" binding:"max=500"`
	}
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.inventoryService.Adjust(c.Request.Context(), actor(c), id, req.Delta, req.Reason)
	if err != nil {
		respondError(c, err, "Failed to adjust stock")
		return
	}
	responses.Success(c, http.StatusOK, item, "Stock adjusted successfully")
}

// Movements handles GET /api/v1/inventory/:id/movements
func (h *InventoryHandler) Movements(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	page := pagination(c)
	movements, total, err := h.inventoryService.Movements(c.Request.Context(), actor(c), id, page)
	if err != nil {
		respondError(c, err, "Failed to list stock movements")
		return
	}
	paginated(c, movements, page, total, "Stock movements retrieved successfully")
}

func (h *InventoryHandler) Alerts(c *gin.Context) {
	alerts, err := h.inventoryService.Alerts(c.Request.Context(), actor(c))
	if err != nil {
		respondError(c, err, "Failed to load stock alerts")
		return
	}
	responses.Success(c, http.StatusOK, alerts, "Stock alerts retrieved successfully")
}
