package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rl1809/inventory-sale/internal/core/domain"
	"github.com/rl1809/inventory-sale/internal/core/service"
	"github.com/rl1809/inventory-sale/internal/port"
)

type HTTPHandler struct {
	engine  *service.SaleTransactionEngine
	catalog port.ItemCatalog
	log     *zap.Logger
}

func NewHTTPHandler(engine *service.SaleTransactionEngine, catalog port.ItemCatalog, log *zap.Logger) *HTTPHandler {
	return &HTTPHandler{engine: engine, catalog: catalog, log: log}
}

// Register mounts all routes on the router.
func (h *HTTPHandler) Register(r *gin.Engine) {
	r.GET("/health", h.HealthCheck)
	api := r.Group("/api")
	api.POST("/sales", h.Sell)
	api.POST("/items", h.CreateItem)
	api.GET("/items/:id", h.GetItem)
	api.PUT("/items/:id/prices", h.UpdateItemPrices)
}

type SellLineRequest struct {
	ItemID   string `json:"item_id" binding:"required"`
	Quantity int    `json:"quantity" binding:"required"`
}

type SellRequest struct {
	OwnerID   string            `json:"owner_id" binding:"required"`
	RequestID string            `json:"request_id"`
	Lines     []SellLineRequest `json:"lines"`
}

type ErrorResponse struct {
	Error     string `json:"error"`
	Reason    string `json:"reason,omitempty"`
	ItemID    string `json:"item_id,omitempty"`
	Available int    `json:"available,omitempty"`
	Requested int    `json:"requested,omitempty"`
	Step      string `json:"step,omitempty"`
}

func (h *HTTPHandler) Sell(c *gin.Context) {
	var req SellRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = req.RequestID
	}

	lines := make([]domain.SaleLine, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, domain.SaleLine{ItemID: l.ItemID, Quantity: l.Quantity})
	}

	receipt, err := h.engine.Sell(c.Request.Context(), req.OwnerID, requestID, lines)
	if err != nil {
		h.writeSaleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, receipt)
}

func (h *HTTPHandler) writeSaleError(c *gin.Context, err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		status := http.StatusBadRequest
		switch verr.Reason {
		case domain.ReasonUnknownItem:
			status = http.StatusNotFound
		case domain.ReasonInsufficientStock:
			status = http.StatusConflict
		}
		c.JSON(status, ErrorResponse{
			Error:     verr.Error(),
			Reason:    string(verr.Reason),
			ItemID:    verr.ItemID,
			Available: verr.Available,
			Requested: verr.Requested,
		})
		return
	}

	if errors.Is(err, service.ErrDuplicateRequest) {
		c.JSON(http.StatusConflict, ErrorResponse{Error: "duplicate request", Reason: "DUPLICATE_REQUEST"})
		return
	}
	if errors.Is(err, port.ErrConflict) {
		c.JSON(http.StatusConflict, ErrorResponse{Error: "sale conflicted with concurrent writes, retry later", Reason: "CONFLICT"})
		return
	}

	var uerr *service.UnavailableError
	if errors.As(err, &uerr) {
		h.log.Error("sale unavailable", zap.String("step", uerr.Step), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "sale unavailable", Reason: "UNAVAILABLE", Step: uerr.Step})
		return
	}

	h.log.Error("sale failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}

type CreateItemRequest struct {
	ID          string          `json:"id"`
	OwnerID     string          `json:"owner_id" binding:"required"`
	Name        string          `json:"name" binding:"required"`
	BuyerPrice  decimal.Decimal `json:"buyer_price"`
	SellerPrice decimal.Decimal `json:"seller_price"`
	Quantity    int             `json:"quantity"`
}

func (h *HTTPHandler) CreateItem(c *gin.Context) {
	var req CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	if req.Quantity < 0 || req.BuyerPrice.IsNegative() || req.SellerPrice.IsNegative() {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "quantity and prices must not be negative"})
		return
	}

	item := &domain.InventoryItem{
		ID:          req.ID,
		OwnerID:     req.OwnerID,
		Name:        req.Name,
		BuyerPrice:  req.BuyerPrice,
		SellerPrice: req.SellerPrice,
		Quantity:    req.Quantity,
	}
	if item.ID == "" {
		item.ID = uuid.New().String()
	}

	if err := h.catalog.CreateItem(c.Request.Context(), item); err != nil {
		if errors.Is(err, port.ErrConflict) {
			c.JSON(http.StatusConflict, ErrorResponse{Error: "item already exists"})
			return
		}
		h.log.Error("create item failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
		return
	}

	c.JSON(http.StatusCreated, item)
}

type UpdateItemPricesRequest struct {
	BuyerPrice  decimal.Decimal `json:"buyer_price"`
	SellerPrice decimal.Decimal `json:"seller_price"`
}

func (h *HTTPHandler) UpdateItemPrices(c *gin.Context) {
	var req UpdateItemPricesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	if req.BuyerPrice.IsNegative() || req.SellerPrice.IsNegative() {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "prices must not be negative"})
		return
	}

	err := h.catalog.UpdateItemPrices(c.Request.Context(), c.Param("id"), req.BuyerPrice, req.SellerPrice)
	if errors.Is(err, port.ErrNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "item not found"})
		return
	}
	if err != nil {
		h.log.Error("update item prices failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

func (h *HTTPHandler) GetItem(c *gin.Context) {
	item, err := h.catalog.GetItem(c.Request.Context(), c.Param("id"))
	if errors.Is(err, port.ErrNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "item not found"})
		return
	}
	if err != nil {
		h.log.Error("get item failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *HTTPHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
