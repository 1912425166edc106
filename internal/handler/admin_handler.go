package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"paybridge/config"
	"paybridge/internal/auth"
	"paybridge/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type OrderReader interface {
	GetByOrderID(ctx context.Context, orderID string) (*models.Order, error)
	List(ctx context.Context, status string, limit, offset int) ([]models.Order, int64, error)
}

type RewardReader interface {
	GetAccount(ctx context.Context, customerID string) (*models.RewardAccount, error)
	ListEntries(ctx context.Context, customerID string, limit int) ([]models.RewardEntry, error)
}

type AdminHandler struct {
	cfg     *config.AdminConfig
	orders  OrderReader
	rewards RewardReader
}

func NewAdminHandler(cfg *config.AdminConfig, orders OrderReader, rewards RewardReader) *AdminHandler {
	return &AdminHandler{cfg: cfg, orders: orders, rewards: rewards}
}

// Login handles POST /admin/login.
func (h *AdminHandler) Login(c *gin.Context) {
	var req struct {
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := auth.CheckAdminPassword(h.cfg, req.Password); err != nil {
		if errors.Is(err, auth.ErrAdminDisabled) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "admin login disabled"})
			return
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	token, exp, err := auth.GenerateAdminToken(h.cfg, time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": token, "expires_at": exp})
}

// ListOrders handles GET /admin/orders.
func (h *AdminHandler) ListOrders(c *gin.Context) {
	page, limit := parsePagination(c)
	list, total, err := h.orders.List(c.Request.Context(), c.Query("status"), limit, (page-1)*limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list orders"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list, "total": total, "page": page, "limit": limit})
}

// GetOrder handles GET /admin/orders/:id.
func (h *AdminHandler) GetOrder(c *gin.Context) {
	o, err := h.orders.GetByOrderID(c.Request.Context(), c.Param("id"))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load order"})
		return
	}
	c.JSON(http.StatusOK, o)
}

// GetRewards handles GET /admin/rewards/:customer_id.
func (h *AdminHandler) GetRewards(c *gin.Context) {
	customerID := c.Param("customer_id")
	acct, err := h.rewards.GetAccount(c.Request.Context(), customerID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no reward account"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load rewards"})
		return
	}
	_, limit := parsePagination(c)
	entries, err := h.rewards.ListEntries(c.Request.Context(), customerID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load reward history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"account": acct, "entries": entries})
}

func parsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}
