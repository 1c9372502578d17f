package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/bukufunnel/internal/config"
	"github.com/example/bukufunnel/internal/models"
	"github.com/example/bukufunnel/internal/utils"
)

// AdminHandler serves the operator login and ledger listings.
type AdminHandler struct {
	db  *gorm.DB
	cfg *config.Config
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(db *gorm.DB, cfg *config.Config) *AdminHandler {
	return &AdminHandler{db: db, cfg: cfg}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login verifies the configured admin credentials and issues a JWT.
func (h *AdminHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if h.cfg.AdminEmail == "" || h.cfg.AdminPasswordHash == "" {
		return fiber.NewError(fiber.StatusForbidden, "admin access is not configured")
	}

	if !strings.EqualFold(strings.TrimSpace(req.Email), h.cfg.AdminEmail) ||
		!utils.CheckPassword(h.cfg.AdminPasswordHash, req.Password) {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")
	}

	token, err := utils.GenerateToken(h.cfg.JWTSecret, h.cfg.AdminEmail, h.cfg.TokenExpires)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"token": token},
	})
}

// ListBills returns the payment-bill ledger, newest first.
func (h *AdminHandler) ListBills(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.PaymentBill{})

	if status := strings.TrimSpace(c.Query("status")); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var bills []models.PaymentBill
	if err := query.
		Order("created_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&bills).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    bills,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// ListFollowupRuns returns dispatcher run history, newest first.
func (h *AdminHandler) ListFollowupRuns(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.FollowupRun{})

	if skipped := strings.TrimSpace(c.Query("skipped")); skipped != "" {
		query = query.Where("skipped = ?", skipped == "true")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var runs []models.FollowupRun
	if err := query.
		Order("ran_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&runs).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    runs,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}
