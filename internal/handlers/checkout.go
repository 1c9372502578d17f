package handlers

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/bukufunnel/internal/config"
	"github.com/example/bukufunnel/internal/models"
	"github.com/example/bukufunnel/internal/services"
	"github.com/example/bukufunnel/internal/utils"
)

// Payment methods accepted by the checkout form.
const (
	PaymentMethodFPX = "fpx"
	PaymentMethodCOD = "cod"
)

var validate = validator.New()

// CheckoutHandler manages the checkout funnel endpoint.
type CheckoutHandler struct {
	db      *gorm.DB
	store   services.OrderStore
	gateway *services.GatewayService
	chat    services.ChatSender
	mail    services.MailSender
	cfg     *config.Config
}

// NewCheckoutHandler constructs CheckoutHandler.
func NewCheckoutHandler(db *gorm.DB, store services.OrderStore, gateway *services.GatewayService, chat services.ChatSender, mail services.MailSender, cfg *config.Config) *CheckoutHandler {
	return &CheckoutHandler{db: db, store: store, gateway: gateway, chat: chat, mail: mail, cfg: cfg}
}

type checkoutRequest struct {
	Name          string  `json:"name" validate:"required,min=2"`
	Email         string  `json:"email" validate:"required,email"`
	Phone         string  `json:"phone" validate:"required,min=8"`
	PackageID     string  `json:"packageId" validate:"required"`
	Amount        float64 `json:"amount" validate:"required,gt=0"`
	PaymentMethod string  `json:"paymentMethod" validate:"required,oneof=fpx cod"`
}

// Checkout creates an order in the store and, for online banking, a payment
// gateway bill whose URL the customer is redirected to.
func (h *CheckoutHandler) Checkout(c *fiber.Ctx) error {
	var req checkoutRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := validate.Struct(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid checkout details: "+err.Error())
	}

	phone := utils.NormalizePhone(req.Phone)

	status := services.OrderStatusPending
	if req.PaymentMethod == PaymentMethodCOD {
		status = services.OrderStatusCODPending
	}

	ctx := c.Context()

	token, err := h.store.Authenticate(ctx)
	if err != nil {
		log.Printf("[Checkout] store auth failed: %v", err)
		return fiber.NewError(fiber.StatusBadGateway, "order store unavailable")
	}

	order, err := h.store.CreateOrder(ctx, token, map[string]any{
		"customerName":  req.Name,
		"customerEmail": req.Email,
		"customerPhone": phone,
		"amount":        req.Amount,
		"status":        status,
		"followupCount": 0,
		"createdAt":     time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		log.Printf("[Checkout] order creation failed: %v", err)
		return fiber.NewError(fiber.StatusBadGateway, "failed to create order")
	}

	if req.PaymentMethod == PaymentMethodCOD {
		go h.notifyCODOrder(order.ID, req)

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"success": true,
			"data": fiber.Map{
				"orderId": order.ID,
				"status":  status,
			},
		})
	}

	bill, err := h.gateway.CreateBill(ctx, services.BillParams{
		Name:        "Tempahan Buku",
		Description: fmt.Sprintf("Pakej %s", req.PackageID),
		Amount:      req.Amount,
		RefID:       order.ID,
		PayerName:   req.Name,
		PayerEmail:  req.Email,
		PayerPhone:  phone,
		ReturnURL:   h.cfg.SiteURL + "/terima-kasih",
		CallbackURL: h.cfg.SiteURL + "/api/payment/callback",
	})
	if err != nil {
		log.Printf("[Checkout] bill creation failed for order %s: %v", order.ID, err)
		return fiber.NewError(fiber.StatusBadGateway, "failed to create payment bill")
	}

	if err := h.store.UpdateOrder(ctx, token, order.ID, map[string]any{
		"paymentMetadata": services.PaymentMetadata{
			PackageID:  req.PackageID,
			RefID:      bill.BillCode,
			PaymentURL: bill.PaymentURL,
		},
	}); err != nil {
		log.Printf("[Checkout] failed to attach payment metadata to order %s: %v", order.ID, err)
	}

	ledger := models.PaymentBill{
		OrderRef:      order.ID,
		BillCode:      bill.BillCode,
		CustomerName:  req.Name,
		CustomerEmail: req.Email,
		CustomerPhone: phone,
		PackageID:     req.PackageID,
		Amount:        req.Amount,
		Status:        models.BillStatusCreated,
	}
	if err := h.db.Create(&ledger).Error; err != nil {
		log.Printf("[Checkout] failed to record bill %s: %v", bill.BillCode, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"orderId":    order.ID,
			"status":     status,
			"paymentUrl": bill.PaymentURL,
		},
	})
}

// notifyCODOrder alerts the operator and confirms with the customer after a
// cash-on-delivery order. Failures are logged, never surfaced to the buyer.
func (h *CheckoutHandler) notifyCODOrder(orderID string, req checkoutRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if h.chat.Enabled() && h.cfg.OperatorChatID != "" {
		text := fmt.Sprintf(`📦 TEMPAHAN COD BARU
Nama: %s
Telefon: %s
Pakej: %s
Jumlah: %s
Order: %s`,
			req.Name, req.Phone, req.PackageID, services.FormatAmount(req.Amount), orderID)
		if err := h.chat.Send(ctx, h.cfg.OperatorChatID, text); err != nil {
			log.Printf("[Checkout] COD operator alert failed for order %s: %v", orderID, err)
		}
	}

	html := fmt.Sprintf(`<p>Hai %s,</p>
<p>Tempahan COD anda untuk pakej <b>%s</b> (%s) telah diterima.</p>
<p>Kami akan menghubungi anda untuk pengesahan penghantaran.</p>
<p>Terima kasih,<br>Tim Buku</p>`,
		req.Name, req.PackageID, services.FormatAmount(req.Amount))
	if err := h.mail.Send(ctx, req.Email, req.Name, "Tempahan COD anda diterima", html); err != nil {
		log.Printf("[Checkout] COD confirmation email failed for order %s: %v", orderID, err)
	}
}
