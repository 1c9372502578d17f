package handlers

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/bukufunnel/internal/config"
	"github.com/example/bukufunnel/internal/models"
	"github.com/example/bukufunnel/internal/services"
)

// Gateway callback status codes.
const (
	callbackStatusPaid   = "1"
	callbackStatusFailed = "3"
)

// WebhookHandler receives payment-gateway callbacks.
type WebhookHandler struct {
	db    *gorm.DB
	store services.OrderStore
	chat  services.ChatSender
	mail  services.MailSender
	cfg   *config.Config
}

// NewWebhookHandler constructs WebhookHandler.
func NewWebhookHandler(db *gorm.DB, store services.OrderStore, chat services.ChatSender, mail services.MailSender, cfg *config.Config) *WebhookHandler {
	return &WebhookHandler{db: db, store: store, chat: chat, mail: mail, cfg: cfg}
}

type paymentCallback struct {
	RefNo    string `form:"refno" json:"refno"`
	Status   string `form:"status" json:"status"`
	BillCode string `form:"billcode" json:"billcode"`
	OrderID  string `form:"order_id" json:"order_id"`
	Amount   string `form:"amount" json:"amount"`
}

// PaymentCallback handles the gateway's payment notification. The gateway
// retries on non-200, so once the payload parses the handler always replies
// OK and deals with its own failures internally.
func (h *WebhookHandler) PaymentCallback(c *fiber.Ctx) error {
	var cb paymentCallback
	if err := c.BodyParser(&cb); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid callback body")
	}
	if cb.BillCode == "" {
		return fiber.NewError(fiber.StatusBadRequest, "missing billcode")
	}

	log.Printf("[Webhook] callback for bill %s: status=%s ref=%s", cb.BillCode, cb.Status, cb.RefNo)

	var bill models.PaymentBill
	err := h.db.Where("bill_code = ?", cb.BillCode).First(&bill).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			log.Printf("[Webhook] bill lookup failed for %s: %v", cb.BillCode, err)
		} else {
			log.Printf("[Webhook] no ledger row for bill %s", cb.BillCode)
		}
	}

	updates := map[string]any{
		"raw_callback": string(c.Body()),
	}

	switch cb.Status {
	case callbackStatusPaid:
		now := time.Now()
		updates["status"] = models.BillStatusPaid
		updates["paid_at"] = &now
	case callbackStatusFailed:
		updates["status"] = models.BillStatusFailed
	}

	if bill.BillCode != "" {
		if err := h.db.Model(&models.PaymentBill{}).Where("bill_code = ?", cb.BillCode).Updates(updates).Error; err != nil {
			log.Printf("[Webhook] failed to update bill %s: %v", cb.BillCode, err)
		}
	}

	if cb.Status == callbackStatusPaid {
		orderID := bill.OrderRef
		if orderID == "" {
			orderID = cb.OrderID
		}
		go h.settleOrder(orderID, bill)
	}

	return c.SendString("OK")
}

// settleOrder marks the store order paid and sends the confirmations. Runs
// detached from the callback response; every step is best-effort.
func (h *WebhookHandler) settleOrder(orderID string, bill models.PaymentBill) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if orderID != "" {
		token, err := h.store.Authenticate(ctx)
		if err != nil {
			log.Printf("[Webhook] store auth failed while settling order %s: %v", orderID, err)
		} else if err := h.store.UpdateOrder(ctx, token, orderID, map[string]any{
			"status": services.OrderStatusPaid,
		}); err != nil {
			log.Printf("[Webhook] failed to mark order %s paid: %v", orderID, err)
		}
	}

	if bill.CustomerEmail != "" {
		html := fmt.Sprintf(`<p>Hai %s,</p>
<p>Pembayaran anda sebanyak <b>%s</b> telah diterima. 🎉</p>
<p>Buku anda akan diproses untuk penghantaran dalam masa 1-3 hari bekerja.</p>
<p>Terima kasih,<br>Tim Buku</p>`,
			bill.CustomerName, services.FormatAmount(bill.Amount))
		if err := h.mail.Send(ctx, bill.CustomerEmail, bill.CustomerName, "Pembayaran diterima!", html); err != nil {
			log.Printf("[Webhook] receipt email failed for order %s: %v", orderID, err)
		}
	}

	if h.chat.Enabled() && h.cfg.OperatorChatID != "" {
		text := fmt.Sprintf(`✅ PEMBAYARAN DITERIMA
Nama: %s
Jumlah: %s
Bill: %s
Order: %s`,
			bill.CustomerName, services.FormatAmount(bill.Amount), bill.BillCode, orderID)
		if err := h.chat.Send(ctx, h.cfg.OperatorChatID, text); err != nil {
			log.Printf("[Webhook] operator alert failed for order %s: %v", orderID, err)
		}
	}
}
