package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/example/bukufunnel/internal/models"
	"github.com/example/bukufunnel/internal/utils"
)

// Cumulative age thresholds for the three reminder sequences, measured from
// order creation (not from the previous reminder).
const (
	firstFollowupAge  = time.Hour
	secondFollowupAge = 24 * time.Hour
	thirdFollowupAge  = 72 * time.Hour
)

// maxFollowups caps the reminder series; orders at this count are never
// touched again.
const maxFollowups = 3

// NextSequence resolves which reminder an order is due for, given how many
// reminders it has already received and its age. The progression is strictly
// linear: count 0 unlocks sequence 1 at one hour, count 1 unlocks sequence 2
// at one day, count 2 unlocks sequence 3 at three days. Because age is
// absolute, an order evaluated for the first time long after creation still
// receives sequence 1 first; it catches up one sequence per eligible run.
func NextSequence(followupCount int, age time.Duration) (int, bool) {
	switch followupCount {
	case 0:
		if age >= firstFollowupAge {
			return 1, true
		}
	case 1:
		if age >= secondFollowupAge {
			return 2, true
		}
	case 2:
		if age >= thirdFollowupAge {
			return 3, true
		}
	}
	return 0, false
}

// FollowupConfig carries everything the dispatcher needs besides its
// collaborators, so runs are pure with respect to process environment.
type FollowupConfig struct {
	Windows   []HourRange
	UTCOffset int // business-timezone offset in hours
	PageSize  int
	SkipPaid  bool // skip pending orders whose customer already paid elsewhere
	SiteURL   string
}

// DispatchResult records one processed order.
type DispatchResult struct {
	OrderID  string `json:"orderId"`
	Sequence int    `json:"sequence"`
	Sent     bool   `json:"sent"`
}

// DispatchReport aggregates the outcome of one dispatcher run.
type DispatchReport struct {
	Skipped   bool             `json:"skipped,omitempty"`
	Reason    string           `json:"reason,omitempty"`
	Hour      int              `json:"hour"`
	Processed int              `json:"processed"`
	Results   []DispatchResult `json:"results"`
}

// FollowupService polls the order store for abandoned orders and dispatches
// escalating reminders over chat and email.
type FollowupService struct {
	db    *gorm.DB
	store OrderStore
	chat  ChatSender
	mail  MailSender
	cfg   FollowupConfig

	mu sync.Mutex // single-flight guard; overlapping runs would double-send
}

// NewFollowupService constructs the dispatcher. db may be nil, in which case
// run auditing is disabled.
func NewFollowupService(db *gorm.DB, store OrderStore, chat ChatSender, mail MailSender, cfg FollowupConfig) *FollowupService {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 200
	}
	return &FollowupService{db: db, store: store, chat: chat, mail: mail, cfg: cfg}
}

// Run executes one dispatcher pass at the given time. Store-level failures
// (auth, list) abort the run; everything below order level is logged and
// survived. Orders are processed one at a time, so a crash mid-run leaves
// already-updated orders advanced and the rest untouched; re-running is safe.
func (s *FollowupService) Run(ctx context.Context, now time.Time) (*DispatchReport, error) {
	if !s.mu.TryLock() {
		return &DispatchReport{Skipped: true, Reason: "previous run still in progress"}, nil
	}
	defer s.mu.Unlock()

	hour := now.UTC().Add(time.Duration(s.cfg.UTCOffset) * time.Hour).Hour()
	if !InSendWindow(s.cfg.Windows, hour) {
		report := &DispatchReport{
			Skipped: true,
			Reason:  fmt.Sprintf("outside send window (hour %d)", hour),
			Hour:    hour,
		}
		s.recordRun(now, report)
		return report, nil
	}

	token, err := s.store.Authenticate(ctx)
	if err != nil {
		return nil, fmt.Errorf("store auth: %w", err)
	}

	orders, err := s.store.ListOrders(ctx, token, OrderFilter{Status: OrderStatusPending, Limit: s.cfg.PageSize})
	if err != nil {
		return nil, fmt.Errorf("list pending orders: %w", err)
	}

	paidEmails, paidPhones := s.paidCustomerSets(ctx, token)

	chatEnabled := s.chat.Enabled()
	if !chatEnabled {
		log.Println("[Followup] chat gateway not configured, chat channel disabled for this run")
	}

	report := &DispatchReport{Hour: hour, Results: []DispatchResult{}}
	for _, order := range orders {
		if order.Status != OrderStatusPending || order.FollowupCount >= maxFollowups {
			continue
		}

		if s.cfg.SkipPaid && alreadyPaidCustomer(order, paidEmails, paidPhones) {
			log.Printf("[Followup] order %s customer already paid elsewhere, skipping", order.ID)
			continue
		}

		createdAt, ok := OrderCreatedAt(order)
		if !ok {
			log.Printf("[Followup] order %s has no usable creation timestamp, skipping", order.ID)
			continue
		}

		sequence, due := NextSequence(order.FollowupCount, now.Sub(createdAt))
		if !due {
			continue
		}

		s.dispatch(ctx, order, sequence, chatEnabled)

		// Advance the counter regardless of channel outcome. A failed send is
		// never retried; the order moves past that sequence permanently.
		if err := s.store.UpdateOrder(ctx, token, order.ID, map[string]any{
			"followupCount":  order.FollowupCount + 1,
			"lastFollowupAt": now.UTC().Format(time.RFC3339),
		}); err != nil {
			log.Printf("[Followup] failed to update order %s: %v", order.ID, err)
		}

		report.Results = append(report.Results, DispatchResult{OrderID: order.ID, Sequence: sequence, Sent: true})
	}

	report.Processed = len(report.Results)
	s.recordRun(now, report)
	return report, nil
}

// paidCustomerSets collects emails and normalized phones of customers with a
// paid order, so a pending order from the same person is not nudged. The
// fetch is best-effort: on failure the reconciliation is skipped for this
// run rather than aborting it.
func (s *FollowupService) paidCustomerSets(ctx context.Context, token string) (map[string]struct{}, map[string]struct{}) {
	if !s.cfg.SkipPaid {
		return nil, nil
	}

	paid, err := s.store.ListOrders(ctx, token, OrderFilter{Status: OrderStatusPaid, Limit: s.cfg.PageSize})
	if err != nil {
		log.Printf("[Followup] paid-order reconciliation fetch failed: %v", err)
		return nil, nil
	}

	emails := make(map[string]struct{}, len(paid))
	phones := make(map[string]struct{}, len(paid))
	for _, order := range paid {
		if email := strings.ToLower(strings.TrimSpace(order.CustomerEmail)); email != "" {
			emails[email] = struct{}{}
		}
		if digits := utils.DigitsOnly(order.CustomerPhone); digits != "" {
			phones[digits] = struct{}{}
		}
	}
	return emails, phones
}

func alreadyPaidCustomer(order StoreOrder, paidEmails, paidPhones map[string]struct{}) bool {
	if email := strings.ToLower(strings.TrimSpace(order.CustomerEmail)); email != "" {
		if _, ok := paidEmails[email]; ok {
			return true
		}
	}
	if digits := utils.DigitsOnly(order.CustomerPhone); digits != "" {
		if _, ok := paidPhones[digits]; ok {
			return true
		}
	}
	return false
}

// dispatch sends the reminder for one sequence. Sequence 1 goes out over
// chat, sequence 2 over email, sequence 3 over both. The channel calls run
// concurrently and are awaited jointly; either may fail without blocking the
// other or the state update that follows.
func (s *FollowupService) dispatch(ctx context.Context, order StoreOrder, sequence int, chatEnabled bool) {
	link := s.cfg.SiteURL
	packageID := ""
	if order.PaymentMetadata != nil {
		if order.PaymentMetadata.PaymentURL != "" {
			link = order.PaymentMetadata.PaymentURL
		}
		packageID = order.PaymentMetadata.PackageID
	}

	var wg sync.WaitGroup

	if (sequence == 1 || sequence == 3) && chatEnabled {
		chatID := utils.ChatID(order.CustomerPhone)
		if chatID == "" {
			log.Printf("[Followup] order %s has no usable phone, skipping chat reminder", order.ID)
		} else {
			text := reminderText(sequence, order.CustomerName, packageID, order.Amount, link)
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := s.chat.Send(ctx, chatID, text); err != nil {
					log.Printf("[Followup] chat reminder %d for order %s failed: %v", sequence, order.ID, err)
				}
			}()
		}
	}

	if sequence == 2 || sequence == 3 {
		subject, html := reminderEmail(sequence, order.CustomerName, packageID, order.Amount, link)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.mail.Send(ctx, order.CustomerEmail, order.CustomerName, subject, html); err != nil {
				log.Printf("[Followup] email reminder %d for order %s failed: %v", sequence, order.ID, err)
			}
		}()
	}

	wg.Wait()
}

// recordRun persists the run to the audit ledger, best-effort.
func (s *FollowupService) recordRun(now time.Time, report *DispatchReport) {
	if s.db == nil {
		return
	}

	resultsJSON := ""
	if len(report.Results) > 0 {
		if data, err := json.Marshal(report.Results); err == nil {
			resultsJSON = string(data)
		}
	}

	run := models.FollowupRun{
		RanAt:       now,
		Skipped:     report.Skipped,
		SkipReason:  report.Reason,
		Hour:        report.Hour,
		Processed:   report.Processed,
		ResultsJSON: resultsJSON,
	}
	if err := s.db.Create(&run).Error; err != nil {
		log.Printf("[Followup] failed to record run: %v", err)
	}
}
