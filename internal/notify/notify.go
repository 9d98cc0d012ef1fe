// Package notify delivers daily reports and trade notifications to the
// configured channels. Delivery is best effort: a failed channel is
// reported but never blocks the trading step that produced the message.
package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"net/smtp"
	"strings"
	"sync"
	"time"

	"tecl-trader/internal/config"
	"tecl-trader/internal/logging"
	"tecl-trader/internal/models"
)

// Notifier defines the interface for sending notifications.
type Notifier interface {
	Send(ctx context.Context, n Notification) error
	SendReport(ctx context.Context, report models.DailyReport) error
	SendTrade(ctx context.Context, event models.TradeEvent) error
	SendError(ctx context.Context, err error, context string) error
}

// Channel defines the interface for one delivery channel.
type Channel interface {
	Name() string
	Send(ctx context.Context, n Notification) error
	IsEnabled() bool
}

// Notification represents a notification message.
type Notification struct {
	Type      NotificationType
	Title     string
	Message   string
	Data      map[string]interface{}
	Timestamp time.Time
}

// NotificationType represents the type of notification.
type NotificationType string

const (
	NotificationTrade  NotificationType = "trade"
	NotificationReport NotificationType = "report"
	NotificationError  NotificationType = "error"
)

// NotificationLevel represents the notification level filter.
type NotificationLevel string

const (
	LevelAll        NotificationLevel = "all"
	LevelTradesOnly NotificationLevel = "trades_only"
	LevelErrorsOnly NotificationLevel = "errors_only"
)

// MultiNotifier fans out to every enabled channel.
type MultiNotifier struct {
	channels []Channel
	level    NotificationLevel
	mu       sync.RWMutex
}

// NewMultiNotifier creates a MultiNotifier from configuration.
func NewMultiNotifier(cfg *config.NotificationConfig) *MultiNotifier {
	mn := &MultiNotifier{
		channels: make([]Channel, 0),
		level:    NotificationLevel(cfg.Level),
	}
	if mn.level == "" {
		mn.level = LevelAll
	}

	if cfg.Webhook.Enabled {
		mn.channels = append(mn.channels, NewWebhookNotifier(cfg.Webhook))
	}
	if cfg.Telegram.Enabled {
		mn.channels = append(mn.channels, NewTelegramNotifier(cfg.Telegram))
	}
	if cfg.Email.Enabled {
		mn.channels = append(mn.channels, NewEmailNotifier(cfg.Email))
	}
	return mn
}

// AddChannel adds a delivery channel.
func (mn *MultiNotifier) AddChannel(ch Channel) {
	mn.mu.Lock()
	defer mn.mu.Unlock()
	mn.channels = append(mn.channels, ch)
}

func (mn *MultiNotifier) shouldSend(notifType NotificationType) bool {
	switch mn.level {
	case LevelTradesOnly:
		return notifType == NotificationTrade
	case LevelErrorsOnly:
		return notifType == NotificationError
	default:
		return true
	}
}

// Send sends a notification to all enabled channels.
func (mn *MultiNotifier) Send(ctx context.Context, n Notification) error {
	if !mn.shouldSend(n.Type) {
		return nil
	}
	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now()
	}

	mn.mu.RLock()
	channels := mn.channels
	mn.mu.RUnlock()

	var errs []string
	for _, ch := range channels {
		if ch.IsEnabled() {
			if err := ch.Send(ctx, n); err != nil {
				errs = append(errs, fmt.Sprintf("%s: %v", ch.Name(), err))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("notification errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// SendReport sends the daily status report.
func (mn *MultiNotifier) SendReport(ctx context.Context, report models.DailyReport) error {
	title := fmt.Sprintf("📊 Daily Report - %s", report.Date.Format("2006-01-02"))
	switch {
	case report.Bought:
		title = fmt.Sprintf("🟢 Bought - %s", report.Date.Format("2006-01-02"))
	case report.Sold:
		title = fmt.Sprintf("🔴 Sold - %s", report.Date.Format("2006-01-02"))
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Open: %s | VIX: %.2f\n",
		FormatCurrency(report.PrimaryOpen), report.SecondaryOpen))
	if report.Trade != nil {
		sb.WriteString(fmt.Sprintf("%s %d shares @ %s (%s)\n",
			report.Trade.Action, report.Trade.ShareCount,
			FormatCurrency(report.Trade.Price), report.Trade.Reason))
	}
	if report.Position != nil {
		sb.WriteString(fmt.Sprintf("Holding %d @ %s, exit at %s (%+.2f%%)\n",
			report.Position.ShareCount,
			FormatCurrency(report.Position.PurchasePrice),
			FormatCurrency(report.Position.ExitPrice),
			report.Position.UnrealizedPct))
	} else if report.Flat != nil {
		if report.Flat.CooldownActive {
			sb.WriteString("Flat, cooling down after yesterday's sell\n")
		} else {
			sb.WriteString(fmt.Sprintf("Flat, buy below %s\n",
				FormatCurrency(report.Thresholds.Nearest)))
		}
	}
	fund, _ := report.Ledger.FundValue.Float64()
	bank, _ := report.Ledger.BankBalance.Float64()
	sb.WriteString(fmt.Sprintf("Fund: %s | Bank: %s",
		FormatCurrency(fund), FormatCurrency(bank)))

	payload, _ := json.Marshal(report)
	var data map[string]interface{}
	json.Unmarshal(payload, &data)

	return mn.Send(ctx, Notification{
		Type:    NotificationReport,
		Title:   title,
		Message: sb.String(),
		Data:    data,
	})
}

// SendTrade sends a trade notification.
func (mn *MultiNotifier) SendTrade(ctx context.Context, event models.TradeEvent) error {
	title := fmt.Sprintf("🔔 Trade Executed: %s", event.Action)
	fund, _ := event.FundValue.Float64()
	bank, _ := event.BankBalance.Float64()
	message := fmt.Sprintf(
		"Action: %s\nReason: %s\nShares: %d\nPrice: %s\nFund: %s\nBank: %s",
		event.Action,
		event.Reason,
		event.ShareCount,
		FormatCurrency(event.Price),
		FormatCurrency(fund),
		FormatCurrency(bank),
	)

	return mn.Send(ctx, Notification{
		Type:    NotificationTrade,
		Title:   title,
		Message: message,
		Data: map[string]interface{}{
			"date":        event.Date.Format("2006-01-02"),
			"action":      event.Action,
			"reason":      event.Reason,
			"price":       event.Price,
			"share_count": event.ShareCount,
		},
	})
}

// SendError sends an error notification. Error text can embed request URLs
// or config fragments that carry credentials, so it is masked before leaving
// the process.
func (mn *MultiNotifier) SendError(ctx context.Context, err error, errContext string) error {
	title := "❌ Error Occurred"
	errText := logging.MaskSensitive(err.Error())
	message := fmt.Sprintf("Context: %s\nError: %s\nTime: %s",
		errContext, errText, time.Now().Format("15:04:05"))

	return mn.Send(ctx, Notification{
		Type:    NotificationError,
		Title:   title,
		Message: message,
		Data: map[string]interface{}{
			"context": errContext,
			"error":   errText,
		},
	})
}

// FormatCurrency formats a dollar value with thousands separators.
func FormatCurrency(amount float64) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}

	str := fmt.Sprintf("%.2f", amount)
	parts := strings.Split(str, ".")
	intPart := parts[0]
	decPart := parts[1]

	n := len(intPart)
	var groups []string
	for n > 3 {
		groups = append([]string{intPart[n-3:]}, groups...)
		intPart = intPart[:n-3]
		n = len(intPart)
	}
	groups = append([]string{intPart}, groups...)

	result := "$" + strings.Join(groups, ",") + "." + decPart
	if negative {
		result = "-" + result
	}
	return result
}

// WebhookNotifier posts notifications as JSON to an HTTP endpoint.
type WebhookNotifier struct {
	url     string
	enabled bool
	client  *http.Client
}

// NewWebhookNotifier creates a new WebhookNotifier.
func NewWebhookNotifier(cfg config.WebhookConfig) *WebhookNotifier {
	return &WebhookNotifier{
		url:     cfg.URL,
		enabled: cfg.Enabled && cfg.URL != "",
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Name returns the name of the notifier.
func (w *WebhookNotifier) Name() string {
	return "webhook"
}

// IsEnabled returns whether the notifier is enabled.
func (w *WebhookNotifier) IsEnabled() bool {
	return w.enabled
}

// Send sends a notification via webhook.
func (w *WebhookNotifier) Send(ctx context.Context, n Notification) error {
	if !w.enabled {
		return nil
	}

	// The payload goes to a third-party endpoint, so sensitive data keys
	// are masked rather than forwarded verbatim.
	data := make(map[string]interface{}, len(n.Data))
	for k, v := range n.Data {
		if s, ok := v.(string); ok && logging.IsSensitiveField(k) {
			data[k] = logging.MaskCredential(s)
			continue
		}
		data[k] = v
	}

	payload := map[string]interface{}{
		"type":      n.Type,
		"title":     n.Title,
		"message":   n.Message,
		"data":      data,
		"timestamp": n.Timestamp.Format(time.RFC3339),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating webhook request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "TECLTrader/1.0")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return nil
}

// TelegramNotifier sends notifications via Telegram bot.
type TelegramNotifier struct {
	botToken string
	chatID   string
	enabled  bool
	client   *http.Client
}

// NewTelegramNotifier creates a new TelegramNotifier.
func NewTelegramNotifier(cfg config.TelegramConfig) *TelegramNotifier {
	return &TelegramNotifier{
		botToken: cfg.BotToken,
		chatID:   cfg.ChatID,
		enabled:  cfg.Enabled && cfg.BotToken != "" && cfg.ChatID != "",
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Name returns the name of the notifier.
func (t *TelegramNotifier) Name() string {
	return "telegram"
}

// IsEnabled returns whether the notifier is enabled.
func (t *TelegramNotifier) IsEnabled() bool {
	return t.enabled
}

// Send sends a notification via Telegram.
func (t *TelegramNotifier) Send(ctx context.Context, n Notification) error {
	if !t.enabled {
		return nil
	}

	// Telegram HTML parse mode
	text := fmt.Sprintf("<b>%s</b>\n\n%s", escapeHTML(n.Title), escapeHTML(n.Message))

	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", t.botToken)

	payload := map[string]interface{}{
		"chat_id":    t.chatID,
		"text":       text,
		"parse_mode": "HTML",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling telegram payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating telegram request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending telegram message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram API returned status %d", resp.StatusCode)
	}

	return nil
}

// escapeHTML escapes HTML special characters for Telegram.
func escapeHTML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

// EmailNotifier sends notifications via email using SMTP.
type EmailNotifier struct {
	smtpHost string
	smtpPort int
	username string
	password string
	from     string
	to       string
	enabled  bool
}

// NewEmailNotifier creates a new EmailNotifier.
func NewEmailNotifier(cfg config.EmailConfig) *EmailNotifier {
	return &EmailNotifier{
		smtpHost: cfg.SMTPHost,
		smtpPort: cfg.SMTPPort,
		username: cfg.Username,
		password: cfg.Password,
		from:     cfg.From,
		to:       cfg.To,
		enabled:  cfg.Enabled && cfg.SMTPHost != "" && cfg.From != "" && cfg.To != "",
	}
}

// Name returns the name of the notifier.
func (e *EmailNotifier) Name() string {
	return "email"
}

// IsEnabled returns whether the notifier is enabled.
func (e *EmailNotifier) IsEnabled() bool {
	return e.enabled
}

// Send sends a notification via email.
func (e *EmailNotifier) Send(ctx context.Context, n Notification) error {
	if !e.enabled {
		return nil
	}

	subject := n.Title
	body := n.Message

	if len(n.Data) > 0 {
		dataJSON, _ := json.MarshalIndent(n.Data, "", "  ")
		body += "\n\n---\nData:\n" + string(dataJSON)
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s",
		e.from, e.to, subject, body)

	addr := fmt.Sprintf("%s:%d", e.smtpHost, e.smtpPort)

	var auth smtp.Auth
	if e.username != "" && e.password != "" {
		auth = smtp.PlainAuth("", e.username, e.password, e.smtpHost)
	}

	// Implicit TLS on 465, STARTTLS or plain otherwise
	if e.smtpPort == 465 {
		return e.sendWithTLS(addr, auth, msg)
	}
	return smtp.SendMail(addr, auth, e.from, []string{e.to}, []byte(msg))
}

// sendWithTLS sends email using implicit TLS (port 465).
func (e *EmailNotifier) sendWithTLS(addr string, auth smtp.Auth, msg string) error {
	tlsConfig := &tls.Config{
		ServerName: e.smtpHost,
	}

	conn, err := tls.Dial("tcp", addr, tlsConfig)
	if err != nil {
		return fmt.Errorf("TLS dial failed: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, e.smtpHost)
	if err != nil {
		return fmt.Errorf("creating SMTP client: %w", err)
	}
	defer client.Close()

	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP auth failed: %w", err)
		}
	}

	if err := client.Mail(e.from); err != nil {
		return fmt.Errorf("SMTP MAIL command failed: %w", err)
	}

	if err := client.Rcpt(e.to); err != nil {
		return fmt.Errorf("SMTP RCPT command failed: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("SMTP DATA command failed: %w", err)
	}

	if _, err = w.Write([]byte(msg)); err != nil {
		return fmt.Errorf("writing email body: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("closing email body: %w", err)
	}

	return client.Quit()
}

// NoOpNotifier is a notifier that does nothing.
type NoOpNotifier struct{}

// NewNoOpNotifier creates a new NoOpNotifier.
func NewNoOpNotifier() *NoOpNotifier {
	return &NoOpNotifier{}
}

// Send does nothing.
func (n *NoOpNotifier) Send(ctx context.Context, notif Notification) error {
	return nil
}

// SendReport does nothing.
func (n *NoOpNotifier) SendReport(ctx context.Context, report models.DailyReport) error {
	return nil
}

// SendTrade does nothing.
func (n *NoOpNotifier) SendTrade(ctx context.Context, event models.TradeEvent) error {
	return nil
}

// SendError does nothing.
func (n *NoOpNotifier) SendError(ctx context.Context, err error, context string) error {
	return nil
}
