package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tecl-trader/internal/config"
	"tecl-trader/internal/models"
)

type captureChannel struct {
	name    string
	enabled bool
	sent    []Notification
	err     error
}

func (c *captureChannel) Name() string    { return c.name }
func (c *captureChannel) IsEnabled() bool { return c.enabled }
func (c *captureChannel) Send(ctx context.Context, n Notification) error {
	c.sent = append(c.sent, n)
	return c.err
}

func multiWithCapture(level string) (*MultiNotifier, *captureChannel) {
	mn := NewMultiNotifier(&config.NotificationConfig{Level: level})
	ch := &captureChannel{name: "capture", enabled: true}
	mn.AddChannel(ch)
	return mn, ch
}

func TestLevelFiltering(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		level     string
		notifType NotificationType
		delivered bool
	}{
		{"all", NotificationReport, true},
		{"all", NotificationTrade, true},
		{"trades_only", NotificationTrade, true},
		{"trades_only", NotificationReport, false},
		{"trades_only", NotificationError, false},
		{"errors_only", NotificationError, true},
		{"errors_only", NotificationTrade, false},
		{"", NotificationReport, true}, // empty level means all
	}
	for _, tt := range tests {
		mn, ch := multiWithCapture(tt.level)
		err := mn.Send(ctx, Notification{Type: tt.notifType, Title: "x"})
		require.NoError(t, err)
		if tt.delivered {
			assert.Len(t, ch.sent, 1, "level %q type %q", tt.level, tt.notifType)
		} else {
			assert.Empty(t, ch.sent, "level %q type %q", tt.level, tt.notifType)
		}
	}
}

func TestSendSkipsDisabledChannels(t *testing.T) {
	mn, _ := multiWithCapture("all")
	off := &captureChannel{name: "off", enabled: false}
	mn.AddChannel(off)

	require.NoError(t, mn.Send(context.Background(), Notification{Type: NotificationTrade}))
	assert.Empty(t, off.sent)
}

func TestSendCollectsChannelErrors(t *testing.T) {
	mn, _ := multiWithCapture("all")
	broken := &captureChannel{name: "broken", enabled: true, err: errors.New("boom")}
	mn.AddChannel(broken)

	err := mn.Send(context.Background(), Notification{Type: NotificationTrade})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
}

func TestSendReportTitles(t *testing.T) {
	ctx := context.Background()
	date := time.Date(2024, 6, 4, 0, 0, 0, 0, time.UTC)
	base := models.DailyReport{
		Date:        date,
		PrimaryOpen: 60,
		Ledger:      models.NewLedgerState(decimal.NewFromInt(10000)),
	}

	mn, ch := multiWithCapture("all")
	require.NoError(t, mn.SendReport(ctx, base))
	require.Len(t, ch.sent, 1)
	assert.Contains(t, ch.sent[0].Title, "Daily Report")

	bought := base
	bought.Bought = true
	require.NoError(t, mn.SendReport(ctx, bought))
	assert.Contains(t, ch.sent[1].Title, "Bought")

	sold := base
	sold.Sold = true
	require.NoError(t, mn.SendReport(ctx, sold))
	assert.Contains(t, ch.sent[2].Title, "Sold")
}

func TestSendTrade(t *testing.T) {
	mn, ch := multiWithCapture("trades_only")
	event := models.TradeEvent{
		Date:        time.Date(2024, 6, 4, 0, 0, 0, 0, time.UTC),
		Action:      models.ActionBuy,
		Reason:      models.ReasonImmediateBuy,
		Price:       60,
		ShareCount:  158,
		FundValue:   decimal.NewFromInt(520),
		BankBalance: decimal.Zero,
	}

	require.NoError(t, mn.SendTrade(context.Background(), event))
	require.Len(t, ch.sent, 1)
	assert.Equal(t, NotificationTrade, ch.sent[0].Type)
	assert.Contains(t, ch.sent[0].Message, "Shares: 158")
	assert.Contains(t, ch.sent[0].Message, "$60.00")
}

func TestSendErrorMasksCredentials(t *testing.T) {
	mn, ch := multiWithCapture("errors_only")

	err := errors.New(`telegram API rejected request: bot_token="7712345678:AAEexampleexample"`)
	require.NoError(t, mn.SendError(context.Background(), err, "check"))
	require.Len(t, ch.sent, 1)

	assert.NotContains(t, ch.sent[0].Message, "AAEexampleexample")
	assert.NotContains(t, ch.sent[0].Data["error"], "AAEexampleexample")
	assert.Contains(t, ch.sent[0].Message, "Context: check")
}

func TestWebhookMasksSensitiveData(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	wh := NewWebhookNotifier(config.WebhookConfig{Enabled: true, URL: srv.URL})
	err := wh.Send(context.Background(), Notification{
		Type:    NotificationError,
		Title:   "t",
		Message: "m",
		Data: map[string]interface{}{
			"bot_token": "7712345678:AAEexampleexample",
			"context":   "check",
		},
		Timestamp: time.Date(2024, 6, 4, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	data, ok := got["data"].(map[string]interface{})
	require.True(t, ok)
	assert.NotContains(t, data["bot_token"], "AAEexampleexample")
	assert.Equal(t, "check", data["context"])
}

func TestNoOpNotifier(t *testing.T) {
	ctx := context.Background()
	n := NewNoOpNotifier()

	assert.NoError(t, n.Send(ctx, Notification{Type: NotificationTrade}))
	assert.NoError(t, n.SendReport(ctx, models.DailyReport{}))
	assert.NoError(t, n.SendTrade(ctx, models.TradeEvent{}))
	assert.NoError(t, n.SendError(ctx, errors.New("boom"), "check"))
}

func TestFormatCurrency(t *testing.T) {
	assert.Equal(t, "$1,234.56", FormatCurrency(1234.56))
	assert.Equal(t, "-$500.00", FormatCurrency(-500))
	assert.Equal(t, "$0.00", FormatCurrency(0))
}

func TestEscapeHTML(t *testing.T) {
	assert.Equal(t, "a &lt;b&gt; &amp;c", escapeHTML("a <b> &c"))
}
