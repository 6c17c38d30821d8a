package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"nurifarm/config"
)

type TelegramService struct {
	bot            *tgbotapi.BotAPI
	chatID         int64
	throttle       time.Duration
	lastAlertTimes map[string]time.Time // last notification per alert key
	now            func() time.Time
	logger         *zap.Logger
}

func NewTelegramService(cfg *config.Config, logger *zap.Logger) (*TelegramService, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("error creating telegram bot: %w", err)
	}

	chatID, err := strconv.ParseInt(cfg.TelegramChatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("error parsing chat ID: %w", err)
	}

	logger.Info("Telegram bot authorized", zap.String("username", bot.Self.UserName))

	ts := &TelegramService{
		bot:            bot,
		chatID:         chatID,
		throttle:       time.Duration(cfg.TelegramThrottleSeconds) * time.Second,
		lastAlertTimes: make(map[string]time.Time),
		now:            time.Now,
		logger:         logger,
	}

	if err := ts.testConnection(); err != nil {
		logger.Error("Telegram connection test failed", zap.Error(err))
		return nil, fmt.Errorf("telegram connection test failed: %w", err)
	}

	return ts, nil
}

// testConnection tests Telegram connection with retry logic
func (ts *TelegramService) testConnection() error {
	maxRetries := 3

	for attempt := 1; attempt <= maxRetries; attempt++ {
		ts.logger.Info("Testing Telegram connection", zap.Int("attempt", attempt), zap.Int("max_retries", maxRetries))

		_, err := ts.bot.GetMe()
		if err == nil {
			ts.logger.Info("Telegram connection successful")
			return nil
		}

		ts.logger.Warn("Telegram connection failed",
			zap.Int("attempt", attempt),
			zap.Int("max_retries", maxRetries),
			zap.Error(err))

		if attempt < maxRetries {
			time.Sleep(time.Duration(attempt) * time.Second)
		}
	}

	return fmt.Errorf("failed to connect to Telegram after %d attempts", maxRetries)
}

// Start notifies the chat about raised alerts until ctx is done.
// Cleared events are logged only.
func (ts *TelegramService) Start(ctx context.Context, events <-chan AlertEvent) {
	ts.logger.Info("Starting Telegram notifier", zap.Duration("throttle", ts.throttle))

	for {
		select {
		case <-ctx.Done():
			ts.logger.Info("Telegram notifier stopped")
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if event.Transition != AlertRaised {
				ts.logger.Debug("Alert cleared", zap.String("key", event.Alert.Key()))
				continue
			}
			if err := ts.SendAlert(event); err != nil {
				ts.logger.Error("Failed to send alert", zap.String("key", event.Alert.Key()), zap.Error(err))
			}
		}
	}
}

// SendAlert sends one raised alert unless the same condition was notified
// within the throttle window
func (ts *TelegramService) SendAlert(event AlertEvent) error {
	key := event.Alert.Key()
	if ts.shouldThrottle(key) {
		ts.logger.Debug("Throttling alert", zap.String("key", key))
		return nil
	}

	if err := ts.send(formatAlertMessage(event)); err != nil {
		return fmt.Errorf("error sending telegram message: %w", err)
	}
	ts.lastAlertTimes[key] = ts.now()

	ts.logger.Info("Sent farm alert",
		zap.String("key", key),
		zap.String("severity", string(event.Alert.Severity)))
	return nil
}

// shouldThrottle checks if the condition was already notified recently
func (ts *TelegramService) shouldThrottle(key string) bool {
	last, exists := ts.lastAlertTimes[key]
	if !exists {
		return false
	}
	return ts.now().Sub(last) < ts.throttle
}

// formatAlertMessage creates a mobile-friendly HTML message for one alert
func formatAlertMessage(event AlertEvent) string {
	a := event.Alert
	var sb strings.Builder

	sb.WriteString("🚨 <b>NURIFARM ALERT</b> 🚨\n\n")

	sb.WriteString(fmt.Sprintf("%s %s <b>%s</b>\n", a.SeverityColor(), a.Emoji(), a.Title()))
	sb.WriteString(fmt.Sprintf("   └ %s\n\n", a.Message))

	sb.WriteString(fmt.Sprintf("📍 <b>Source:</b> %s\n", a.SourceID))
	sb.WriteString(fmt.Sprintf("📊 <b>Value:</b> %.1f (threshold %.1f)\n", a.Value, a.Threshold))
	sb.WriteString(fmt.Sprintf("🕐 <b>Time:</b> %s\n", event.At.Format("2006-01-02 15:04:05")))
	sb.WriteString(fmt.Sprintf("🔁 <b>Tick:</b> %d\n\n", event.Sequence))

	sb.WriteString(fmt.Sprintf("🔴 <b>Severity:</b> %s", strings.ToUpper(string(a.Severity))))

	return sb.String()
}

func (ts *TelegramService) send(text string) error {
	msg := tgbotapi.NewMessage(ts.chatID, text)
	msg.ParseMode = "HTML"
	msg.DisableWebPagePreview = true

	_, err := ts.bot.Send(msg)
	return err
}

// SendStartupMessage sends a message when the service starts
func (ts *TelegramService) SendStartupMessage(cfg *config.Config) error {
	message := fmt.Sprintf("🟢 <b>NuriFarm Simulator Started</b>\n\n"+
		"🏠 %d houses × %d racks × %d layers × %d cells\n"+
		"⏱️ Tick every %d ms\n"+
		"🤖 Telegram notifications active\n\n"+
		"✅ System is ready and operational!",
		cfg.HouseCount, cfg.RacksPerHouse, cfg.LayersPerRack, cfg.CellsPerLayer, cfg.TickIntervalMs)

	return ts.send(message)
}

// SendStallAlert reports that no snapshot has been published for a while
func (ts *TelegramService) SendStallAlert(lastSeen time.Time, since time.Duration, lastSequence uint64) error {
	var sb strings.Builder

	sb.WriteString("⚠️ <b>SIMULATION STALLED</b> ⚠️\n\n")
	sb.WriteString(fmt.Sprintf("🕐 <b>Last Snapshot:</b> %s\n", lastSeen.Format("2006-01-02 15:04:05")))
	sb.WriteString(fmt.Sprintf("🔁 <b>Last Tick:</b> %d\n", lastSequence))
	sb.WriteString(fmt.Sprintf("⏱️ <b>Silent For:</b> %s\n\n", formatDuration(since)))
	sb.WriteString("🔴 <b>Status:</b> ENGINE NOT TICKING")

	if err := ts.send(sb.String()); err != nil {
		return fmt.Errorf("error sending stall alert: %w", err)
	}

	ts.logger.Info("Sent stall alert", zap.Duration("since", since))
	return nil
}

// SendRecoveryAlert reports that snapshots are flowing again
func (ts *TelegramService) SendRecoveryAlert(downDuration time.Duration, sequence uint64) error {
	var sb strings.Builder

	sb.WriteString("✅ <b>SIMULATION RECOVERED</b> ✅\n\n")
	sb.WriteString(fmt.Sprintf("🕐 <b>Recovery Time:</b> %s\n", ts.now().Format("2006-01-02 15:04:05")))
	sb.WriteString(fmt.Sprintf("🔁 <b>Tick:</b> %d\n", sequence))
	sb.WriteString(fmt.Sprintf("⏱️ <b>Downtime:</b> %s\n\n", formatDuration(downDuration)))
	sb.WriteString("🟢 <b>Status:</b> ENGINE TICKING")

	if err := ts.send(sb.String()); err != nil {
		return fmt.Errorf("error sending recovery alert: %w", err)
	}

	ts.logger.Info("Sent recovery alert", zap.Duration("down_duration", downDuration))
	return nil
}

func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0f seconds", d.Seconds())
	} else if d < time.Hour {
		minutes := int(d.Minutes())
		seconds := int(d.Seconds()) % 60
		return fmt.Sprintf("%d min %d sec", minutes, seconds)
	} else if d < 24*time.Hour {
		hours := int(d.Hours())
		minutes := int(d.Minutes()) % 60
		return fmt.Sprintf("%d hr %d min", hours, minutes)
	}
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	return fmt.Sprintf("%d days %d hr", days, hours)
}
