package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"savviwell/internal/apperr"
	"savviwell/internal/clipper"
	"savviwell/internal/config"
	"savviwell/internal/metrics"
	"savviwell/internal/pantry"
	"savviwell/internal/planner"
	"savviwell/internal/profile"
	"savviwell/internal/shared"
)

const (
	contextBloatTokens = 4000
	requestTimeout     = 90 * time.Second
	swapSuggestions    = 5
)

const helpText = `🥗 *Savviwell*

/plan [days] - a new meal plan (default 7 days)
/swap <meal> - alternatives for a meal
/like <meal> - remember a favorite
/dislike <meal> - never suggest a meal again
/pantry - what is in the pantry

Send a recipe link to add it to the catalog, or any other text to change your current plan.`

// sender is the part of the Telegram API the bot talks to.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// CatalogImporter adds a recipe page to the meal catalog.
type CatalogImporter interface {
	ClipURL(ctx context.Context, rawURL string) (clipper.ImportResult, error)
}

// UsageReporter reads the daily AI usage ledger.
type UsageReporter interface {
	GetDailyUsage(days int) ([]metrics.DailyUsage, error)
}

// Services are the backends the bot drives. Importer and Usage are optional.
type Services struct {
	Planner  *planner.Planner
	Profiles *profile.Service
	Pantry   *pantry.Repository
	Importer CatalogImporter
	Usage    UsageReporter
	DataDir  string
}

// Bot answers Telegram updates delivered to its webhook.
type Bot struct {
	api      sender
	svc      Services
	allowed  map[int64]bool
	adminID  int64
	logger   *zap.Logger
	deadline time.Duration
}

// NewBot initializes the Telegram Bot and sets the Webhook.
func NewBot(cfg *config.Config, svc Services, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}
	logger.Info("telegram authorized", zap.String("account", api.Self.UserName))

	wh, err := tgbotapi.NewWebhook(cfg.TelegramWebhookURL)
	if err != nil {
		return nil, fmt.Errorf("failed to build webhook for %s: %w", cfg.TelegramWebhookURL, err)
	}
	resp, err := api.Request(wh)
	if err != nil {
		return nil, fmt.Errorf("failed to set webhook to %s: %w", cfg.TelegramWebhookURL, err)
	}
	logger.Info("webhook set", zap.String("description", resp.Description))

	return newBot(api, svc, cfg.TelegramAllowedUserIDs, cfg.TelegramAdminID, logger), nil
}

func newBot(api sender, svc Services, allowedIDs []int64, adminID int64, logger *zap.Logger) *Bot {
	allowed := make(map[int64]bool, len(allowedIDs))
	for _, id := range allowedIDs {
		allowed[id] = true
	}
	return &Bot{
		api:      api,
		svc:      svc,
		allowed:  allowed,
		adminID:  adminID,
		logger:   logger,
		deadline: requestTimeout,
	}
}

// RegisterHandlers registers the webhook and health handlers on mux.
func (b *Bot) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/webhook", b.handleWebhook)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}

func (b *Bot) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		b.logger.Warn("error parsing update", zap.Error(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusOK)

	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}
	if !b.allowed[msg.From.ID] {
		b.logger.Warn("unauthorized access attempt", zap.Int64("user_id", msg.From.ID), zap.String("username", msg.From.UserName))
		return
	}

	go b.processMessage(msg)
}

func (b *Bot) processMessage(msg *tgbotapi.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), b.deadline)
	defer cancel()

	text := strings.TrimSpace(msg.Text)
	userID := int(msg.From.ID)
	convID := conversationID(msg.Chat.ID)

	var reply string
	var err error
	switch {
	case msg.IsCommand():
		reply, err = b.handleCommand(ctx, msg, userID, convID)
	case strings.HasPrefix(text, "http://") || strings.HasPrefix(text, "https://"):
		reply, err = b.handleImport(ctx, text)
	case text == "":
		return
	default:
		reply, err = b.handleAdjust(ctx, convID, text)
	}

	if err != nil {
		b.logger.Warn("telegram request failed", zap.String("text", text), zap.Error(err))
		reply = formatError(err)
	}
	b.reply(msg.Chat.ID, reply)
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message, userID int, convID string) (string, error) {
	args := strings.TrimSpace(msg.CommandArguments())
	switch msg.Command() {
	case "plan":
		days := 0
		if args != "" {
			n, err := strconv.Atoi(args)
			if err != nil {
				return "", apperr.NewValidationError("usage: /plan [days]")
			}
			days = n
		}
		plan, err := b.svc.Planner.GeneratePlan(ctx, planner.PlanRequest{
			Audience:       []int{userID},
			Days:           days,
			ConversationID: convID,
		})
		if err != nil {
			return "", err
		}
		return formatPlan(plan), nil

	case "swap":
		if args == "" {
			return "", apperr.NewValidationError("usage: /swap <meal>")
		}
		alts, err := b.svc.Planner.SuggestSwaps(ctx, userID, args, swapSuggestions)
		if err != nil {
			return "", err
		}
		return formatSwaps(args, alts), nil

	case "like", "dislike":
		if args == "" {
			return "", apperr.NewValidationError("usage: /%s <meal>", msg.Command())
		}
		fb, _ := profile.ParseFeedback(msg.Command())
		if _, err := b.svc.Profiles.RecordFeedback(ctx, userID, args, fb); err != nil {
			return "", err
		}
		if fb == profile.Like {
			return fmt.Sprintf("❤️ Added *%s* to your favorites.", escape(args)), nil
		}
		return fmt.Sprintf("🚫 I won't suggest *%s* again.", escape(args)), nil

	case "pantry":
		items, err := b.svc.Pantry.List(ctx)
		if err != nil {
			return "", err
		}
		return formatPantry(items), nil

	case "metrics":
		if msg.From.ID != b.adminID {
			return "⛔ *Access Denied*: Admin only.", nil
		}
		return b.metricsReport()

	default:
		return helpText, nil
	}
}

func (b *Bot) handleImport(ctx context.Context, rawURL string) (string, error) {
	if b.svc.Importer == nil {
		return "", apperr.NewNotFoundError("catalog import", "importer is not configured")
	}
	res, err := b.svc.Importer.ClipURL(ctx, rawURL)
	if err != nil {
		return "", err
	}
	if !res.Added {
		return fmt.Sprintf("ℹ️ *%s* is already in the catalog.", escape(res.Entry.Name)), nil
	}
	return fmt.Sprintf("✅ *Meal Saved!*\n\n*Name:* %s\n*Type:* %s\n*Spice:* %d",
		escape(res.Entry.Name), res.Entry.Type, res.Entry.Spice), nil
}

func (b *Bot) handleAdjust(ctx context.Context, convID, text string) (string, error) {
	plan, err := b.svc.Planner.AdjustPlan(ctx, convID, text)
	if apperr.IsNotFound(err) {
		return "🗓️ You don't have a plan yet. Send /plan to create one.", nil
	}
	if err != nil {
		return "", err
	}
	return formatPlan(plan), nil
}

func (b *Bot) metricsReport() (string, error) {
	var usage []metrics.DailyUsage
	if b.svc.Usage != nil {
		var err error
		if usage, err = b.svc.Usage.GetDailyUsage(7); err != nil {
			return "", fmt.Errorf("failed to fetch metrics: %w", err)
		}
	}
	return formatMetrics(usage, metrics.GetSysHealth(b.svc.DataDir)), nil
}

// RecordMeta alerts the admin when a single AI call used too much context.
func (b *Bot) RecordMeta(meta shared.AgentMeta) error {
	if meta.Usage.PromptTokens > contextBloatTokens {
		b.sendAdminAlert(fmt.Sprintf("⚠️ *Context Bloat Alert*\nAgent: %s\nModel: %s\nPrompt Tokens: %d",
			escape(meta.AgentName), escape(meta.Usage.Model), meta.Usage.PromptTokens))
	}
	return nil
}

func (b *Bot) sendAdminAlert(text string) {
	if b.adminID == 0 {
		return
	}
	b.reply(b.adminID, text)
}

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("failed to send telegram message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func conversationID(chatID int64) string {
	return "tg-" + strconv.FormatInt(chatID, 10)
}
