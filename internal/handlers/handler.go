package handlers

import (
	"context"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"campaign-studio-bot/internal/mediagroup"
	"campaign-studio-bot/internal/session"
	"campaign-studio-bot/internal/telegram"
)

type Options struct {
	Telegram *telegram.Client
	Sessions *session.Store
	Logger   *slog.Logger
}

type Handler struct {
	tg         *telegram.Client
	sessions   *session.Store
	logger     *slog.Logger
	aggregator *mediagroup.Aggregator
}

func New(opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		tg:       opts.Telegram,
		sessions: opts.Sessions,
		logger:   logger,
	}
}

func (h *Handler) SetMediaGroupAggregator(ag *mediagroup.Aggregator) {
	h.aggregator = ag
}

func (h *Handler) HandleUpdate(ctx context.Context, update telegram.Update) error {
	if update.CallbackQuery != nil {
		return h.handleCallback(ctx, update.CallbackQuery)
	}

	if update.Message == nil {
		return nil
	}

	msg := update.Message
	chatID := msg.Chat.ID
	userID := msg.From.ID
	username := msg.From.UserName

	if msg.IsCommand() {
		return h.handleCommand(ctx, chatID, userID, username, msg)
	}

	if len(msg.Photo) > 0 {
		return h.handlePhoto(ctx, chatID, userID, username, msg)
	}

	if msg.Text != "" {
		return h.handleText(ctx, chatID, userID, username, msg.Text)
	}

	return nil
}

// HandleMediaGroup receives a debounced album; the wizard takes just one
// product photo, so the first album photo stands in for the whole upload.
func (h *Handler) HandleMediaGroup(ctx context.Context, group mediagroup.Group) {
	if group.Dropped > 0 {
		_ = h.tg.SendText(group.ChatID, "📷 You sent an album, so I'm using the first photo as the product shot.")
	}
	if err := h.handleProductPhoto(ctx, group.ChatID, group.UserID, group.Username, group.FileID); err != nil {
		h.logger.Error("album photo processing failed", "err", err)
	}
}

func (h *Handler) handleCommand(ctx context.Context, chatID int64, userID int64, username string, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start":
		return h.tg.SendText(chatID,
			"🎯 Campaign Studio Bot\n\n"+
				"I turn a product photo and a short brief into a full marketing campaign:\n"+
				"strategic angles, then an Instagram post, a Facebook ad and a web banner,\n"+
				"then banner remixes on request.\n\n"+
				"Commands:\n"+
				"/campaign - Start the campaign wizard\n"+
				"/reset - Start over\n"+
				"/help - Help",
		)
	case "help":
		return h.tg.SendText(chatID,
			"🎯 How it works\n\n"+
				"1. /campaign : I ask for the product name, audience and vibe.\n"+
				"2. Send the product photo.\n"+
				"3. Pick one of three marketing angles.\n"+
				"4. Generate the campaign: three channel assets at once.\n"+
				"5. Send any text to remix the web banner (e.g. \"make background lime green\").",
		)
	case "campaign":
		return h.startWizard(chatID, userID, username)
	case "reset":
		h.sessions.Restart(chatID, userID, username)
		return h.tg.SendText(chatID, "🔄 Starting over. What's the product called?")
	default:
		return h.tg.SendText(chatID, "❌ Unknown command. Try /help.")
	}
}

func (h *Handler) handleText(ctx context.Context, chatID int64, userID int64, username string, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	sess := h.sessions.Get(chatID, userID, username)

	switch sess.Await {
	case session.AwaitProductName:
		h.sessions.Update(chatID, userID, username, func(s *session.Session) {
			s.Draft.ProductName = text
			s.Await = session.AwaitAudience
		})
		return h.tg.SendText(chatID, "👥 Who is the target audience?")
	case session.AwaitAudience:
		h.sessions.Update(chatID, userID, username, func(s *session.Session) {
			s.Draft.TargetAudience = text
			s.Await = session.AwaitVibe
		})
		return h.tg.SendText(chatID, "✨ What vibe should the campaign have? (e.g. \"natural, minimalist\")")
	case session.AwaitVibe:
		h.sessions.Update(chatID, userID, username, func(s *session.Session) {
			s.Draft.DesiredVibe = text
			s.Await = session.AwaitPhoto
		})
		return h.tg.SendText(chatID, "📷 Now send the product photo.")
	case session.AwaitInstruction:
		return h.runVariation(ctx, chatID, userID, username, text)
	default:
		return h.tg.SendText(chatID, "ℹ️ Start the wizard with /campaign.")
	}
}

func (h *Handler) handlePhoto(ctx context.Context, chatID int64, userID int64, username string, msg *tgbotapi.Message) error {
	photo := msg.Photo[len(msg.Photo)-1]
	fileID := photo.FileID

	if msg.MediaGroupID != "" && h.aggregator != nil {
		h.aggregator.Add(mediagroup.Item{
			ChatID:       chatID,
			UserID:       userID,
			Username:     username,
			MediaGroupID: msg.MediaGroupID,
			Caption:      msg.Caption,
			FileID:       fileID,
		})
		return nil
	}

	return h.handleProductPhoto(ctx, chatID, userID, username, fileID)
}
