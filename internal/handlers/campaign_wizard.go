package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"campaign-studio-bot/internal/campaign"
	"campaign-studio-bot/internal/gemini"
	"campaign-studio-bot/internal/session"
)

const campaignCallbackPrefix = "cg"

func (h *Handler) startWizard(chatID int64, userID int64, username string) error {
	h.sessions.Restart(chatID, userID, username)
	return h.tg.SendText(chatID, "🎯 Let's build a campaign.\n\nWhat's the product called?")
}

func (h *Handler) handleProductPhoto(ctx context.Context, chatID int64, userID int64, username string, fileID string) error {
	sess := h.sessions.Get(chatID, userID, username)
	if sess.Await != session.AwaitPhoto {
		return h.tg.SendText(chatID, "ℹ️ I don't need a photo right now. Start with /campaign.")
	}

	h.tg.SendTyping(chatID)

	data, mimeType, err := h.tg.DownloadFileBytes(ctx, fileID)
	if err != nil {
		h.logger.Error("photo download failed", "err", err, "file_id", fileID)
		return h.tg.SendText(chatID, "❌ Couldn't download the photo. Please send it again.")
	}

	updated := h.sessions.Update(chatID, userID, username, func(s *session.Session) {
		s.Draft.Photo = gemini.Image{Data: data, MimeType: mimeType}
		s.Await = session.AwaitNone
	})

	return h.runAngles(ctx, chatID, userID, username, updated)
}

func (h *Handler) runAngles(ctx context.Context, chatID int64, userID int64, username string, sess session.Session) error {
	_ = h.tg.SendText(chatID, "⏳ "+campaign.ProgressAngles)
	h.tg.SendTyping(chatID)

	angles, err := sess.Controller.RequestAngles(ctx, sess.Draft)
	if err != nil {
		h.logger.Error("angles generation failed", "err", err, "user_id", userID)
		return h.tg.SendText(chatID, campaign.UserMessage(err))
	}

	text := h.anglesText(sess.Draft, angles)
	msgID, err := h.tg.SendTextWithKeyboard(chatID, text, anglesKeyboard(userID, angles))
	if err != nil {
		return err
	}

	h.sessions.Update(chatID, userID, username, func(s *session.Session) {
		s.MessageID = msgID
	})
	return nil
}

func (h *Handler) anglesText(in campaign.Inputs, angles []campaign.Angle) string {
	var b strings.Builder
	fmt.Fprintf(&b, "💡 Marketing angles for %s\n\n", in.ProductName)
	for i, a := range angles {
		fmt.Fprintf(&b, "%d. %s\n%s\n\n", i+1, a.Title, a.Description)
	}
	b.WriteString("Pick the angle to build the campaign on:")
	return b.String()
}

func anglesKeyboard(ownerID int64, angles []campaign.Angle) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(angles)+1)
	for i, a := range angles {
		label := fmt.Sprintf("%d. %s", i+1, a.Title)
		rows = append(rows, []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData(label, cb(ownerID, "sel", strconv.Itoa(i))),
		})
	}
	rows = append(rows, []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData("🔄 New angles", cb(ownerID, "reroll")),
	})
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func selectedKeyboard(ownerID int64, angles []campaign.Angle, selected string) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(angles)+1)
	for i, a := range angles {
		label := fmt.Sprintf("%d. %s", i+1, a.Title)
		if a.Title == selected {
			label = "✅ " + label
		}
		rows = append(rows, []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData(label, cb(ownerID, "sel", strconv.Itoa(i))),
		})
	}
	rows = append(rows, []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData("🚀 Generate campaign", cb(ownerID, "gen")),
		tgbotapi.NewInlineKeyboardButtonData("🔄 New angles", cb(ownerID, "reroll")),
	})
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func (h *Handler) handleCallback(ctx context.Context, q *tgbotapi.CallbackQuery) error {
	if q.Message == nil {
		return nil
	}
	data := strings.TrimSpace(q.Data)
	if !strings.HasPrefix(data, campaignCallbackPrefix+":") {
		return nil
	}

	parts := strings.Split(data, ":")
	if len(parts) < 3 {
		return nil
	}

	ownerID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return nil
	}
	if ownerID != q.From.ID {
		_ = h.tg.AnswerCallback(q.ID, "This menu is not for you.", true)
		return nil
	}

	action := parts[2]
	args := parts[3:]
	chatID := q.Message.Chat.ID
	msgID := q.Message.MessageID
	username := q.From.UserName

	switch action {
	case "sel":
		if len(args) < 1 {
			return nil
		}
		idx, err := strconv.Atoi(args[0])
		if err != nil {
			return nil
		}
		return h.selectAngle(chatID, ownerID, username, msgID, idx, q.ID)
	case "gen":
		_ = h.tg.AnswerCallback(q.ID, "Generating…", false)
		return h.runCampaign(ctx, chatID, ownerID, username)
	case "reroll":
		_ = h.tg.AnswerCallback(q.ID, "New angles…", false)
		sess := h.sessions.Get(chatID, ownerID, username)
		return h.runAngles(ctx, chatID, ownerID, username, sess)
	default:
		_ = h.tg.AnswerCallback(q.ID, "OK", false)
		return nil
	}
}

func (h *Handler) selectAngle(chatID int64, ownerID int64, username string, msgID int, idx int, callbackID string) error {
	sess := h.sessions.Get(chatID, ownerID, username)
	state := sess.Controller.Snapshot()

	if idx < 0 || idx >= len(state.Angles) {
		_ = h.tg.AnswerCallback(callbackID, "That angle is gone. Generate new ones.", true)
		return nil
	}
	angle := state.Angles[idx]

	if err := sess.Controller.SelectAngle(angle.Title); err != nil {
		h.logger.Error("angle selection failed", "err", err, "user_id", ownerID)
		_ = h.tg.AnswerCallback(callbackID, campaign.UserMessage(err), true)
		return nil
	}
	_ = h.tg.AnswerCallback(callbackID, "Angle: "+angle.Title, false)

	text := h.anglesText(state.Inputs, state.Angles)
	return h.tg.EditTextWithKeyboard(chatID, msgID, text, selectedKeyboard(ownerID, state.Angles, angle.Title))
}

func (h *Handler) runCampaign(ctx context.Context, chatID int64, userID int64, username string) error {
	sess := h.sessions.Get(chatID, userID, username)

	_ = h.tg.SendText(chatID, "⏳ "+campaign.ProgressCampaign)
	h.tg.SendTyping(chatID)

	assets, err := sess.Controller.GenerateCampaign(ctx)
	if err != nil {
		h.logger.Error("campaign generation failed", "err", err, "user_id", userID)
		return h.tg.SendText(chatID, campaign.UserMessage(err))
	}

	for _, asset := range assets {
		caption := assetCaption(asset)
		if err := h.tg.SendPhotoBytes(chatID, asset.Image.Data, asset.Image.MimeType, caption); err != nil {
			h.logger.Error("asset send failed", "err", err, "role", string(asset.Role))
		}
	}

	h.sessions.Update(chatID, userID, username, func(s *session.Session) {
		s.Await = session.AwaitInstruction
	})

	return h.tg.SendText(chatID,
		"✅ Campaign ready!\n\n"+
			"Want a different web banner? Send an instruction like\n"+
			"\"make the background lime green\" and I'll remix it.\n\n"+
			"/campaign starts a new campaign.",
	)
}

func assetCaption(asset campaign.Asset) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📣 %s\n\n", asset.Role.String())
	if len(asset.Headlines) > 0 {
		b.WriteString("Headline options:\n")
		for i, hl := range asset.Headlines {
			fmt.Fprintf(&b, "%d. %s\n", i+1, hl)
		}
	} else {
		b.WriteString(asset.Copy)
	}
	return b.String()
}

func (h *Handler) runVariation(ctx context.Context, chatID int64, userID int64, username string, instruction string) error {
	sess := h.sessions.Get(chatID, userID, username)

	_ = h.tg.SendText(chatID, "⏳ "+campaign.ProgressVariation)
	h.tg.SendTyping(chatID)

	img, err := sess.Controller.GenerateVariation(ctx, instruction)
	if err != nil {
		h.logger.Error("banner variation failed", "err", err, "user_id", userID)
		return h.tg.SendText(chatID, campaign.UserMessage(err))
	}

	return h.tg.SendPhotoBytes(chatID, img.Data, img.MimeType, "🖼 Remixed banner\n\nSend another instruction to keep tweaking, or /campaign to start over.")
}

func cb(ownerID int64, parts ...string) string {
	return fmt.Sprintf("%s:%d:%s", campaignCallbackPrefix, ownerID, strings.Join(parts, ":"))
}
