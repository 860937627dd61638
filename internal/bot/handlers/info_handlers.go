package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/vinobot/internal/config"
)

// NewLocationHandler returns a handler for /location: a map pin followed by the address.
func NewLocationHandler(deps HandlerDeps) bot.HandlerFunc {
	return infoHandler{deps: deps, name: "location"}.Handle
}

// NewShopHandler returns a handler for /shop: the online shop link with a URL button.
func NewShopHandler(deps HandlerDeps) bot.HandlerFunc {
	return infoHandler{deps: deps, name: "shop"}.Handle
}

// NewContactsHandler returns a handler for /contacts.
func NewContactsHandler(deps HandlerDeps) bot.HandlerFunc {
	return infoHandler{deps: deps, name: "contacts"}.Handle
}

// NewSocialHandler returns a handler for /social: one URL button per network.
func NewSocialHandler(deps HandlerDeps) bot.HandlerFunc {
	return infoHandler{deps: deps, name: "social"}.Handle
}

// NewGiftHandler returns a handler for /gift.
func NewGiftHandler(deps HandlerDeps) bot.HandlerFunc {
	return infoHandler{deps: deps, name: "gift"}.Handle
}

// infoHandler answers the static informational commands from the shop config.
type infoHandler struct {
	deps HandlerDeps
	name string
}

func (h infoHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", h.name)

	a, ok := actorFrom(update)
	if !ok {
		log.WarnContext(ctx, "Info handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	log.DebugContext(ctx, "Handling informational command", "chat_id", a.ChatID, "user_id", a.User.ID)

	shop := h.deps.Config.Shop
	if h.name == "location" && hasCoordinates(shop) {
		_, err := b.SendLocation(ctx, &bot.SendLocationParams{
			ChatID:    a.ChatID,
			Latitude:  shop.Latitude,
			Longitude: shop.Longitude,
		})
		if err != nil {
			log.ErrorContext(ctx, "Failed to send location", "error", err, "chat_id", a.ChatID)
		}
	}

	text, markup := h.render(shop)
	reply(ctx, b, log, a.ChatID, text, markup)
}

// render builds the reply text and optional keyboard for h.name.
// Unset shop fields yield the "not configured" text.
func (h infoHandler) render(shop config.ShopConfig) (string, models.ReplyMarkup) {
	t := h.deps.Texts
	notConfigured := t.T("error.not_configured")

	switch h.name {
	case "location":
		if shop.Address == "" {
			return notConfigured, nil
		}
		return t.T("location.text", shop.Address), nil

	case "shop":
		if shop.URL == "" {
			return notConfigured, nil
		}
		markup := urlKeyboard([]config.SocialLink{{Title: t.T("shop.button"), URL: shop.URL}})
		return t.T("shop.text", shop.Name), markup

	case "contacts":
		if shop.Contacts == "" {
			return notConfigured, nil
		}
		return t.T("contacts.text", shop.Contacts), nil

	case "social":
		if len(shop.Social) == 0 {
			return notConfigured, nil
		}
		return t.T("social.text"), urlKeyboard(shop.Social)

	case "gift":
		if shop.GiftCode == "" {
			return notConfigured, nil
		}
		return t.T("gift.text", shop.GiftCode), nil

	default:
		return notConfigured, nil
	}
}

func hasCoordinates(shop config.ShopConfig) bool {
	return shop.Latitude != 0 || shop.Longitude != 0
}
