package handlers

import (
	"github.com/go-telegram/bot/models"

	"github.com/edgard/vinobot/internal/broadcast"
	"github.com/edgard/vinobot/internal/config"
	"github.com/edgard/vinobot/internal/texts"
)

// CallbackPrefix starts the data of every menu button; the rest is the command name.
const CallbackPrefix = "cmd:"

func commandButton(t *texts.Catalog, name string) models.InlineKeyboardButton {
	return models.InlineKeyboardButton{Text: t.T("button." + name), CallbackData: CallbackPrefix + name}
}

// mainMenu mirrors the command set as an inline keyboard, two buttons per
// row. Admin rows are added only for administrators.
func mainMenu(t *texts.Catalog, isAdmin bool) models.ReplyMarkup {
	var names []string
	for _, c := range Commands() {
		if !c.Menu || (c.Admin && !isAdmin) {
			continue
		}
		names = append(names, c.Name)
	}

	var rows [][]models.InlineKeyboardButton
	for i := 0; i < len(names); i += 2 {
		row := []models.InlineKeyboardButton{commandButton(t, names[i])}
		if i+1 < len(names) {
			row = append(row, commandButton(t, names[i+1]))
		}
		rows = append(rows, row)
	}
	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// confirmKeyboard offers the confirm and cancel buttons of a pending broadcast.
func confirmKeyboard(t *texts.Catalog) models.ReplyMarkup {
	return &models.InlineKeyboardMarkup{InlineKeyboard: [][]models.InlineKeyboardButton{{
		{Text: t.T("broadcast.button_confirm"), CallbackData: broadcast.ConfirmCallback},
		{Text: t.T("broadcast.button_cancel"), CallbackData: broadcast.CancelCallback},
	}}}
}

// urlKeyboard renders one URL button per row. It returns nil for no links.
func urlKeyboard(links []config.SocialLink) models.ReplyMarkup {
	if len(links) == 0 {
		return nil
	}
	rows := make([][]models.InlineKeyboardButton, 0, len(links))
	for _, l := range links {
		rows = append(rows, []models.InlineKeyboardButton{{Text: l.Title, URL: l.URL}})
	}
	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}
