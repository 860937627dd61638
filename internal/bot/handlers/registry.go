package handlers

import (
	"strings"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/vinobot/internal/texts"
)

// RegisteredHandler represents a command handler with its description and middleware.
// It encapsulates all information needed to register and document a command.
// When MatchFunc is set it replaces the HandlerType, Pattern and MatchType match.
type RegisteredHandler struct {
	HandlerType tgbot.HandlerType
	Pattern     string
	Handler     tgbot.HandlerFunc
	Middleware  []tgbot.Middleware
	MatchType   tgbot.MatchType
	MatchFunc   tgbot.MatchFunc
}

// Command is one entry of the command table. Each command is reachable as
// /<name>, as /<alias> and as the menu button cmd:<name>.
type Command struct {
	Name    string
	Aliases []string
	Admin   bool // privileged: wrapped in AdminOnly on every route
	Menu    bool // shown on the inline main menu
	New     func(HandlerDeps) tgbot.HandlerFunc
}

// Commands returns the command table in menu and help order.
func Commands() []Command {
	return []Command{
		{Name: "start", New: NewStartHandler},
		{Name: "location", Menu: true, New: NewLocationHandler},
		{Name: "shop", Menu: true, New: NewShopHandler},
		{Name: "contacts", Menu: true, New: NewContactsHandler},
		{Name: "social", Menu: true, New: NewSocialHandler},
		{Name: "gift", Menu: true, New: NewGiftHandler},
		{Name: "help", Menu: true, New: NewHelpHandler},
		{Name: "unsubscribe", Menu: true, New: NewUnsubscribeHandler},

		{Name: "stats", Admin: true, Menu: true, New: NewStatsHandler},
		{Name: "broadcast", Admin: true, Menu: true, New: NewBroadcastHandler},
		{Name: "viewdb", Aliases: []string{"read_db"}, Admin: true, Menu: true, New: NewViewDBHandler},
		{Name: "exportdb", Aliases: []string{"export_db"}, Admin: true, Menu: true, New: NewExportCSVHandler},
		{Name: "exportxlsx", Admin: true, Menu: true, New: NewExportXLSXHandler},
	}
}

// RegisterAllCommands initializes and returns a map of all available bot commands.
// Privileged commands get the AdminOnly middleware on both the command and
// the button route, so the check never depends on how the command arrived.
func RegisterAllCommands(deps HandlerDeps) map[string]RegisteredHandler {
	handlers := make(map[string]RegisteredHandler)

	for _, c := range Commands() {
		h := c.New(deps)

		mw := []tgbot.Middleware{CountCommand(c.Name)}
		if c.Admin {
			mw = append(mw, AdminOnly(deps, c.Name))
		}

		for _, name := range append([]string{c.Name}, c.Aliases...) {
			handlers["/"+name] = RegisteredHandler{
				HandlerType: tgbot.HandlerTypeMessageText,
				Pattern:     name,
				Handler:     h,
				MatchType:   tgbot.MatchTypeCommandStartOnly,
				MatchFunc:   CommandMatch(name),
				Middleware:  mw,
			}
		}

		handlers[CallbackPrefix+c.Name] = RegisteredHandler{
			HandlerType: tgbot.HandlerTypeCallbackQueryData,
			Pattern:     CallbackPrefix + c.Name,
			Handler:     h,
			MatchType:   tgbot.MatchTypeExact,
			Middleware:  append([]tgbot.Middleware{AnswerCallback(deps)}, mw...),
		}
	}

	handlers["broadcast:"] = RegisteredHandler{
		HandlerType: tgbot.HandlerTypeCallbackQueryData,
		Pattern:     "broadcast:",
		Handler:     NewBroadcastDecisionHandler(deps),
		MatchType:   tgbot.MatchTypePrefix,
		Middleware:  []tgbot.Middleware{AnswerCallback(deps), AdminOnly(deps, "broadcast")},
	}

	return handlers
}

// CommandMatch matches a text message that starts with /name. Group chats
// address commands as /name@botname, so a bot name suffix is ignored.
func CommandMatch(name string) tgbot.MatchFunc {
	return func(update *models.Update) bool {
		if update.Message == nil || !strings.HasPrefix(update.Message.Text, "/") {
			return false
		}
		command, _, _ := strings.Cut(strings.Fields(update.Message.Text)[0][1:], "@")
		return command == name
	}
}

// CommandList renders the help listing: public commands, then admin commands
// when isAdmin is set.
func CommandList(t *texts.Catalog, isAdmin bool) string {
	var public, admin []string
	for _, c := range Commands() {
		line := "/" + c.Name + " - " + t.T("cmd."+c.Name)
		if c.Admin {
			admin = append(admin, line)
		} else {
			public = append(public, line)
		}
	}

	var sb strings.Builder
	sb.WriteString(t.T("help.user_header"))
	sb.WriteString("\n")
	sb.WriteString(strings.Join(public, "\n"))
	if isAdmin {
		sb.WriteString("\n\n")
		sb.WriteString(t.T("help.admin_header"))
		sb.WriteString("\n")
		sb.WriteString(strings.Join(admin, "\n"))
	}
	return sb.String()
}

// BotCommands returns the command menu published to Telegram.
func BotCommands(t *texts.Catalog, isAdmin bool) []models.BotCommand {
	var cmds []models.BotCommand
	for _, c := range Commands() {
		if c.Admin && !isAdmin {
			continue
		}
		cmds = append(cmds, models.BotCommand{Command: c.Name, Description: t.T("cmd." + c.Name)})
	}
	return cmds
}
