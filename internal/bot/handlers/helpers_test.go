package handlers_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/vinobot/internal/bot/handlers"
	"github.com/edgard/vinobot/internal/broadcast"
	"github.com/edgard/vinobot/internal/config"
	"github.com/edgard/vinobot/internal/database"
	"github.com/edgard/vinobot/internal/reporting"
	"github.com/edgard/vinobot/internal/texts"
)

const (
	testToken = "123456:TEST-TOKEN"
	adminID   = int64(1001)
	userID    = int64(2002)
)

// apiCall is one Bot API request observed by the fake server.
type apiCall struct {
	Method      string
	ChatID      string
	Text        string
	Caption     string
	Document    string // uploaded file name or file id
	Photo       string
	ReplyMarkup string
}

// fakeTelegram answers Bot API requests and records what the bot sent.
type fakeTelegram struct {
	mu      sync.Mutex
	calls   []apiCall
	blocked map[string]bool // chat ids answered with 403
}

func (f *fakeTelegram) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	method := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
	fields, files := readFields(r)

	call := apiCall{
		Method:      method,
		ChatID:      fields["chat_id"],
		Text:        fields["text"],
		Caption:     fields["caption"],
		Document:    firstNonEmpty(files["document"], fields["document"]),
		Photo:       firstNonEmpty(files["photo"], fields["photo"]),
		ReplyMarkup: fields["reply_markup"],
	}

	f.mu.Lock()
	f.calls = append(f.calls, call)
	blocked := f.blocked[call.ChatID]
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if blocked {
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `{"ok":false,"error_code":403,"description":"Forbidden: bot was blocked by the user"}`)
		return
	}

	var result string
	switch method {
	case "getMe":
		result = `{"id":1,"is_bot":true,"first_name":"Vino","username":"vino_test_bot"}`
	case "sendMessage", "sendDocument", "sendPhoto", "sendLocation":
		chatID := call.ChatID
		if chatID == "" {
			chatID = "0"
		}
		result = fmt.Sprintf(`{"message_id":1,"date":0,"chat":{"id":%s,"type":"private"}}`, chatID)
	default:
		result = `true`
	}
	_, _ = io.WriteString(w, `{"ok":true,"result":`+result+`}`)
}

// readFields flattens a multipart or JSON request body into strings.
func readFields(r *http.Request) (map[string]string, map[string]string) {
	fields := map[string]string{}
	files := map[string]string{}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			return fields, files
		}
		for k, v := range r.MultipartForm.Value {
			if len(v) > 0 {
				fields[k] = v[0]
			}
		}
		for k, v := range r.MultipartForm.File {
			if len(v) > 0 {
				files[k] = v[0].Filename
			}
		}
	case "application/json":
		var raw map[string]any
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			return fields, files
		}
		for k, v := range raw {
			switch val := v.(type) {
			case string:
				fields[k] = val
			case float64:
				fields[k] = fmt.Sprintf("%.0f", val)
			default:
				b, _ := json.Marshal(val)
				fields[k] = string(b)
			}
		}
	default:
		if err := r.ParseForm(); err == nil {
			for k, v := range r.Form {
				if len(v) > 0 {
					fields[k] = v[0]
				}
			}
		}
	}
	return fields, files
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func (f *fakeTelegram) block(chatID int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.blocked == nil {
		f.blocked = map[string]bool{}
	}
	f.blocked[fmt.Sprint(chatID)] = true
}

// sent returns the calls of method addressed to chatID.
func (f *fakeTelegram) sent(method string, chatID int64) []apiCall {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []apiCall
	for _, c := range f.calls {
		if c.Method == method && c.ChatID == fmt.Sprint(chatID) {
			out = append(out, c)
		}
	}
	return out
}

// texts returns the text of every message sent to chatID.
func (f *fakeTelegram) texts(chatID int64) []string {
	var out []string
	for _, c := range f.sent("sendMessage", chatID) {
		out = append(out, c.Text)
	}
	return out
}

func (f *fakeTelegram) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

// testEnv wires handlers to a real store, a real bot client and the fake API.
type testEnv struct {
	url    string
	api    *fakeTelegram
	bot    *tgbot.Bot
	deps   handlers.HandlerDeps
	routes map[string]handlers.RegisteredHandler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	api := &fakeTelegram{}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	b, err := tgbot.New(testToken, tgbot.WithServerURL(srv.URL))
	if err != nil {
		t.Fatalf("bot.New() error = %v", err)
	}

	dir := t.TempDir()
	db, err := database.NewDB(filepath.Join(dir, "subscribers.db"))
	if err != nil {
		t.Fatalf("NewDB() error = %v", err)
	}
	t.Cleanup(func() { database.CloseDB(db) })

	catalog, err := texts.Load("ru")
	if err != nil {
		t.Fatalf("texts.Load() error = %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := database.NewStore(db, logger)

	cfg := &config.Config{
		Telegram: config.TelegramConfig{Token: testToken, AdminIDs: []int64{adminID}, Locale: "ru"},
		Export:   config.ExportConfig{Dir: filepath.Join(dir, "exports"), MaxAge: time.Hour},
		Shop: config.ShopConfig{
			Name:      "Винотека",
			Address:   "ул. Виноградная, 1",
			Latitude:  55.75,
			Longitude: 37.61,
			URL:       "https://example.com/shop",
		},
	}

	deps := handlers.HandlerDeps{
		Logger:        logger,
		Config:        cfg,
		Store:         store,
		Texts:         catalog,
		Conversations: broadcast.NewConversations(broadcast.NewMemoryStateStore(), logger),
		Deliverer:     broadcast.NewDeliverer(store, 0, logger),
		Reporter:      reporting.NewReporter(store, cfg.Export.Dir, logger),
	}

	return &testEnv{
		url:    srv.URL,
		api:    api,
		bot:    b,
		deps:   deps,
		routes: handlers.RegisterAllCommands(deps),
	}
}

// route runs the registered handler for key with its middleware applied.
func (e *testEnv) route(t *testing.T, key string, update *models.Update) {
	t.Helper()

	rh, ok := e.routes[key]
	if !ok {
		t.Fatalf("no handler registered for %q", key)
	}
	h := rh.Handler
	for i := len(rh.Middleware) - 1; i >= 0; i-- {
		h = rh.Middleware[i](h)
	}
	h(context.Background(), e.bot, update)
}

// fallback runs the default handler, as the dispatcher does for unmatched updates.
func (e *testEnv) fallback(update *models.Update) {
	handlers.NewDefaultHandler(e.deps)(context.Background(), e.bot, update)
}

func (e *testEnv) subscribe(t *testing.T, ids ...int64) {
	t.Helper()
	for _, id := range ids {
		if _, err := e.deps.Store.AddSubscriber(context.Background(), &database.Subscriber{ID: id, FirstName: fmt.Sprint("user", id)}); err != nil {
			t.Fatalf("AddSubscriber(%d) error = %v", id, err)
		}
	}
}

func (e *testEnv) state(t *testing.T, id int64) broadcast.State {
	t.Helper()
	conv, err := e.deps.Conversations.Current(context.Background(), id)
	if err != nil {
		t.Fatalf("Current(%d) error = %v", id, err)
	}
	return conv.State
}

func groupTextUpdate(from, groupID int64, text string) *models.Update {
	u := textUpdate(from, text)
	u.Message.Chat = models.Chat{ID: groupID, Type: "group"}
	return u
}

func user(id int64) models.User {
	return models.User{ID: id, FirstName: fmt.Sprint("user", id), LanguageCode: "ru"}
}

func textUpdate(from int64, text string) *models.Update {
	u := user(from)
	return &models.Update{
		ID: 1,
		Message: &models.Message{
			ID:   10,
			From: &u,
			Chat: models.Chat{ID: from, Type: "private"},
			Text: text,
		},
	}
}

// callbackUpdate is a button press by presser on a message authored by author.
func callbackUpdate(presser, author int64, data string) *models.Update {
	p := user(presser)
	a := user(author)
	return &models.Update{
		ID: 2,
		CallbackQuery: &models.CallbackQuery{
			ID:   "cb-1",
			From: p,
			Data: data,
			Message: models.MaybeInaccessibleMessage{
				Message: &models.Message{
					ID:   11,
					From: &a,
					Chat: models.Chat{ID: presser, Type: "private"},
				},
			},
		},
	}
}

func contains(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}
