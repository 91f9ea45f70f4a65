package handler

import (
	"context"
	"log"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/snikitin/parts-bot/internal/core/service"
)

const handleTimeout = 30 * time.Second

// TelegramHandler pumps long-polled updates into the conversation
// service. Each chat gets its own ordered queue and goroutine, so
// messages within a chat are handled strictly in order while different
// chats proceed concurrently.
type TelegramHandler struct {
	api  *tgbotapi.BotAPI
	conv *service.ConversationService

	mu     sync.Mutex
	queues map[int64]chan *tgbotapi.Message
	wg     sync.WaitGroup
}

func NewTelegramHandler(api *tgbotapi.BotAPI, conv *service.ConversationService) *TelegramHandler {
	return &TelegramHandler{
		api:    api,
		conv:   conv,
		queues: make(map[int64]chan *tgbotapi.Message),
	}
}

// Run polls updates until ctx is cancelled, then drains the per-chat
// queues and returns.
func (h *TelegramHandler) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := h.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			h.api.StopReceivingUpdates()
			h.shutdown()
			return
		case update, ok := <-updates:
			if !ok {
				h.shutdown()
				return
			}
			if update.Message == nil || update.Message.Text == "" {
				continue
			}
			h.dispatch(update.Message)
		}
	}
}

func (h *TelegramHandler) dispatch(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	h.mu.Lock()
	q, ok := h.queues[chatID]
	if !ok {
		q = make(chan *tgbotapi.Message, 16)
		h.queues[chatID] = q
		h.wg.Add(1)
		go h.chatLoop(q)
	}
	h.mu.Unlock()

	q <- msg
}

func (h *TelegramHandler) chatLoop(q <-chan *tgbotapi.Message) {
	defer h.wg.Done()
	for msg := range q {
		h.handle(msg)
	}
}

func (h *TelegramHandler) handle(msg *tgbotapi.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()

	reply := h.conv.HandleMessage(ctx, msg.Chat.ID, senderName(msg), msg.Text)
	h.send(msg.Chat.ID, reply)
}

func (h *TelegramHandler) send(chatID int64, reply service.Reply) {
	if reply.Document != nil {
		doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{
			Name:  reply.Document.Name,
			Bytes: reply.Document.Data,
		})
		doc.Caption = reply.Document.Caption
		if _, err := h.api.Send(doc); err != nil {
			log.Printf("chat %d: send document: %v", chatID, err)
		}
	}

	if reply.Text == "" {
		return
	}

	out := tgbotapi.NewMessage(chatID, reply.Text)
	if reply.ShowMenu {
		out.ReplyMarkup = MainMenu()
	}
	if _, err := h.api.Send(out); err != nil {
		log.Printf("chat %d: send message: %v", chatID, err)
	}
}

func (h *TelegramHandler) shutdown() {
	h.mu.Lock()
	for _, q := range h.queues {
		close(q)
	}
	h.queues = make(map[int64]chan *tgbotapi.Message)
	h.mu.Unlock()
	h.wg.Wait()
}

// MainMenu is the persistent four-button reply keyboard.
func MainMenu() tgbotapi.ReplyKeyboardMarkup {
	menu := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(service.CmdAddPart),
			tgbotapi.NewKeyboardButton(service.CmdListParts),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(service.CmdIssuePart),
			tgbotapi.NewKeyboardButton(service.CmdReport),
		),
	)
	menu.OneTimeKeyboard = false
	return menu
}

func senderName(msg *tgbotapi.Message) string {
	if msg.From == nil {
		return "-"
	}
	if msg.From.UserName != "" {
		return msg.From.UserName
	}
	name := msg.From.FirstName
	if msg.From.LastName != "" {
		name += " " + msg.From.LastName
	}
	if name == "" {
		return "-"
	}
	return name
}
