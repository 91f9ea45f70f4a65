package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/snikitin/parts-bot/internal/core/domain"
	"github.com/snikitin/parts-bot/internal/port"
)

// Reply is the transport-agnostic outbound message. ShowMenu asks the
// transport to attach the main keyboard; Document is an attached file.
type Reply struct {
	Text     string
	ShowMenu bool
	Document *domain.ReportFile
}

// ConversationService drives the per-chat state machine. Each chat has
// at most one session; a message either starts a top-level command or
// supplies the next field of the session's current step. Commits happen
// only at the final step of a flow.
//
// The transport must deliver messages from one chat sequentially;
// messages from different chats may be handled concurrently.
type ConversationService struct {
	inventory *InventoryService
	sessions  port.SessionRepository
	reports   *ReportService

	now func() time.Time
}

func NewConversationService(inventory *InventoryService, sessions port.SessionRepository, reports *ReportService) *ConversationService {
	return &ConversationService{
		inventory: inventory,
		sessions:  sessions,
		reports:   reports,
		now:       time.Now,
	}
}

// HandleMessage routes one inbound message and returns the reply.
// Failures never escape as errors: they are logged and reported to the
// user, and the session is reset so the chat is never stuck.
func (c *ConversationService) HandleMessage(ctx context.Context, chatID int64, sender, text string) Reply {
	text = strings.TrimSpace(text)

	// A top-level command always wins: it silently abandons whatever
	// flow was in progress (no partial commit exists to undo).
	switch text {
	case CmdStart:
		c.resetSession(ctx, chatID)
		return Reply{Text: msgWelcome, ShowMenu: true}
	case CmdAddPart:
		return c.startAddFlow(ctx, chatID)
	case CmdListParts:
		c.resetSession(ctx, chatID)
		return c.listReply(ctx)
	case CmdIssuePart:
		return c.startIssueFlow(ctx, chatID)
	case CmdReport:
		c.resetSession(ctx, chatID)
		return c.reportReply(ctx)
	}

	return c.advance(ctx, chatID, sender, text)
}

func (c *ConversationService) startAddFlow(ctx context.Context, chatID int64) Reply {
	s := domain.Session{ChatID: chatID, Step: domain.StepAddName, UpdatedAt: c.now()}
	if err := c.sessions.Put(ctx, s); err != nil {
		return c.sessionFailure(ctx, chatID, err)
	}
	return Reply{Text: msgPromptName}
}

func (c *ConversationService) startIssueFlow(ctx context.Context, chatID int64) Reply {
	c.resetSession(ctx, chatID)

	parts, err := c.inventory.AvailableParts(ctx)
	if err != nil {
		log.Printf("chat %d: list available parts: %v", chatID, err)
		return Reply{Text: msgStoreFailure, ShowMenu: true}
	}
	if len(parts) == 0 {
		return Reply{Text: msgNoParts, ShowMenu: true}
	}

	s := domain.Session{ChatID: chatID, Step: domain.StepIssueSelect, UpdatedAt: c.now()}
	if err := c.sessions.Put(ctx, s); err != nil {
		return c.sessionFailure(ctx, chatID, err)
	}

	var b strings.Builder
	b.WriteString(msgSelectPart)
	for _, p := range parts {
		fmt.Fprintf(&b, "%d. %s — %d шт.\n", p.ID, p.Name, p.Quantity)
	}
	return Reply{Text: b.String()}
}

// advance feeds one message into the session's current step. Invalid
// input re-prompts without changing state; rejections at commit time
// reset the session to idle.
func (c *ConversationService) advance(ctx context.Context, chatID int64, sender, text string) Reply {
	s, err := c.sessions.Get(ctx, chatID)
	if err != nil {
		return c.sessionFailure(ctx, chatID, err)
	}
	if s.Idle() {
		return Reply{Text: msgChooseAction, ShowMenu: true}
	}

	switch s.Step {
	case domain.StepAddName:
		return c.stepAddName(ctx, s, text)
	case domain.StepAddQuantity:
		return c.stepAddQuantity(ctx, s, sender, text)
	case domain.StepIssueSelect:
		return c.stepIssueSelect(ctx, s, text)
	case domain.StepIssueQuantity:
		return c.stepIssueQuantity(ctx, s, text)
	case domain.StepIssueRecipient:
		return c.stepIssueRecipient(ctx, s, text)
	default:
		log.Printf("chat %d: unknown session step %q, resetting", chatID, s.Step)
		c.resetSession(ctx, chatID)
		return Reply{Text: msgChooseAction, ShowMenu: true}
	}
}

func (c *ConversationService) stepAddName(ctx context.Context, s *domain.Session, text string) Reply {
	if text == "" {
		return Reply{Text: msgEmptyName}
	}
	s.PartName = text
	s.Step = domain.StepAddQuantity
	return c.saveAndPrompt(ctx, s, msgPromptQuantity)
}

func (c *ConversationService) stepAddQuantity(ctx context.Context, s *domain.Session, sender, text string) Reply {
	quantity, ok := parsePositiveInt(text)
	if !ok {
		return Reply{Text: msgBadNumber}
	}

	part, err := c.inventory.CreatePart(ctx, s.PartName, quantity, sender)
	c.resetSession(ctx, s.ChatID)
	if err != nil {
		log.Printf("chat %d: create part: %v", s.ChatID, err)
		return Reply{Text: msgStoreFailure, ShowMenu: true}
	}

	return Reply{Text: fmt.Sprintf(msgPartAdded, part.Name, part.Quantity), ShowMenu: true}
}

func (c *ConversationService) stepIssueSelect(ctx context.Context, s *domain.Session, text string) Reply {
	id, err := strconv.ParseInt(text, 10, 64)
	if err != nil || id < 1 {
		return Reply{Text: msgBadPartNumber}
	}

	part, err := c.inventory.GetPart(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return Reply{Text: msgBadPartNumber}
	}
	if err != nil {
		log.Printf("chat %d: get part %d: %v", s.ChatID, id, err)
		c.resetSession(ctx, s.ChatID)
		return Reply{Text: msgStoreFailure, ShowMenu: true}
	}

	// Snapshot of quantity at selection time. Advisory only: the issue
	// transaction re-checks it against live stock at commit.
	s.PartID = part.ID
	s.PartQuantity = part.Quantity
	s.Step = domain.StepIssueQuantity
	return c.saveAndPrompt(ctx, s, msgPromptIssueQty)
}

func (c *ConversationService) stepIssueQuantity(ctx context.Context, s *domain.Session, text string) Reply {
	quantity, ok := parsePositiveInt(text)
	if !ok {
		return Reply{Text: msgBadNumber}
	}
	if quantity > s.PartQuantity {
		return Reply{Text: msgInsufficient}
	}
	s.IssueQuantity = quantity
	s.Step = domain.StepIssueRecipient
	return c.saveAndPrompt(ctx, s, msgPromptRecipient)
}

func (c *ConversationService) stepIssueRecipient(ctx context.Context, s *domain.Session, text string) Reply {
	if text == "" {
		return Reply{Text: msgEmptyRecipient}
	}

	part, err := c.inventory.IssuePart(ctx, s.PartID, s.IssueQuantity, text)
	c.resetSession(ctx, s.ChatID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return Reply{Text: msgPartNotFound, ShowMenu: true}
	case errors.Is(err, domain.ErrInsufficientStock):
		return Reply{Text: msgInsufficient, ShowMenu: true}
	case err != nil:
		log.Printf("chat %d: issue part %d: %v", s.ChatID, s.PartID, err)
		return Reply{Text: msgStoreFailure, ShowMenu: true}
	}

	return Reply{Text: fmt.Sprintf(msgIssued, s.IssueQuantity, part.Name, text), ShowMenu: true}
}

func (c *ConversationService) listReply(ctx context.Context) Reply {
	parts, err := c.inventory.ListParts(ctx)
	if err != nil {
		log.Printf("list parts: %v", err)
		return Reply{Text: msgStoreFailure, ShowMenu: true}
	}
	if len(parts) == 0 {
		return Reply{Text: msgListEmpty, ShowMenu: true}
	}

	var b strings.Builder
	b.WriteString(msgListHeader)
	for _, p := range parts {
		fmt.Fprintf(&b, "%d. %s — %d шт.\n", p.ID, p.Name, p.Quantity)
	}
	return Reply{Text: b.String(), ShowMenu: true}
}

func (c *ConversationService) reportReply(ctx context.Context) Reply {
	file, err := c.reports.MonthlyReport(ctx, c.now())
	if err != nil {
		log.Printf("monthly report: %v", err)
		return Reply{Text: msgStoreFailure, ShowMenu: true}
	}
	if file == nil {
		return Reply{Text: msgReportEmpty, ShowMenu: true}
	}
	return Reply{Document: file, ShowMenu: true}
}

func (c *ConversationService) saveAndPrompt(ctx context.Context, s *domain.Session, prompt string) Reply {
	s.UpdatedAt = c.now()
	if err := c.sessions.Put(ctx, *s); err != nil {
		return c.sessionFailure(ctx, s.ChatID, err)
	}
	return Reply{Text: prompt}
}

// sessionFailure handles a broken session store: reset, tell the user
// to start over.
func (c *ConversationService) sessionFailure(ctx context.Context, chatID int64, err error) Reply {
	log.Printf("chat %d: session store: %v", chatID, err)
	c.resetSession(ctx, chatID)
	return Reply{Text: msgStoreFailure, ShowMenu: true}
}

func (c *ConversationService) resetSession(ctx context.Context, chatID int64) {
	if err := c.sessions.Delete(ctx, chatID); err != nil {
		log.Printf("chat %d: delete session: %v", chatID, err)
	}
}

func parsePositiveInt(text string) (int, bool) {
	n, err := strconv.Atoi(text)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}
