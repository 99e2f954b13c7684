package intake

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"

	"github.com/PadmDeveloper/RedmineBrowser/internal/automation"
)

// State is a conversation's position in the intake flow.
type State int

const (
	StateIdle State = iota
	StateAwaitingIssueID
	StateAwaitingNoteCount
	StateAwaitingNoteText
)

// conversation accumulates one in-progress form. One record exists per chat;
// it is removed on every terminal transition (success, failure report, cancel).
type conversation struct {
	state      State
	issueID    string
	notesCount int
}

// AutomationClient is the boundary the conversation submits through.
type AutomationClient interface {
	AddNote(ctx context.Context, req *automation.Request) (*automation.Result, error)
	Health(ctx context.Context) error
}

// User-visible messages, kept stable so tests can assert on them.
const (
	msgUnauthorized     = "❌ Unauthorized access"
	msgServerActive     = "✅ Server is active"
	msgServerDown       = "❌ Server is not responding"
	msgAskIssueID       = "📝 Please enter the issue ID:"
	msgInvalidIssueID   = "❌ Invalid ID. Please enter a numeric issue ID:"
	msgAskNoteCount     = "🔢 Please enter the notes count:"
	msgInvalidNoteCount = "❌ Invalid count. Please enter a positive number:"
	msgAskNoteText      = "📝 Please enter the note text:"
	msgEmptyNoteText    = "❌ Note text cannot be empty. Please enter the note:"
	msgProcessing       = "⏳ Processing your request... This may take a moment."
	msgCancelled        = "❌ Operation cancelled"

	msgHelp = `🤖 Redmine Bot Commands:

/start - Check server status
/form - Start form filling process
/cancel - Cancel current operation
/help - Show this help message

Process:
1. Use /form to start
2. Enter issue ID
3. Enter notes count
4. Enter note text
5. Bot will process and confirm`
)

// Manager runs one intake conversation per chat. All gated commands require
// the single allow-listed chat id; everyone else gets a fixed rejection and
// no state transition.
type Manager struct {
	mu            sync.Mutex
	conversations map[int64]*conversation

	authorizedChatID int64
	client           AutomationClient
}

// NewManager creates an intake manager bound to one authorized chat.
func NewManager(authorizedChatID int64, client AutomationClient) *Manager {
	return &Manager{
		conversations:    make(map[int64]*conversation),
		authorizedChatID: authorizedChatID,
		client:           client,
	}
}

// HandleCommand processes a chat command and returns the replies to send.
// Unknown commands produce no reply.
func (m *Manager) HandleCommand(ctx context.Context, chatID int64, command string) []string {
	if chatID != m.authorizedChatID {
		// Rejection is expected traffic, not an error.
		return []string{msgUnauthorized}
	}

	switch command {
	case "start":
		if err := m.client.Health(ctx); err != nil {
			log.Printf("Health probe failed: %v", err)
			return []string{msgServerDown}
		}
		return []string{msgServerActive}
	case "form":
		m.mu.Lock()
		m.conversations[chatID] = &conversation{state: StateAwaitingIssueID}
		m.mu.Unlock()
		return []string{msgAskIssueID}
	case "cancel":
		m.mu.Lock()
		delete(m.conversations, chatID)
		m.mu.Unlock()
		return []string{msgCancelled}
	case "help":
		return []string{msgHelp}
	default:
		return nil
	}
}

// HandleMessage processes plain text against the chat's conversation state.
// On note-text acceptance it issues the automation request synchronously and
// reports the result; the accumulated fields are cleared on every outcome,
// including transport failure.
func (m *Manager) HandleMessage(ctx context.Context, chatID int64, text string) []string {
	if chatID != m.authorizedChatID {
		return nil
	}

	text = strings.TrimSpace(text)

	m.mu.Lock()
	conv, ok := m.conversations[chatID]
	if !ok {
		m.mu.Unlock()
		return nil
	}

	switch conv.state {
	case StateAwaitingIssueID:
		if !isDigits(text) {
			m.mu.Unlock()
			return []string{msgInvalidIssueID}
		}
		conv.issueID = text
		conv.state = StateAwaitingNoteCount
		m.mu.Unlock()
		return []string{msgAskNoteCount}

	case StateAwaitingNoteCount:
		count, err := strconv.Atoi(text)
		if !isDigits(text) || err != nil || count <= 0 {
			m.mu.Unlock()
			return []string{msgInvalidNoteCount}
		}
		conv.notesCount = count
		conv.state = StateAwaitingNoteText
		m.mu.Unlock()
		return []string{msgAskNoteText}

	case StateAwaitingNoteText:
		if text == "" {
			m.mu.Unlock()
			return []string{msgEmptyNoteText}
		}
		req := &automation.Request{
			IssueID:    conv.issueID,
			NotesCount: conv.notesCount,
			NoteText:   text,
		}
		// Terminal transition: the record is gone before the request goes
		// out, so nothing can re-enter this form while the run is in flight.
		delete(m.conversations, chatID)
		m.mu.Unlock()
		return []string{msgProcessing, m.runAutomation(ctx, req)}

	default:
		m.mu.Unlock()
		return nil
	}
}

func (m *Manager) runAutomation(ctx context.Context, req *automation.Request) string {
	result, err := m.client.AddNote(ctx, req)
	if err != nil {
		log.Printf("Automation request failed: %v", err)
		return fmt.Sprintf("❌ Connection error: %v", err)
	}

	if !result.Success {
		if result.ProcessedCount > 0 {
			return fmt.Sprintf("❌ Error after %d note(s): %s", result.ProcessedCount, result.Message)
		}
		return fmt.Sprintf("❌ Error: %s", result.Message)
	}

	return fmt.Sprintf("✅ %s", result.Message)
}

// stateOf reports the chat's current state; Idle when no record exists.
func (m *Manager) stateOf(chatID int64) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if conv, ok := m.conversations[chatID]; ok {
		return conv.state
	}
	return StateIdle
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
