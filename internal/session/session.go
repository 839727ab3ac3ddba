// Package session owns the conversation: the ordered message list and the
// state machine deciding when an agent turn is appended versus extended.
package session

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/qmuntal/stateless"

	"github.com/skycast-app/skycast/internal/logger"
	"github.com/skycast-app/skycast/internal/weather"
)

// Role identifies who produced a message.
type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

// Message is one conversation turn. The agent's in-flight turn is mutated in
// place (content grows) until the stream ends; everything else is final.
type Message struct {
	Role      Role
	Content   string
	Weather   *weather.Record
	Timestamp time.Time
}

// Update carries the in-progress agent reply as it grows.
type Update struct {
	Text    string
	Weather *weather.Record
}

// Responder produces the agent side of one turn. Implementations may invoke
// onUpdate repeatedly with cumulative text as the reply streams in.
type Responder interface {
	Respond(ctx context.Context, text string, onUpdate func(Update)) (Update, error)
}

// FallbackText replaces the agent turn when a stream is aborted; any partial
// text already decoded is discarded with it.
const FallbackText = "I'm having trouble connecting to weather data. Please try again."

var (
	// ErrBusy is returned when a send arrives while a turn is in flight.
	// The send is a no-op: not queued, not retried.
	ErrBusy = errors.New("a message is already in flight")

	// ErrEmpty is returned for blank input.
	ErrEmpty = errors.New("empty message")

	// ErrAborted marks responder failures that are absorbed into the
	// fallback chat turn instead of surfacing to the user as an error.
	ErrAborted = errors.New("stream aborted")
)

// Conversation flow states and triggers.
var (
	stateIdle      stateless.State = "Idle"
	stateStreaming stateless.State = "Streaming"

	triggerSend   stateless.Trigger = "Send"
	triggerFinish stateless.Trigger = "Finish"
	triggerAbort  stateless.Trigger = "Abort"
)

// Session is single-threaded by design: one logical thread of control per
// user action, no locking.
type Session struct {
	fsm       *stateless.StateMachine
	responder Responder
	messages  []Message

	// turn is the index of the in-progress agent message, -1 when none.
	// Extending versus appending is keyed on this, never on the role of
	// the last message, so two finished agent turns can never merge.
	turn int

	// generation identifies the request allowed to mutate the tail of the
	// conversation; a stale stream's updates are dropped.
	generation uuid.UUID
}

func New(responder Responder) *Session {
	fsm := stateless.NewStateMachine(stateIdle)
	fsm.Configure(stateIdle).
		Permit(triggerSend, stateStreaming)
	fsm.Configure(stateStreaming).
		Permit(triggerFinish, stateIdle).
		Permit(triggerAbort, stateIdle)

	return &Session{
		fsm:       fsm,
		responder: responder,
		turn:      -1,
	}
}

// Messages returns a snapshot of the conversation.
func (s *Session) Messages() []Message {
	return slices.Clone(s.messages)
}

// Busy reports whether a turn is currently in flight.
func (s *Session) Busy() bool {
	return s.fsm.MustState() == stateStreaming
}

// Clear empties the conversation. It refuses while a turn is in flight.
func (s *Session) Clear() error {
	if s.Busy() {
		return ErrBusy
	}
	s.messages = nil
	return nil
}

// Send appends the user's turn, drives the responder, and finalizes the
// agent's turn. Aborted streams become the fixed fallback turn; all other
// responder errors are returned with no agent turn left behind. The
// finalized agent message is returned on success.
func (s *Session) Send(ctx context.Context, text string, onUpdate func(Update)) (*Message, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmpty
	}
	if err := s.fsm.Fire(triggerSend); err != nil {
		return nil, ErrBusy
	}

	gen := uuid.New()
	s.generation = gen
	s.messages = append(s.messages, Message{Role: RoleUser, Content: text, Timestamp: time.Now()})

	final, err := s.responder.Respond(ctx, text, func(u Update) {
		if s.generation != gen {
			logger.L.Debug("dropping update from superseded request")
			return
		}
		s.extend(u)
		if onUpdate != nil {
			onUpdate(u)
		}
	})

	if s.generation != gen {
		// A newer request owns the conversation tail now.
		return nil, err
	}

	if err != nil {
		s.dropInProgress()
		if errors.Is(err, ErrAborted) {
			logger.L.Warn("agent turn aborted", "error", err)
			s.extend(Update{Text: FallbackText})
			return s.finalize(triggerAbort), nil
		}
		_ = s.fsm.Fire(triggerAbort)
		return nil, err
	}

	s.extend(final)
	return s.finalize(triggerFinish), nil
}

// extend grows the in-progress agent turn, creating it on first update.
func (s *Session) extend(u Update) {
	if s.turn < 0 {
		s.messages = append(s.messages, Message{Role: RoleAgent, Timestamp: time.Now()})
		s.turn = len(s.messages) - 1
	}
	m := &s.messages[s.turn]
	m.Content = u.Text
	if u.Weather != nil {
		m.Weather = u.Weather
	}
}

// dropInProgress discards a partially decoded agent turn.
func (s *Session) dropInProgress() {
	if s.turn < 0 {
		return
	}
	s.messages = append(s.messages[:s.turn], s.messages[s.turn+1:]...)
	s.turn = -1
}

func (s *Session) finalize(trigger stateless.Trigger) *Message {
	msg := s.messages[s.turn]
	s.turn = -1
	if err := s.fsm.Fire(trigger); err != nil {
		logger.L.Error("conversation state machine fire failed", "trigger", trigger, "error", err)
	}
	return &msg
}
