package turn

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/Danish137/Digital-twin/internal/model/chat"
	speechmodel "github.com/Danish137/Digital-twin/internal/model/speech"
	"github.com/Danish137/Digital-twin/internal/service/conversation"
)

// ErrNoSpeech marks an utterance the recognizer heard nothing in. It is a
// no-op signal, not a failure: the session is untouched and no downstream
// service is called.
var ErrNoSpeech = errors.New("no speech detected")

// Stage names the pipeline step an upstream failure belongs to.
type Stage string

const (
	StageTranscription Stage = "transcription"
	StageChat          Stage = "chat"
	StageSynthesis     Stage = "synthesis"
)

// StageError wraps an upstream failure with the stage it occurred in so
// handlers can tell the user which part of the turn broke.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// UserMessage returns the user-facing description for a failed stage.
func (s Stage) UserMessage() string {
	switch s {
	case StageTranscription:
		return "couldn't hear you"
	case StageChat:
		return "thinking failed"
	case StageSynthesis:
		return "voice unavailable"
	default:
		return "something went wrong"
	}
}

// Phase is the orchestrator's position in a turn, mirrored by the UI.
type Phase string

const (
	PhaseIdle         Phase = "idle"
	PhaseListening    Phase = "listening"
	PhaseTranscribing Phase = "transcribing"
	PhaseResponding   Phase = "responding"
	PhaseSynthesizing Phase = "synthesizing"
)

// Transcriber recognizes text from recorded audio.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, format string) (*speechmodel.Transcription, error)
}

// Responder generates the next assistant message from the full conversation,
// whose last turn is the pending user turn.
type Responder interface {
	Reply(ctx context.Context, turns []chat.Turn) (string, error)
}

// Synthesizer converts assistant text into playable audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (*speechmodel.Synthesis, error)
}

// Result is the outcome of one completed conversation turn. Audio is nil when
// synthesis failed; Warning then carries the degraded-mode notice and the
// assistant text is still valid.
type Result struct {
	SessionID   string `json:"sessionId"`
	Transcript  string `json:"transcript"`
	Reply       string `json:"reply"`
	Audio       []byte `json:"audio,omitempty"`
	AudioFormat string `json:"audioFormat,omitempty"`
	Warning     string `json:"warning,omitempty"`
}

// Option configures a single HandleTurn call.
type Option func(*turnOptions)

type turnOptions struct {
	observePhase func(Phase)
}

// WithPhaseObserver reports every phase transition of the turn, ending with
// PhaseIdle. Used by the websocket handler to push UI state events.
func WithPhaseObserver(fn func(Phase)) Option {
	return func(o *turnOptions) {
		o.observePhase = fn
	}
}

// Orchestrator drives one conversation turn: audio in, transcript appended,
// reply generated, reply appended, audio out. Steps run strictly in sequence;
// a turn either completes, degrades (no audio), or fails outright.
type Orchestrator struct {
	transcriber   Transcriber
	responder     Responder
	synthesizer   Synthesizer
	conversations *conversation.Service
}

// NewOrchestrator wires the three provider clients to the conversation log.
func NewOrchestrator(transcriber Transcriber, responder Responder, synthesizer Synthesizer, conversations *conversation.Service) *Orchestrator {
	return &Orchestrator{
		transcriber:   transcriber,
		responder:     responder,
		synthesizer:   synthesizer,
		conversations: conversations,
	}
}

// HandleTurn runs one request/response cycle for the session.
//
// Failure semantics, per stage:
//   - transcription failure leaves the session untouched;
//   - an empty transcript returns ErrNoSpeech without touching the session or
//     spending a chat/synthesis call;
//   - chat failure keeps the just-appended user turn so context survives a
//     retry;
//   - synthesis failure degrades: both turns are stored and the assistant text
//     is returned with a warning instead of audio.
func (o *Orchestrator) HandleTurn(ctx context.Context, sessionID string, audio []byte, format string, opts ...Option) (*Result, error) {
	var options turnOptions
	for _, opt := range opts {
		opt(&options)
	}

	setPhase := func(p Phase) {
		if options.observePhase != nil {
			options.observePhase(p)
		}
	}
	defer setPhase(PhaseIdle)

	if _, err := o.conversations.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}

	setPhase(PhaseTranscribing)
	transcription, err := o.transcriber.Transcribe(ctx, audio, format)
	if err != nil {
		return nil, &StageError{Stage: StageTranscription, Err: err}
	}

	transcript := strings.TrimSpace(transcription.Text)
	if transcript == "" {
		return nil, ErrNoSpeech
	}

	if err := o.conversations.Append(ctx, sessionID, chat.Turn{Role: chat.RoleUser, Text: transcript}); err != nil {
		return nil, err
	}

	setPhase(PhaseResponding)
	history, err := o.conversations.History(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	reply, err := o.responder.Reply(ctx, history)
	if err != nil {
		// The user turn stays in the log so the next attempt keeps context.
		return nil, &StageError{Stage: StageChat, Err: err}
	}

	if err := o.conversations.Append(ctx, sessionID, chat.Turn{Role: chat.RoleAssistant, Text: reply}); err != nil {
		return nil, err
	}

	result := &Result{
		SessionID:  sessionID,
		Transcript: transcript,
		Reply:      reply,
	}

	setPhase(PhaseSynthesizing)
	synthesis, err := o.synthesizer.Synthesize(ctx, reply)
	if err != nil {
		// Degraded turn: the conversation state is already correct, the user
		// just doesn't get audio playback.
		log.Printf("[turn] synthesis failed for session=%s: %v", sessionID, err)
		result.Warning = StageSynthesis.UserMessage()
		return result, nil
	}

	result.Audio = synthesis.Audio
	result.AudioFormat = synthesis.Format
	return result, nil
}
