// Copyright 2025 The citewell authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package answer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/citewell/citewell/ai"
	"github.com/citewell/citewell/core"
	"github.com/citewell/citewell/guard"
	"github.com/citewell/citewell/metrics"
	"github.com/citewell/citewell/search"
	"github.com/citewell/citewell/storage"
)

// DefaultTopK is the number of chunks retrieved per question.
const DefaultTopK = 5

const systemPrompt = `You answer questions using only the provided context passages.
Each passage is labeled with a marker like [S1]. Cite the markers of the passages
you used. If the context does not contain the answer, say so instead of guessing.`

// Request is one question against a workspace's knowledge base.
type Request struct {
	WorkspaceId core.ID
	Question    string

	// ConversationId selects the conversation to append to. Zero means no
	// history is kept.
	ConversationId core.ID

	// TopK overrides the retrieval depth. Zero means DefaultTopK.
	TopK int

	// UseMMR enables diversity re-ranking of the retrieved chunks.
	UseMMR bool
}

// Answerer sequences retrieval, screening, context assembly, and generation
// into cited answers.
type Answerer struct {
	searcher      *search.Searcher
	detector      *guard.Detector
	chat          ai.ChatModel
	conversations storage.ConversationRepository
	builder       *ContextBuilder
	sink          metrics.Sink
	logger        *slog.Logger
}

// Option configures an Answerer.
type Option func(*Answerer) error

// WithConversations enables conversation history persistence.
func WithConversations(conversations storage.ConversationRepository) Option {
	return func(a *Answerer) error {
		a.conversations = conversations
		return nil
	}
}

// WithMaxContextChars bounds the rendered context block.
func WithMaxContextChars(maxChars int) Option {
	return func(a *Answerer) error {
		builder, err := NewContextBuilder(maxChars)
		if err != nil {
			return err
		}
		a.builder = builder
		return nil
	}
}

// WithMetrics sets the metrics sink. Default is a no-op sink.
func WithMetrics(sink metrics.Sink) Option {
	return func(a *Answerer) error {
		a.sink = metrics.OrNoop(sink)
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *Answerer) error {
		if logger == nil {
			logger = slog.Default()
		}
		a.logger = logger.With("component", "answerer")
		return nil
	}
}

// NewAnswerer creates an Answerer.
func NewAnswerer(searcher *search.Searcher, detector *guard.Detector, chat ai.ChatModel, opts ...Option) (*Answerer, error) {
	if searcher == nil {
		return nil, ErrSearcherRequired
	}
	if detector == nil {
		return nil, ErrDetectorRequired
	}
	if chat == nil {
		return nil, ErrChatModelRequired
	}

	builder, err := NewContextBuilder(DefaultMaxContextChars)
	if err != nil {
		return nil, err
	}

	a := &Answerer{
		searcher: searcher,
		detector: detector,
		chat:     chat,
		builder:  builder,
		sink:     metrics.Noop{},
		logger:   slog.Default().With("component", "answerer"),
	}

	for _, opt := range opts {
		if optErr := opt(a); optErr != nil {
			return nil, optErr
		}
	}

	return a, nil
}

// Ask answers a question in one shot. Generation failures surface as typed
// errors; the chat model is expected to carry its own retry policy.
func (a *Answerer) Ask(ctx context.Context, req Request) (*Answer, error) {
	prompt, cited, err := a.prepare(ctx, &req)
	if err != nil {
		return nil, err
	}

	text, err := a.chat.Generate(ctx, systemPrompt, prompt)
	if err != nil {
		return nil, err
	}

	result := &Answer{
		Text:    text,
		Sources: cited.Sources,
		Status:  core.MessageComplete,
	}
	a.persist(ctx, req, result)
	return result, nil
}

// AskStream answers a question as a stream of event frames. The returned
// channel is closed after exactly one terminal EventDone or EventError.
// Cancelling ctx stops token emission; what was already generated is
// persisted with status cancelled, never errored.
func (a *Answerer) AskStream(ctx context.Context, req Request) <-chan Event {
	events := make(chan Event, 16)
	go func() {
		defer close(events)
		a.stream(ctx, req, events)
	}()
	return events
}

// stream is the single producer behind AskStream.
func (a *Answerer) stream(ctx context.Context, req Request, events chan<- Event) {
	prompt, cited, err := a.prepare(ctx, &req)
	if err != nil {
		a.emit(ctx, events, Event{Type: EventError, Err: err})
		return
	}

	a.emit(ctx, events, Event{Type: EventSources, Sources: cited.Sources})

	text, err := a.chat.GenerateStream(ctx, systemPrompt, prompt, func(tokenCtx context.Context, token string) error {
		if !a.emit(tokenCtx, events, Event{Type: EventToken, Token: token}) {
			return context.Cause(tokenCtx)
		}
		a.sink.Count(tokenCtx, metrics.TokensStreamed, 1)
		return nil
	})

	switch {
	case err == nil:
		result := &Answer{Text: text, Sources: cited.Sources, Status: core.MessageComplete}
		a.persist(ctx, req, result)
		a.emit(ctx, events, Event{Type: EventDone, Answer: result})

	case ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		// Cancelled mid-generation: keep what was emitted, never report it
		// as an error
		a.sink.Count(context.WithoutCancel(ctx), metrics.StreamsCancelled, 1)
		result := &Answer{Text: text, Sources: cited.Sources, Status: core.MessageCancelled}
		a.persist(context.WithoutCancel(ctx), req, result)
		a.emitTerminal(events, Event{Type: EventDone, Answer: result})

	default:
		// ctx is still alive here, so the blocking send is safe and the
		// consumer is guaranteed a terminal frame even when the buffer is
		// full.
		a.logger.Error("generation failed", "err", err)
		result := &Answer{Text: text, Sources: cited.Sources, Status: core.MessageErrored}
		a.persist(ctx, req, result)
		a.emit(ctx, events, Event{Type: EventError, Err: err, Answer: result})
	}
}

// prepare runs retrieval, screening, and context assembly, and renders the
// final prompt. It normalizes the request in place.
func (a *Answerer) prepare(ctx context.Context, req *Request) (string, *Context, error) {
	if req.WorkspaceId == 0 {
		return "", nil, fmt.Errorf("%w: workspace id is required", core.ErrValidation)
	}
	if strings.TrimSpace(req.Question) == "" {
		return "", nil, fmt.Errorf("%w: question is required", core.ErrValidation)
	}
	if req.TopK <= 0 {
		req.TopK = DefaultTopK
	}

	chunks, err := a.searcher.Search(ctx, search.Query{
		WorkspaceId: req.WorkspaceId,
		Text:        req.Question,
		TopK:        req.TopK,
		UseMMR:      req.UseMMR,
	})
	if err != nil {
		return "", nil, err
	}

	screened, err := a.detector.Screen(ctx, req.Question, chunks)
	if err != nil {
		return "", nil, err
	}

	cited := a.builder.Build(screened.Chunks)

	history, err := a.history(ctx, req.ConversationId)
	if err != nil {
		return "", nil, err
	}

	var sb strings.Builder
	if cited.Text != "" {
		sb.WriteString("Context:\n")
		sb.WriteString(cited.Text)
		sb.WriteString("\n\n")
	}
	if history != "" {
		sb.WriteString("Conversation so far:\n")
		sb.WriteString(history)
		sb.WriteString("\n\n")
	}
	sb.WriteString("Question: ")
	sb.WriteString(req.Question)

	return sb.String(), cited, nil
}

// history renders the stored conversation as dialogue lines. A missing
// conversation is simply empty history.
func (a *Answerer) history(ctx context.Context, conversationID core.ID) (string, error) {
	if conversationID == 0 || a.conversations == nil {
		return "", nil
	}

	conv, err := a.conversations.GetConversation(ctx, conversationID)
	if errors.Is(err, core.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, msg := range conv.Messages {
		switch msg.Role {
		case core.RoleUser:
			sb.WriteString("User: ")
		case core.RoleAssistant:
			sb.WriteString("Assistant: ")
		}
		sb.WriteString(msg.Content)
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}

// persist appends the exchange to the conversation. Failures are logged,
// not surfaced: the answer was already produced.
func (a *Answerer) persist(ctx context.Context, req Request, result *Answer) {
	if req.ConversationId == 0 || a.conversations == nil {
		return
	}

	now := time.Now().UTC()
	_, err := a.conversations.AppendMessages(ctx, req.ConversationId, req.WorkspaceId,
		core.Message{Role: core.RoleUser, Content: req.Question, Status: core.MessageComplete, CreatedAt: now},
		core.Message{Role: core.RoleAssistant, Content: result.Text, Status: result.Status, CreatedAt: now},
	)
	if err != nil {
		a.logger.Error("could not persist conversation", "conversation", req.ConversationId, "err", err)
	}
}

// emit sends an event unless ctx is done. Reports whether the event was
// delivered.
func (a *Answerer) emit(ctx context.Context, events chan<- Event, ev Event) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// emitTerminal delivers a terminal frame even when ctx is already cancelled.
// The channel buffer makes this safe against a consumer that stopped
// reading.
func (a *Answerer) emitTerminal(events chan<- Event, ev Event) {
	select {
	case events <- ev:
	default:
	}
}
