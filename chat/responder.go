package chat

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/ridecircle/backend/commuter"
)

// Where an answer came from.
const (
	SourceCompletion = "completion"
	SourceFallback   = "fallback"
)

// Answer is a reply to a question, tagged with its source.
type Answer struct {
	Text   string `json:"response"`
	Source string `json:"source"`
}

// Responder always produces an answer: the completion service's when it
// succeeds, the keyword templates' otherwise.
type Responder struct {
	completer Completer
}

// NewResponder accepts a nil completer, in which case every answer comes
// from the fallback.
func NewResponder(c Completer) *Responder {
	return &Responder{completer: c}
}

// Respond answers question about p. history is only forwarded to the
// completion service.
func (r *Responder) Respond(ctx context.Context, question string, p commuter.Profile, history []Turn) Answer {
	if r.completer != nil {
		text, err := r.completer.Complete(ctx, question, p, history)
		if err == nil {
			return Answer{Text: text, Source: SourceCompletion}
		}
		ev := log.Warn()
		if errors.Is(err, ErrUnauthorized) {
			ev = log.Error()
		}
		ev.Err(err).Str("profile_id", p.ID).Msg("completion failed, using fallback")
	}
	return Answer{Text: Fallback(question, p), Source: SourceFallback}
}
