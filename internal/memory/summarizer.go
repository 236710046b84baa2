package memory

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/posting-assistant/internal/oracle"
)

const (
	textStart   = "start"
	textOngoing = "ongoing"
	textFacts   = "facts"
)

var texts = map[string]map[string]string{
	"fr": {
		textStart:   "Début de la conversation.",
		textOngoing: "Conversation en cours sur une offre d'emploi.",
		textFacts:   "Informations mémorisées :",
	},
	"en": {
		textStart:   "Start of conversation.",
		textOngoing: "Ongoing conversation about a job offer.",
		textFacts:   "Memorized information:",
	},
	"es": {
		textStart:   "Inicio de la conversación.",
		textOngoing: "Conversación en curso sobre una oferta de trabajo.",
		textFacts:   "Información memorizada:",
	},
}

func text(lang, key string) string {
	if m, ok := texts[lang]; ok {
		return m[key]
	}
	return texts["en"][key]
}

// Summarizer fills memory through the oracle: fact extraction on user turns
// and short conversation summaries. Oracle failures degrade to static text.
type Summarizer struct {
	oracle oracle.Oracle
	logger *zap.Logger
}

// NewSummarizer creates a summarizer. A nil logger disables logging.
func NewSummarizer(o oracle.Oracle, logger *zap.Logger) *Summarizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Summarizer{oracle: o, logger: logger}
}

// Facts extracts long-term facts from a user message. Failures yield no
// facts.
func (s *Summarizer) Facts(ctx context.Context, userText string) map[string]string {
	if strings.TrimSpace(userText) == "" {
		return nil
	}
	facts, err := s.oracle.ExtractFacts(ctx, userText)
	if err != nil {
		s.logger.Debug("fact extraction failed", zap.Error(err))
		return nil
	}
	return facts
}

// LearnFacts extracts facts from a user message and merges them into m.
func (s *Summarizer) LearnFacts(ctx context.Context, m Memory, userText string) Memory {
	return m.WithFacts(s.Facts(ctx, userText))
}

// Summary returns a short summary of the conversation in lang.
func (s *Summarizer) Summary(ctx context.Context, m Memory, lang string) string {
	if len(m.Turns) == 0 {
		return text(lang, textStart)
	}

	transcript := m.Transcript(SummaryTurns)
	if facts := m.FactsLine(lang); facts != "" {
		transcript += "\n\n" + facts
	}
	summary, err := s.oracle.Summarize(ctx, oracle.SummaryRequest{Transcript: transcript, Language: lang})
	if err == nil && strings.TrimSpace(summary) != "" {
		return strings.TrimSpace(summary)
	}
	if err != nil {
		s.logger.Debug("summary unavailable, using fallback", zap.Error(err))
	}

	if facts := m.FactsLine(lang); facts != "" {
		return facts
	}
	return text(lang, textOngoing)
}
