package oracle

import (
	"regexp"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	quoteOpen  = "<<<"
	quoteClose = ">>>"
)

// quotedOps are the prompts that carry the recruiter's own words in Text.
// Their templates announce the <<< >>> block as data.
var quotedOps = map[string]bool{
	"detect-language": true,
	"classify-intent": true,
	"resolve-field":   true,
	"extract-value":   true,
	"extract-facts":   true,
	"compose-welcome": true,
	"compose-clarify": true,
}

// injectionPatterns match the usual attempts to turn an answer into
// instructions, in the languages recruiters write in.
var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ignore\s+(all\s+)?(the\s+)?(previous|prior|above)\s+instructions?`),
	regexp.MustCompile(`(?i)disregard\s+(all\s+)?(the\s+)?(previous|prior|above)`),
	regexp.MustCompile(`(?i)forget\s+(all\s+)?(previous|prior|everything)`),
	regexp.MustCompile(`(?i)new\s+instructions?\s*:`),
	regexp.MustCompile(`(?i)system\s+prompt`),
	regexp.MustCompile(`(?i)you\s+are\s+now\s+`),
	regexp.MustCompile(`(?i)ignore[sz]?\s+(toutes\s+)?les\s+instructions\s+(pr[ée]c[ée]dentes|ci-dessus)`),
	regexp.MustCompile(`(?i)oublie[sz]?\s+(tout|les\s+instructions)`),
	regexp.MustCompile(`(?i)nouvelles?\s+instructions?\s*:`),
	regexp.MustCompile(`(?i)ignora\s+(todas\s+)?las\s+instrucciones\s+anteriores`),
	regexp.MustCompile(`(?i)olvida\s+(todo|las\s+instrucciones)`),
	regexp.MustCompile(`(?i)nuevas\s+instrucciones\s*:`),
}

// injectionSuspected counts recruiter messages matching an injection pattern
var injectionSuspected = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "posting_oracle_injection_suspected_total",
	Help: "Recruiter messages matching a prompt injection pattern, by oracle operation",
}, []string{"op"})

// suspiciousPhrases returns the fragments of text that match an injection
// pattern. Matching never blocks the turn; the text is still quoted.
func suspiciousPhrases(text string) []string {
	var found []string
	for _, p := range injectionPatterns {
		if m := p.FindString(text); m != "" {
			found = append(found, m)
		}
	}
	return found
}

// quoteUserText wraps text in the delimiters the prompts refer to. Delimiters
// inside text are defused so that it cannot close the block early.
func quoteUserText(text string) string {
	text = strings.ReplaceAll(text, quoteOpen, "< < <")
	text = strings.ReplaceAll(text, quoteClose, "> > >")
	return quoteOpen + "\n" + text + "\n" + quoteClose
}
