package prompt

import (
	"fmt"
	"strings"
	"time"

	"github.com/ppiankov/fcyf/internal/model"
)

// NotEnoughSources is the answer the model must give when it cannot verify a claim
const NotEnoughSources = "Not enough solid sources to confirm."

// ExtraCitationThreshold is the confidence below which the policy asks for
// one more citation. It is stated to the model and never enforced in code.
const ExtraCitationThreshold = 0.6

// Payload is the role-tagged input for one summarization call
type Payload struct {
	System string
	User   string

	// Evidence is the exact record list rendered into User, in order.
	// The summarizer uses it to repair unparseable output.
	Evidence []model.EvidenceRecord
}

const basePolicy = `You are FCYF: a fast, no-nonsense fact checker for casual conversation.
Primary job: given a short claim or question, verify it quickly with the provided web sources.
Keep answers short and clear. Friendly, PG-rated bar-stool tone.

STYLE
- "answer": 45 words or fewer, plain language. Use numbers and dates where helpful.
- "speak": one sentence version of the answer for read-aloud.
- "notes": optional nuance or ambiguity, 20 words or fewer. Omit if not needed.

CITATIONS
- Include 2-4 citations that directly support the answer, chosen only from the provided web results.
- Never invent citations.
- If confidence < %.1f, add one extra citation.

UNCERTAINTY & REFUSAL
- If you cannot verify, answer "%s" and provide 1-2 "next_searches".
- Refuse unsafe or private-data requests.

Return ONLY the JSON object. No extra keys, no prose.`

// Build renders the system and user messages for a claim and its evidence.
// It is pure: the same inputs and date always give byte-identical output.
func Build(req model.CheckRequest, evidence []model.EvidenceRecord, today time.Time) Payload {
	var sys strings.Builder
	sys.WriteString(fmt.Sprintf(basePolicy, ExtraCitationThreshold, NotEnoughSources))
	sys.WriteString("\n\n")
	sys.WriteString(toneLine(req.Spice.Normalize()))
	if req.Skeptic {
		sys.WriteString("\nSkeptic mode: treat the claim as doubtful until the sources confirm it, and call out weak or single-source support in notes.")
	}

	var user strings.Builder
	fmt.Fprintf(&user, "Claim: %s\n\n", req.Query)
	fmt.Fprintf(&user, "Today: %s\n\n", today.Format("2006-01-02"))
	user.WriteString("You are given pre-fetched web results (already vetted for relevance). Cross-check them and return the structured JSON.\n")
	user.WriteString("Rules:\n")
	user.WriteString("- Use 2-4 sources when available (pick the most direct/reputable with recent dates).\n")
	user.WriteString("- If sources conflict or are weak, say so in notes and lower confidence.\n")
	fmt.Fprintf(&user, "- If not enough to confirm, answer: %q and add 1-2 next_searches.\n\n", NotEnoughSources)
	user.WriteString("Web results:\n")

	if len(evidence) == 0 {
		user.WriteString("(none)\n")
	}
	for i, rec := range evidence {
		if i > 0 {
			user.WriteString("\n")
		}
		fmt.Fprintf(&user, "[%d] %s\n", i+1, rec.Title)
		fmt.Fprintf(&user, "URL: %s\n", rec.URL)
		fmt.Fprintf(&user, "Date: %s\n", rec.Date)
		if rec.Authority != model.TierUnknown {
			fmt.Fprintf(&user, "Source type: %s\n", rec.Authority)
		}
		fmt.Fprintf(&user, "Snippet: %s\n", rec.Snippet)
	}

	records := make([]model.EvidenceRecord, len(evidence))
	copy(records, evidence)

	return Payload{
		System:   sys.String(),
		User:     user.String(),
		Evidence: records,
	}
}

func toneLine(spice model.Spice) string {
	switch spice {
	case model.SpiceLight:
		return "Tone: light. A playful word or two is fine."
	case model.SpiceExtra:
		return "Tone: extra. Playful but respectful, never mean."
	default:
		return "Tone: straight. No jokes."
	}
}
