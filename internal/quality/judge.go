package quality

import (
	"context"
	"strings"

	"github.com/iliyamo/restaurant-phone-agent/internal/model"
)

// Criteria is a named rubric the judge rates a transcript against.
type Criteria struct {
	Name   string
	Points []string
}

// Naturalness asks whether the agent sounded like a person.
var Naturalness = Criteria{
	Name: "NATURALNESS",
	Points: []string{
		"Greeting appropriateness (5-20 words, friendly not overly formal)",
		"Natural language (sounds human, not robotic or scripted)",
		"Smooth topic transitions (not abrupt)",
		"Appropriate pacing (not too fast or slow)",
		"Natural acknowledgments (uses \"great\", \"perfect\" naturally)",
	},
}

// Professionalism asks whether the agent was courteous and clear.
var Professionalism = Criteria{
	Name: "PROFESSIONALISM",
	Points: []string{
		"Courteous language (uses \"please\", \"thank you\", not demanding)",
		"Appropriate formality (not too casual, not too stiff)",
		"Clear communication (complete sentences, good grammar)",
		"Handles issues gracefully (stays calm, doesn't blame)",
		"No slang or inappropriate language",
	},
}

// Judge rates a transcript from 0 to 100 against a rubric.
type Judge interface {
	Rate(ctx context.Context, transcript string, c Criteria) (float64, error)
}

// Transcript renders turns one per line as "User: ..." / "Agent: ...".
func Transcript(turns []model.ConversationTurn) string {
	var b strings.Builder
	for i, t := range turns {
		if i > 0 {
			b.WriteByte('\n')
		}
		switch t.Speaker {
		case model.SpeakerUser:
			b.WriteString("User: ")
		default:
			b.WriteString("Agent: ")
		}
		b.WriteString(t.Text)
	}
	return b.String()
}
