package quality

import (
	"github.com/iliyamo/restaurant-phone-agent/internal/model"
	"github.com/iliyamo/restaurant-phone-agent/internal/phrase"
)

// Dimension weights of the overall score.  They sum to 1.
const (
	WeightAccuracy        = 0.30
	WeightHelpfulness     = 0.25
	WeightEfficiency      = 0.20
	WeightNaturalness     = 0.15
	WeightProfessionalism = 0.10
)

// DefaultSubjectiveScore is used for the judge-rated dimensions when
// the judge cannot be asked or fails.
const DefaultSubjectiveScore = 75.0

const (
	idealUserTurns       = 5
	targetDurationSec    = 120.0
	targetLatencyMs      = 3000.0
	shortCallSeconds     = 30.0
	correctionPenalty    = 15.0
	confirmationBonus    = 5.0
	maxConfirmBonus      = 20.0
	noTranscriptAccuracy = 75.0
)

var correctionPhrases = []string{
	"no", "actually", "i said", "that's wrong", "you mean", "not",
	"correction", "mistake", "i meant", "that's not right",
}

var confirmationPhrases = []string{
	"yes that's right", "correct", "exactly", "yes", "perfect", "that's it",
}

var frustrationPhrases = []string{
	"frustrated", "frustrating", "annoying", "annoyed", "ridiculous",
	"forget it", "never mind", "useless", "speak to a human", "real person",
}

// Scores holds the five dimension scores of a call.
type Scores struct {
	Efficiency      float64
	Accuracy        float64
	Helpfulness     float64
	Naturalness     float64
	Professionalism float64
}

// Efficiency starts at 100 and loses points for extra user turns, long
// calls, clarifications and slow model responses.
func Efficiency(m model.CallMetrics) float64 {
	score := 100.0
	if m.UserTurns > idealUserTurns {
		score -= 5 * float64(m.UserTurns-idealUserTurns)
	}
	if m.DurationSeconds > targetDurationSec {
		score -= (m.DurationSeconds - targetDurationSec) / 10
	}
	score -= 10 * float64(m.Clarifications)
	if lat := float64(m.LLMLatencyMs); lat > targetLatencyMs {
		score -= (lat - targetLatencyMs) / 100
	}
	return clamp(score)
}

// Accuracy reads the caller's turns: each turn with a correction costs
// 15 and each confirming turn earns 5, with the bonus capped at 20.
// Without caller turns there is nothing to judge and 75 is returned.
func Accuracy(turns []model.ConversationTurn) float64 {
	score := 100.0
	bonus := 0.0
	userTurns := 0
	for _, t := range turns {
		if t.Speaker != model.SpeakerUser {
			continue
		}
		userTurns++
		if phrase.ContainsAny(t.Text, correctionPhrases) {
			score -= correctionPenalty
		}
		if phrase.ContainsAny(t.Text, confirmationPhrases) {
			bonus += confirmationBonus
		}
	}
	if userTurns == 0 {
		return noTranscriptAccuracy
	}
	if bonus > maxConfirmBonus {
		bonus = maxConfirmBonus
	}
	return clamp(score + bonus)
}

// Helpfulness scores the outcome of the call.  The first matching rule
// wins.  A zero duration means the call was never timed and does not
// count as a short call.
func Helpfulness(m model.CallMetrics) float64 {
	switch {
	case m.BookingCompleted:
		return 100
	case m.HungUpEarly:
		return 0
	case m.DurationSeconds > 0 && m.DurationSeconds < shortCallSeconds:
		return 20
	case m.IntentFulfilled:
		return 60
	default:
		return 50
	}
}

// Composite is the weighted overall score.
func Composite(s Scores) float64 {
	return WeightAccuracy*s.Accuracy +
		WeightHelpfulness*s.Helpfulness +
		WeightEfficiency*s.Efficiency +
		WeightNaturalness*s.Naturalness +
		WeightProfessionalism*s.Professionalism
}

// TierFor maps an overall score to its label.  Lower bounds are
// inclusive.
func TierFor(overall float64) string {
	switch {
	case overall >= 90:
		return "Excellent"
	case overall >= 75:
		return "Great"
	case overall >= 60:
		return "Good"
	case overall >= 40:
		return "Fair"
	default:
		return "Poor"
	}
}

// Frustrated reports whether the caller sounded frustrated, or gave up
// after the agent had to ask them to repeat themselves.
func Frustrated(m model.CallMetrics, turns []model.ConversationTurn) bool {
	if m.HungUpEarly && m.Clarifications > 0 {
		return true
	}
	for _, t := range turns {
		if t.Speaker == model.SpeakerUser && phrase.ContainsAny(t.Text, frustrationPhrases) {
			return true
		}
	}
	return false
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
