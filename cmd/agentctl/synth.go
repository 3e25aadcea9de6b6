package main

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iliyamo/restaurant-phone-agent/internal/config"
	"github.com/iliyamo/restaurant-phone-agent/internal/model"
	"github.com/iliyamo/restaurant-phone-agent/internal/repository"
)

type synthLine struct {
	speaker model.Speaker
	text    string
}

// synthTemplate is the shape of one kind of call.  "{name}" in the
// conversation is replaced with a caller name.
type synthTemplate struct {
	tier           string
	minSeconds     int
	maxSeconds     int
	clarifications int
	booked         bool
	tools          int
	conversation   []synthLine
}

func agentSays(s string) synthLine  { return synthLine{model.SpeakerAgent, s} }
func callerSays(s string) synthLine { return synthLine{model.SpeakerUser, s} }

var synthTemplates = []synthTemplate{
	{
		tier: "Excellent", minSeconds: 40, maxSeconds: 60, booked: true, tools: 2,
		conversation: []synthLine{
			agentSays("Thank you for calling Luigi's! How can I help you today?"),
			callerSays("Hi, I'd like a table for 4 tomorrow at 7pm"),
			agentSays("Let me check. Yes, we have a table for 4 tomorrow at 7 PM. May I have your name?"),
			callerSays("{name}"),
			agentSays("You're all set, {name}. Table 3 for 4 guests tomorrow at 7 PM. See you then!"),
			callerSays("Perfect, thank you"),
		},
	},
	{
		tier: "Great", minSeconds: 60, maxSeconds: 90, clarifications: 1, booked: true, tools: 2,
		conversation: []synthLine{
			agentSays("Thank you for calling Luigi's! How can I help you today?"),
			callerSays("Do you have anything Saturday evening for two?"),
			agentSays("Sure. What time would you like on Saturday?"),
			callerSays("Sorry, can you say that again?"),
			agentSays("Of course. What time on Saturday works for you?"),
			callerSays("Around 8"),
			agentSays("Saturday at 8 PM for 2 is available. What name should I put it under?"),
			callerSays("{name}"),
			agentSays("Booked, {name}. Table 1 for 2 on Saturday at 8 PM."),
			callerSays("Great, thanks"),
		},
	},
	{
		tier: "Good", minSeconds: 90, maxSeconds: 130, clarifications: 1, booked: true, tools: 3,
		conversation: []synthLine{
			agentSays("Thank you for calling Luigi's! How can I help you today?"),
			callerSays("Table for 6 on Friday at 9"),
			agentSays("I'm sorry, Friday at 9 PM is full. I can offer 8:30 PM or 9:30 PM."),
			callerSays("Pardon? What times?"),
			agentSays("8:30 PM or 9:30 PM on Friday."),
			callerSays("No, actually make it Friday at 7"),
			agentSays("Friday at 7 PM for 6 is available. Your name please?"),
			callerSays("{name}"),
			agentSays("Done, {name}. Table 6 for 6 on Friday at 7 PM."),
			callerSays("Yes that's right"),
		},
	},
	{
		tier: "Fair", minSeconds: 110, maxSeconds: 150, clarifications: 2, booked: false, tools: 1,
		conversation: []synthLine{
			agentSays("Thank you for calling Luigi's! How can I help you today?"),
			callerSays("What are your hours?"),
			agentSays("We take reservations from 5 PM to 10 PM every evening."),
			callerSays("What? Sorry"),
			agentSays("Reservations are from 5 PM to 10 PM."),
			callerSays("Can you repeat that"),
			agentSays("5 PM to 10 PM. Would you like to book a table?"),
			callerSays("Not right now, I'll call back"),
		},
	},
	{
		tier: "Poor", minSeconds: 90, maxSeconds: 150, clarifications: 2, booked: false, tools: 1,
		conversation: []synthLine{
			agentSays("Hello! Welcome to Luigi's Italian Restaurant establishment. How can I be of service today?"),
			callerSays("Do you have tables?"),
			agentSays("Yes, we do have tables available. How many people?"),
			callerSays("What?"),
			agentSays("I apologize. How many guests will be joining you?"),
			callerSays("Sorry, 4 people tomorrow"),
			agentSays("Let me check our availability."),
			callerSays("This is ridiculous, forget it"),
		},
	},
}

var synthNames = []string{
	"Emily Rodriguez", "James Wilson", "Sophia Patel", "Liam Anderson",
	"Olivia Kim", "Noah Garcia", "Emma Thompson", "William Zhang",
	"Ava Martinez", "Mason Brown", "Isabella Lee", "Ethan Davis",
}

// Recent days are more likely: weight per day ago, today first.
var synthDayWeights = []int{5, 5, 4, 3, 2, 1, 1}

func newSynthCommand(a *app) *cobra.Command {
	var (
		calls int
		seed  int64
	)
	cmd := &cobra.Command{
		Use:   "synth",
		Short: "Write synthetic scored calls so the experiment report has data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if calls <= 0 {
				return errors.New("--calls must be positive")
			}
			variants := config.LoadAgentConfig().Variants
			if len(variants) == 0 {
				return errors.New("no agent variants configured")
			}
			db, err := a.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			store := repository.NewCallRepo(db)
			svc := a.qualityService(db)
			rng := rand.New(rand.NewSource(seed))
			now := time.Now().UTC()
			out := cmd.OutOrStdout()

			for i := 0; i < calls; i++ {
				m, turns := synthCall(rng, now, variants[i%len(variants)])
				if err := store.SaveFinishedCall(cmd.Context(), m, turns); err != nil {
					return fmt.Errorf("save call %s: %w", m.CallID, err)
				}
				q, err := svc.Analyze(cmd.Context(), m.CallID, false)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%3d  %-12s %-10s %5.1f  booked=%t\n", i+1, m.Variant, q.Tier, q.Overall, m.BookingCompleted)
			}
			a.logger.Info("synthetic calls written", zap.Int("count", calls), zap.Int64("seed", seed))
			return nil
		},
	}
	cmd.Flags().IntVar(&calls, "calls", 20, "number of calls to generate")
	cmd.Flags().Int64Var(&seed, "seed", 1, "random seed")
	return cmd
}

// synthCall builds the metrics and transcript of one call that ended
// somewhere in the last seven days.
func synthCall(rng *rand.Rand, now time.Time, variant string) (model.CallMetrics, []model.ConversationTurn) {
	tpl := synthTemplates[rng.Intn(len(synthTemplates))]
	name := synthNames[rng.Intn(len(synthNames))]

	start := now.Add(-time.Duration(weightedPick(rng, synthDayWeights)) * 24 * time.Hour).
		Add(-time.Duration(rng.Intn(24)) * time.Hour).
		Add(-time.Duration(rng.Intn(60)) * time.Minute)
	seconds := float64(tpl.minSeconds+rng.Intn(tpl.maxSeconds-tpl.minSeconds+1)) + rng.Float64()*20 - 10

	m := model.CallMetrics{
		CallID:           "synth-" + uuid.NewString(),
		CallerPhone:      fmt.Sprintf("+1%d%03d%04d", []int{408, 650, 415, 510, 925, 669}[rng.Intn(6)], 200+rng.Intn(800), 1000+rng.Intn(9000)),
		Variant:          variant,
		StartedAt:        start,
		EndedAt:          start.Add(time.Duration(seconds * float64(time.Second))),
		DurationSeconds:  seconds,
		Clarifications:   tpl.clarifications,
		ToolCalls:        tpl.tools,
		LLMLatencyMs:     int64(tpl.tools) * int64(1000+rng.Intn(2000)),
		BookingCompleted: tpl.booked,
		IntentFulfilled:  tpl.booked,
		HungUpEarly:      !tpl.booked,
	}
	turns := make([]model.ConversationTurn, 0, len(tpl.conversation))
	for i, line := range tpl.conversation {
		turns = append(turns, model.ConversationTurn{
			CallID:  m.CallID,
			Seq:     i,
			Speaker: line.speaker,
			Text:    strings.ReplaceAll(line.text, "{name}", name),
			At:      start.Add(time.Duration(i+1) * 10 * time.Second),
		})
		if line.speaker == model.SpeakerUser {
			m.UserTurns++
		} else {
			m.AgentTurns++
		}
	}
	m.TotalTurns = len(turns)
	return m, turns
}

func weightedPick(rng *rand.Rand, weights []int) int {
	total := 0
	for _, w := range weights {
		total += w
	}
	n := rng.Intn(total)
	for i, w := range weights {
		if n < w {
			return i
		}
		n -= w
	}
	return len(weights) - 1
}
