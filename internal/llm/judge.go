package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/restaurant-phone-agent/internal/agent"
	"github.com/iliyamo/restaurant-phone-agent/internal/quality"
)

const judgeMaxTokens = 200

type judgement struct {
	Score     *float64 `json:"score"`
	Reasoning string   `json:"reasoning"`
}

// Rate implements quality.Judge.  It asks the model to score transcript
// against cr and reads the score from a JSON answer.
func (c *Client) Rate(ctx context.Context, transcript string, cr quality.Criteria) (float64, error) {
	start := time.Now()
	resp, err := c.send(ctx, messagesRequest{
		Model:     c.cfg.Model,
		MaxTokens: judgeMaxTokens,
		Messages: []agent.Message{{
			Role:    agent.RoleUser,
			Content: []agent.Block{{Type: agent.BlockText, Text: judgePrompt(transcript, cr)}},
		}},
	})
	c.metrics.ObserveLLM("judge", time.Since(start))
	if err != nil {
		return 0, err
	}
	var text strings.Builder
	for _, b := range resp.Content {
		if b.Type == agent.BlockText {
			text.WriteString(b.Text)
		}
	}
	return parseScore(text.String())
}

func judgePrompt(transcript string, cr quality.Criteria) string {
	var b strings.Builder
	b.WriteString("You are a conversation quality expert analyzing phone calls.\n\n")
	fmt.Fprintf(&b, "Rate this conversation for %s (0-100):\n\n", cr.Name)
	b.WriteString(transcript)
	b.WriteString("\n\nCriteria:\n")
	for i, p := range cr.Points {
		fmt.Fprintf(&b, "%d. %s\n", i+1, p)
	}
	b.WriteString("\nReturn ONLY a JSON object with this exact format:\n")
	b.WriteString(`{"score": 85, "reasoning": "brief explanation"}`)
	return b.String()
}

// parseScore reads {"score": N} from a model answer, ignoring markdown
// code fences around it.
func parseScore(text string) (float64, error) {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	text = strings.TrimSpace(text)
	if i, j := strings.Index(text, "{"), strings.LastIndex(text, "}"); i >= 0 && j > i {
		text = text[i : j+1]
	}
	var j judgement
	if err := json.Unmarshal([]byte(text), &j); err != nil {
		return 0, fmt.Errorf("parse judge answer: %w", err)
	}
	if j.Score == nil {
		return 0, fmt.Errorf("judge answer has no score")
	}
	if *j.Score < 0 || *j.Score > 100 {
		return 0, fmt.Errorf("judge score %.1f out of range", *j.Score)
	}
	return *j.Score, nil
}
