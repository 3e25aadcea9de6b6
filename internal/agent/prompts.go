package agent

import (
	"fmt"
	"strings"
	"time"
)

// Conversational variants compared by the experiment report.
const (
	VariantBaseline  = "v1_baseline"
	VariantFriendly  = "v2_friendly"
	VariantEfficient = "v3_efficient"
)

// Variants lists every variant with a prompt.
var Variants = []string{VariantBaseline, VariantFriendly, VariantEfficient}

var variantStyle = map[string]string{
	VariantBaseline: "Be warm, friendly and professional.",
	VariantFriendly: "Be especially warm and personable. Use the caller's name once you know it " +
		"and acknowledge what they tell you with words like great or perfect.",
	VariantEfficient: "Be brisk and precise. Ask for all missing details in a single question " +
		"and skip small talk.",
}

var greetings = map[string]string{
	VariantBaseline:  "Hello! Welcome to %s. This is your AI assistant. How can I help you today?",
	VariantFriendly:  "Hi there, thanks so much for calling %s! I'd love to help. What can I do for you today?",
	VariantEfficient: "%s reservations. How can I help?",
}

// Greeting is the first thing the agent says on a call.
func Greeting(restaurant, variant string) string {
	g, ok := greetings[variant]
	if !ok {
		g = greetings[VariantBaseline]
	}
	return fmt.Sprintf(g, restaurant)
}

// SystemPrompt builds the instructions for variant.  Unknown variants
// get the baseline style.
func SystemPrompt(restaurant, variant string, today time.Time) string {
	style, ok := variantStyle[variant]
	if !ok {
		style = variantStyle[VariantBaseline]
	}
	var b strings.Builder
	fmt.Fprintf(&b, "You are the phone assistant for %s. ", restaurant)
	b.WriteString("You help callers book, look up and cancel table reservations.\n")
	fmt.Fprintf(&b, "Today is %s, %s.\n\n", today.Format("Monday"), today.Format("2006-01-02"))
	b.WriteString("Guidelines:\n")
	b.WriteString("- " + style + "\n")
	b.WriteString("- Keep every reply to one or two short sentences. This is a phone call.\n")
	b.WriteString("- Ask for party size, date, time and name before booking.\n")
	b.WriteString("- Call get_current_date before working out words like today, tomorrow or next Friday.\n")
	b.WriteString("- Check availability before creating a reservation and confirm the details with the caller first.\n")
	b.WriteString("- When a time is full, offer the alternative times the tool returns.\n")
	b.WriteString("- If asked about the menu or opening hours, offer to transfer the caller to the restaurant.\n")
	b.WriteString("- Never use lists, markdown or emoji. You are speaking, not writing.\n")
	return b.String()
}
