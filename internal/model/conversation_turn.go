package model

import "time"

// Speaker identifies who produced a conversation turn.
type Speaker string

const (
	SpeakerUser  Speaker = "user"
	SpeakerAgent Speaker = "agent"
)

// ConversationTurn is one line of a call transcript.  Seq is the
// zero-based position of the turn within its call.
type ConversationTurn struct {
	CallID  string    `json:"call_id"`
	Seq     int       `json:"seq"`
	Speaker Speaker   `json:"speaker"`
	Text    string    `json:"text"`
	At      time.Time `json:"at"`
}
