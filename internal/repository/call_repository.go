package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/restaurant-phone-agent/internal/model"
)

// CallRepo stores finished calls, their transcripts and quality scores.
type CallRepo struct {
	db *sql.DB
}

// NewCallRepo returns a new CallRepo bound to the given database.
func NewCallRepo(db *sql.DB) *CallRepo { return &CallRepo{db: db} }

const metricsColumns = `call_id, caller_phone, variant, started_at, ended_at, duration_seconds, total_turns, user_turns, agent_turns, clarifications, tool_calls, llm_latency_ms, api_errors, booking_completed, intent_fulfilled, hung_up_early, reservation_id`

const qualityColumns = `call_id, efficiency, accuracy, helpfulness, naturalness, professionalism, overall, tier, frustrated, judged, analyzed_at`

// SaveFinishedCall writes the metrics row and every transcript turn in
// one transaction.  Either all of it is stored or none.
func (r *CallRepo) SaveFinishedCall(ctx context.Context, m model.CallMetrics, turns []model.ConversationTurn) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO call_metrics (`+metricsColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.CallID, m.CallerPhone, m.Variant, m.StartedAt, m.EndedAt, m.DurationSeconds,
		m.TotalTurns, m.UserTurns, m.AgentTurns, m.Clarifications, m.ToolCalls, m.LLMLatencyMs, m.APIErrors,
		m.BookingCompleted, m.IntentFulfilled, m.HungUpEarly, m.ReservationID)
	if err != nil {
		return fmt.Errorf("insert call metrics: %w", err)
	}
	if err := insertTurnsTx(ctx, tx, turns); err != nil {
		return fmt.Errorf("insert transcript: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// insertTurnsTx writes all turns in a single statement.  Passing an
// empty slice has no effect.
func insertTurnsTx(ctx context.Context, tx *sql.Tx, turns []model.ConversationTurn) error {
	if len(turns) == 0 {
		return nil
	}
	var sb strings.Builder
	sb.WriteString(`INSERT INTO conversation_turns (call_id, seq, speaker, text, spoken_at) VALUES `)
	args := make([]any, 0, len(turns)*5)
	for i, t := range turns {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString("(?, ?, ?, ?, ?)")
		args = append(args, t.CallID, t.Seq, string(t.Speaker), t.Text, t.At)
	}
	_, err := tx.ExecContext(ctx, sb.String(), args...)
	return err
}

// GetMetrics returns ErrCallNotFound when callID was never stored.
func (r *CallRepo) GetMetrics(ctx context.Context, callID string) (model.CallMetrics, error) {
	var (
		m     model.CallMetrics
		resID sql.NullInt64
	)
	err := r.db.QueryRowContext(ctx, `SELECT `+metricsColumns+` FROM call_metrics WHERE call_id = ?`, callID).Scan(
		&m.CallID, &m.CallerPhone, &m.Variant, &m.StartedAt, &m.EndedAt, &m.DurationSeconds,
		&m.TotalTurns, &m.UserTurns, &m.AgentTurns, &m.Clarifications, &m.ToolCalls, &m.LLMLatencyMs, &m.APIErrors,
		&m.BookingCompleted, &m.IntentFulfilled, &m.HungUpEarly, &resID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.CallMetrics{}, ErrCallNotFound
	}
	if err != nil {
		return model.CallMetrics{}, err
	}
	if resID.Valid {
		id := uint64(resID.Int64)
		m.ReservationID = &id
	}
	return m, nil
}

// ListTurns returns the transcript of callID in speaking order.
func (r *CallRepo) ListTurns(ctx context.Context, callID string) ([]model.ConversationTurn, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT call_id, seq, speaker, text, spoken_at FROM conversation_turns WHERE call_id = ? ORDER BY seq`, callID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.ConversationTurn
	for rows.Next() {
		var (
			t       model.ConversationTurn
			speaker string
		)
		if err := rows.Scan(&t.CallID, &t.Seq, &speaker, &t.Text, &t.At); err != nil {
			return nil, err
		}
		t.Speaker = model.Speaker(speaker)
		out = append(out, t)
	}
	return out, rows.Err()
}

// UpsertQuality stores q, replacing any earlier score of the same call.
func (r *CallRepo) UpsertQuality(ctx context.Context, q model.CallQuality) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO call_quality (`+qualityColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
         ON DUPLICATE KEY UPDATE efficiency = VALUES(efficiency), accuracy = VALUES(accuracy),
           helpfulness = VALUES(helpfulness), naturalness = VALUES(naturalness),
           professionalism = VALUES(professionalism), overall = VALUES(overall), tier = VALUES(tier),
           frustrated = VALUES(frustrated), judged = VALUES(judged), analyzed_at = VALUES(analyzed_at)`,
		q.CallID, q.Efficiency, q.Accuracy, q.Helpfulness, q.Naturalness, q.Professionalism,
		q.Overall, q.Tier, q.Frustrated, q.Judged, q.AnalyzedAt)
	return err
}

// GetQuality returns ErrQualityNotFound when callID has not been scored.
func (r *CallRepo) GetQuality(ctx context.Context, callID string) (model.CallQuality, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+qualityColumns+` FROM call_quality WHERE call_id = ?`, callID)
	q, err := scanQuality(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.CallQuality{}, ErrQualityNotFound
	}
	return q, err
}

// ListScoredCalls joins every scored call with its variant and booking
// outcome for the experiment report.
func (r *CallRepo) ListScoredCalls(ctx context.Context) ([]model.ScoredCall, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT m.variant, m.booking_completed, q.call_id, q.efficiency, q.accuracy, q.helpfulness,
                q.naturalness, q.professionalism, q.overall, q.tier, q.frustrated, q.judged, q.analyzed_at
         FROM call_quality q
         JOIN call_metrics m ON m.call_id = q.call_id
         ORDER BY m.started_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.ScoredCall
	for rows.Next() {
		var sc model.ScoredCall
		q := &sc.Quality
		if err := rows.Scan(&sc.Variant, &sc.BookingCompleted, &q.CallID, &q.Efficiency, &q.Accuracy,
			&q.Helpfulness, &q.Naturalness, &q.Professionalism, &q.Overall, &q.Tier, &q.Frustrated,
			&q.Judged, &q.AnalyzedAt); err != nil {
			return nil, err
		}
		sc.CallID = q.CallID
		out = append(out, sc)
	}
	return out, rows.Err()
}

// ListPendingJudgement returns up to limit calls, oldest first, that
// were never scored or were scored without the judge.  Calls without a
// transcript are skipped since the judge has nothing to rate.
func (r *CallRepo) ListPendingJudgement(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT m.call_id FROM call_metrics m
         LEFT JOIN call_quality q ON q.call_id = m.call_id
         WHERE (q.call_id IS NULL OR q.judged = 0)
           AND EXISTS (SELECT 1 FROM conversation_turns t WHERE t.call_id = m.call_id)
         ORDER BY m.ended_at
         LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanQuality(row rowScanner) (model.CallQuality, error) {
	var q model.CallQuality
	err := row.Scan(&q.CallID, &q.Efficiency, &q.Accuracy, &q.Helpfulness, &q.Naturalness,
		&q.Professionalism, &q.Overall, &q.Tier, &q.Frustrated, &q.Judged, &q.AnalyzedAt)
	return q, err
}
