package booking

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// PgAuditor writes audit records to the event_logs table. It satisfies the
// best-effort Auditor contract; the service logs and drops its errors.
type PgAuditor struct {
	pool PgPool
}

func NewPgAuditor(pool PgPool) *PgAuditor {
	return &PgAuditor{pool: pool}
}

func (a *PgAuditor) OnAuditable(ctx context.Context, action string, entityID, actorID uuid.UUID, details map[string]any) error {
	var payload []byte
	if details != nil {
		data, err := json.Marshal(details)
		if err != nil {
			return fmt.Errorf("marshal audit payload: %w", err)
		}
		payload = data
	}

	var entity, actor *uuid.UUID
	if entityID != uuid.Nil {
		entity = &entityID
	}
	if actorID != uuid.Nil {
		actor = &actorID
	}

	row := a.pool.QueryRow(ctx, `
		INSERT INTO event_logs (action, entity_id, actor_id, payload, created_at)
		VALUES ($1, $2, $3, $4, now())
		RETURNING id
	`, action, entity, actor, payload)

	var id int64
	if err := row.Scan(&id); err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}
	return nil
}
