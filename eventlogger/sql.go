package eventlogger

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

type sqlSink struct {
	db *sql.DB
}

func NewSqlSink(db *sql.DB) *sqlSink {
	return &sqlSink{
		db: db,
	}
}

func (s *sqlSink) Save(ctx context.Context, e Event) error {
	jsonData, err := json.Marshal(e.Data)
	if err != nil {
		return err
	}
	jsonMetadata, err := json.Marshal(e.Metadata)
	if err != nil {
		return err
	}
	statement := `INSERT INTO events (id, event_type, event_data, event_metadata, created_at) VALUES ($1, $2, $3, $4, $5)`
	_, err = s.db.ExecContext(ctx, statement, e.ID.String(), e.Type, string(jsonData), string(jsonMetadata), e.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting event: %w", err)
	}

	return nil
}

// GetByType returns events oldest first. Data comes back as the raw JSON
// that was stored.
func (s *sqlSink) GetByType(ctx context.Context, eventType string) ([]Event, error) {
	query := `SELECT id, event_type, event_data, event_metadata, created_at FROM events WHERE event_type = $1 ORDER BY created_at ASC`
	result, err := s.db.QueryContext(ctx, query, eventType)
	if err != nil {
		return nil, err
	}
	defer result.Close()

	events := make([]Event, 0)
	for result.Next() {
		var (
			event        Event
			id           string
			jsonData     sql.NullString
			jsonMetadata sql.NullString
		)
		if err := result.Scan(&id, &event.Type, &jsonData, &jsonMetadata, &event.CreatedAt); err != nil {
			return events, err
		}
		if event.ID, err = uuid.Parse(id); err != nil {
			return events, fmt.Errorf("parsing event id: %w", err)
		}
		if jsonData.Valid {
			event.Data = json.RawMessage(jsonData.String)
		}
		if jsonMetadata.Valid {
			if err := json.Unmarshal([]byte(jsonMetadata.String), &event.Metadata); err != nil {
				return events, fmt.Errorf("decoding event metadata: %w", err)
			}
		}

		events = append(events, event)
	}

	if err := result.Err(); err != nil {
		return events, err
	}

	return events, nil
}
