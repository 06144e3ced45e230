package amqp

import (
	"encoding/json"
	"time"
)

// RecordsRefreshedMessage announces that the stored record snapshot was
// replaced. Consumers fetch the snapshot from storage themselves; the
// message carries only the fingerprint and some context.
type RecordsRefreshedMessage struct {
	SnapshotID  string    `json:"snapshot_id"`
	RecordCount int       `json:"record_count"`
	Source      string    `json:"source"`
	Timestamp   time.Time `json:"timestamp"`
}

func NewRecordsRefreshedMessage(snapshotID string, recordCount int, source string) *RecordsRefreshedMessage {
	return &RecordsRefreshedMessage{
		SnapshotID:  snapshotID,
		RecordCount: recordCount,
		Source:      source,
		Timestamp:   time.Now(),
	}
}

func (m *RecordsRefreshedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func RecordsRefreshedMessageFromJSON(data []byte) (*RecordsRefreshedMessage, error) {
	var msg RecordsRefreshedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
