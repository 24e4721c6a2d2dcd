package debezium

import (
	"encoding/json"
	"fmt"
	"strings"
)

// CDCSerializer handles parsing and validation of CDC messages
type CDCSerializer struct {
	IncludeTables []string
	SkipSnapshots bool
}

// IsTableMonitored checks if table should be processed
func (s *CDCSerializer) IsTableMonitored(tableName string) bool {
	for _, included := range s.IncludeTables {
		if tableName == included {
			return true
		}
		// "assets_*" casa com as partições de assets
		if strings.HasSuffix(included, "*") && strings.HasPrefix(tableName, strings.TrimSuffix(included, "*")) {
			return true
		}
	}
	return false
}

// ParseCDCEvent deserializes Kafka message to CDC event.
// Tombstones (empty value) come back as nil without error.
func (s *CDCSerializer) ParseCDCEvent(messageValue []byte) (*CDCEvent, error) {
	if len(messageValue) == 0 {
		return nil, nil
	}

	var cdcEvent CDCEvent
	if err := json.Unmarshal(messageValue, &cdcEvent); err != nil {
		return nil, fmt.Errorf("failed to unmarshal CDC event: %w", err)
	}

	if err := validateCDCEvent(&cdcEvent); err != nil {
		return nil, fmt.Errorf("invalid CDC event: %w", err)
	}

	return &cdcEvent, nil
}

func validateCDCEvent(event *CDCEvent) error {
	if event.Source.Table == "" {
		return fmt.Errorf("missing source table")
	}

	switch event.Operation {
	case "c", "u", "r":
		if event.After == nil {
			return fmt.Errorf("missing 'after' data for operation %s", event.Operation)
		}
	case "d":
		if event.Before == nil {
			return fmt.Errorf("missing 'before' data for delete operation")
		}
	case "":
		return fmt.Errorf("missing operation")
	default:
		return fmt.Errorf("invalid operation: %s", event.Operation)
	}

	return nil
}

// ShouldProcessEvent checks if CDC event should be processed based on filtering rules
func (s *CDCSerializer) ShouldProcessEvent(event *CDCEvent) bool {
	if !s.IsTableMonitored(event.Source.Table) {
		return false
	}

	if s.SkipSnapshots && event.Source.Snapshot == "true" {
		return false
	}

	return true
}
