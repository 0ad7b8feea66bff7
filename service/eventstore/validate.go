package eventstore

import (
	"fmt"

	"github.com/viant/roundtrip/model"
	"github.com/viant/roundtrip/service/dao"
)

// ValidateAppend checks arguments shared by every Sink implementation.
func ValidateAppend(batchID string, roundTrip int, event *model.Event) error {
	if err := ValidateRoundTrip(batchID, roundTrip); err != nil {
		return err
	}
	if event == nil {
		return dao.ErrNilEntity
	}
	if event.ID == "" {
		return fmt.Errorf("event for %s has empty id: %w", model.FullID(batchID, roundTrip), dao.ErrInvalidID)
	}
	return nil
}

// ValidateRoundTrip checks a batch id / round-trip number pair.
func ValidateRoundTrip(batchID string, roundTrip int) error {
	if batchID == "" {
		return fmt.Errorf("empty batch id: %w", dao.ErrInvalidID)
	}
	if roundTrip < 0 {
		return fmt.Errorf("negative round trip %d for batch %s: %w", roundTrip, batchID, dao.ErrInvalidID)
	}
	return nil
}
