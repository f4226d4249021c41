package production

import "context"

// UpdateBatchItems records picked weights and lots against the items of a batch.
// Fields omitted from an update keep their stored value; fields sent as null are
// cleared. Item ids that do not belong to the batch are skipped, so the returned
// count may be lower than len(updates).
func (s *Service) UpdateBatchItems(ctx context.Context, batchID uint, updates []BatchItemUpdate) (int, error) {
	if len(updates) == 0 {
		return 0, track("update_batch_items", invalid("items", "items array is required"))
	}
	for _, update := range updates {
		if update.PickedWeight.Value != nil && *update.PickedWeight.Value < 0 {
			return 0, track("update_batch_items", invalid("picked_weight", "picked_weight must not be negative"))
		}
	}
	updated, err := s.store.UpdateBatchItems(ctx, batchID, updates, s.now())
	if err != nil {
		return 0, track("update_batch_items", storageFailure("update batch items", "batch", batchID, err))
	}
	return updated, track("update_batch_items", nil)
}
