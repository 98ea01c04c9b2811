package photos

import "fmt"

// PositionUpdate is one row-level position assignment in a move plan.
type PositionUpdate struct {
	PhotoID  int64
	Position int
}

// PlanMove computes the updates needed to move one photo to a target slot,
// shifting every photo in between by exactly one. Records must be sorted by
// position ascending. The returned updates are ordered so that applying them
// one by one never collides on a unique position, provided the moved photo
// is first parked at position zero; its final assignment is the last entry.
// A target outside 1..len(records) is a validation error.
func PlanMove(records []PhotoRecord, photoID int64, target int) ([]PositionUpdate, error) {
	index := -1
	for i, rec := range records {
		if rec.ID == photoID {
			index = i
			break
		}
	}
	if index < 0 {
		return nil, ErrPhotoNotFound
	}

	if target < 1 || target > len(records) {
		return nil, fmt.Errorf("position %d is out of range 1..%d: %w", target, len(records), ErrValidation)
	}

	current := records[index].Position
	if current == target {
		return nil, nil
	}

	var plan []PositionUpdate
	if target < current {
		// Moving toward the front: everything in [target, current-1]
		// shifts down by one, starting from the vacated slot.
		for i := len(records) - 1; i >= 0; i-- {
			pos := records[i].Position
			if pos >= target && pos < current {
				plan = append(plan, PositionUpdate{PhotoID: records[i].ID, Position: pos + 1})
			}
		}
	} else {
		// Moving toward the back: everything in (current, target] shifts
		// up by one, starting from the vacated slot.
		for i := 0; i < len(records); i++ {
			pos := records[i].Position
			if pos > current && pos <= target {
				plan = append(plan, PositionUpdate{PhotoID: records[i].ID, Position: pos - 1})
			}
		}
	}

	plan = append(plan, PositionUpdate{PhotoID: photoID, Position: target})
	return plan, nil
}
