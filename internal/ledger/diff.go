package ledger

// ChangeNew marks a row with no predecessor.
const ChangeNew = "new"

// Change describes one column that differs from the last stored row
type Change struct {
	Column   string `json:"column"`
	OldValue string `json:"old_value"`
	NewValue string `json:"new_value"`
}

// Diff compares current against previous on the given columns.
// A nil previous yields a single ChangeNew entry; an empty result means unchanged.
func Diff(previous *Row, current Row, columns []int) []Change {
	if previous == nil {
		return []Change{
			{
				Column:   ChangeNew,
				NewValue: current.StatusText,
			},
		}
	}

	var changes []Change
	for _, col := range columns {
		oldValue := previous.Field(col)
		newValue := current.Field(col)
		if oldValue != newValue {
			changes = append(changes, Change{
				Column:   Header[col],
				OldValue: oldValue,
				NewValue: newValue,
			})
		}
	}

	return changes
}
