package session

import (
	"sort"

	"zonechat/domain"
)

// mergeHistory unions incoming into current by message id, then stable
// sorts ascending by timestamp. Reapplying the same response is a no-op;
// this union is the only replication mechanism, there is no canonical
// store anywhere.
func mergeHistory(current []domain.Message, index map[string]struct{}, incoming []domain.Message) []domain.Message {
	for _, msg := range incoming {
		if _, ok := index[msg.ID]; ok {
			continue
		}
		index[msg.ID] = struct{}{}
		current = append(current, msg)
	}
	sort.SliceStable(current, func(i, j int) bool {
		return current[i].Timestamp.Before(current[j].Timestamp)
	})
	return current
}
