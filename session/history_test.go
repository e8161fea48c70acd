package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"zonechat/domain"
)

func msgAt(id, text string, ts time.Time) domain.Message {
	return domain.Message{
		ID:        id,
		Sender:    domain.Sender{Fingerprint: "fp", Handle: "ana"},
		Timestamp: ts,
		Kind:      domain.KindText,
		Text:      text,
	}
}

func TestMergeHistory_UnionIsIdempotent(t *testing.T) {
	req := require.New(t)
	base := time.Now().UTC()

	// Given a history response
	incoming := []domain.Message{
		msgAt("a", "first", base),
		msgAt("b", "second", base.Add(time.Second)),
	}
	index := make(map[string]struct{})

	// When it is applied twice
	merged := mergeHistory(nil, index, incoming)
	merged = mergeHistory(merged, index, incoming)

	// Then the message set is unchanged
	req.Len(merged, 2)
	req.Equal("first", merged[0].Text)
	req.Equal("second", merged[1].Text)
}

func TestMergeHistory_SortsByTimestamp(t *testing.T) {
	req := require.New(t)
	base := time.Now().UTC()

	// Given messages arriving out of order across two responses
	index := make(map[string]struct{})
	merged := mergeHistory(nil, index, []domain.Message{msgAt("c", "third", base.Add(2 * time.Second))})
	merged = mergeHistory(merged, index, []domain.Message{
		msgAt("a", "first", base),
		msgAt("b", "second", base.Add(time.Second)),
	})

	// Then the merged history is ordered by timestamp
	req.Len(merged, 3)
	req.Equal("first", merged[0].Text)
	req.Equal("second", merged[1].Text)
	req.Equal("third", merged[2].Text)
}

func TestMergeHistory_StableOnEqualTimestamps(t *testing.T) {
	req := require.New(t)
	ts := time.Now().UTC()

	index := make(map[string]struct{})
	merged := mergeHistory(nil, index, []domain.Message{
		msgAt("a", "one", ts),
		msgAt("b", "two", ts),
	})

	// Ties keep insertion order
	req.Equal("one", merged[0].Text)
	req.Equal("two", merged[1].Text)
}
