// Package projection builds read views from stored messages.
// Handles grouping and ordering only; it does not emit events
// and has no side effects, so it is safe to call concurrently.
package projection

import (
	"chat-relay/domain"
	"chat-relay/repositories"
	"sort"
	"strconv"
	"strings"
)

// History assembles the date-grouped view of a room used by clients.
type History struct {
	messages repositories.IMessageRepository
}

func NewHistory(messages repositories.IMessageRepository) History {
	return History{messages: messages}
}

// Assemble fetches every message of the room and returns one group per
// date string, ordered oldest date first. The result reflects storage
// state at call time; there is no snapshot isolation.
func (h History) Assemble(room domain.RoomID) ([]domain.MessageGroup, error) {
	messages, err := h.messages.FindByRoom(room)
	if err != nil {
		return nil, err
	}

	index := make(map[string]int)
	var groups []domain.MessageGroup
	for _, m := range messages {
		i, ok := index[m.Date]
		if !ok {
			i = len(groups)
			index[m.Date] = i
			groups = append(groups, domain.MessageGroup{Date: m.Date})
		}
		groups[i].Messages = append(groups[i].Messages, m)
	}

	// Dates compare as numeric YYYYMMDD keys so single-digit days and
	// months order correctly. Groups with equal keys keep their relative
	// order; it is not part of the contract.
	sort.SliceStable(groups, func(a, b int) bool {
		return dateKey(groups[a].Date) < dateKey(groups[b].Date)
	})
	return groups, nil
}

// dateKey turns an MM/DD/YYYY string into a comparable integer.
// Unparseable dates get key 0 and sort before everything else.
func dateKey(date string) int {
	parts := strings.Split(date, "/")
	if len(parts) != 3 {
		return 0
	}
	month, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0
	}
	day, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0
	}
	year, err := strconv.Atoi(parts[2])
	if err != nil {
		return 0
	}
	return year*10000 + month*100 + day
}
