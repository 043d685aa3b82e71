package projection

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeMessages struct {
	messages []domain.Message
	err      error
}

func (f fakeMessages) CreateMessage(content, sender, timeStr, dateStr string, to domain.RoomID) (domain.Message, error) {
	return domain.Message{}, nil
}

func (f fakeMessages) FindByRoom(room domain.RoomID) ([]domain.Message, error) {
	return f.messages, f.err
}

func TestHistory_Groups_Sorted_By_Date_Key(t *testing.T) {
	req := require.New(t)

	// Given two messages posted newest date first
	history := NewHistory(fakeMessages{messages: []domain.Message{
		{Room: "tech", Sender: "u1", Content: "hi", Time: "10:00", Date: "03/01/2024"},
		{Room: "tech", Sender: "u2", Content: "yo", Time: "09:00", Date: "02/15/2024"},
	}})

	// When the room history is assembled
	groups, err := history.Assemble("tech")
	req.NoError(err)

	// Then groups come back oldest date first, regardless of insertion order
	req.Len(groups, 2)
	req.Equal("02/15/2024", groups[0].Date)
	req.Equal("yo", groups[0].Messages[0].Content)
	req.Equal("03/01/2024", groups[1].Date)
	req.Equal("hi", groups[1].Messages[0].Content)
}

func TestHistory_Single_Digit_Components_Order_Numerically(t *testing.T) {
	req := require.New(t)

	// "9/5/2024" would sort after "10/1/2024" lexicographically
	history := NewHistory(fakeMessages{messages: []domain.Message{
		{Room: "tech", Content: "later", Date: "10/1/2024"},
		{Room: "tech", Content: "earlier", Date: "9/5/2024"},
	}})

	groups, err := history.Assemble("tech")
	req.NoError(err)

	req.Len(groups, 2)
	req.Equal("9/5/2024", groups[0].Date)
	req.Equal("10/1/2024", groups[1].Date)
}

func TestHistory_Same_Date_Messages_Share_One_Group(t *testing.T) {
	req := require.New(t)
	history := NewHistory(fakeMessages{messages: []domain.Message{
		{Room: "tech", Content: "first", Time: "10:00", Date: "03/01/2024"},
		{Room: "tech", Content: "second", Time: "10:01", Date: "03/01/2024"},
	}})

	groups, err := history.Assemble("tech")
	req.NoError(err)

	req.Len(groups, 1)
	req.Len(groups[0].Messages, 2)
	req.Equal("first", groups[0].Messages[0].Content)
	req.Equal("second", groups[0].Messages[1].Content)
}

func TestHistory_Propagates_Storage_Failure(t *testing.T) {
	req := require.New(t)
	history := NewHistory(fakeMessages{err: errors.ErrStorageUnavailable})

	_, err := history.Assemble("tech")
	req.ErrorIs(err, errors.ErrStorageUnavailable)
}

func TestHistory_Empty_Room(t *testing.T) {
	req := require.New(t)
	history := NewHistory(fakeMessages{})

	groups, err := history.Assemble("tech")
	req.NoError(err)
	req.Empty(groups)
}
