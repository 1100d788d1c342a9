package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func Test_DecodeData_Selects_Branch_By_Type(t *testing.T) {
	req := require.New(t)

	// When
	text, err := DecodeData(TypeText, json.RawMessage(`{"text":"hi"}`))
	req.NoError(err)
	file, err := DecodeData(TypeFile, json.RawMessage(`{"name":"a.txt","link":"/f/a.txt","size":12}`))
	req.NoError(err)
	update, err := DecodeData(TypeUpdate, json.RawMessage(`{"conversationId":"1","participants":["a","b"]}`))
	req.NoError(err)

	// Then
	req.Equal("hi", text.Text.Text)
	req.Nil(text.File)
	req.Equal("a.txt", file.File.Name)
	req.Equal(int64(12), file.File.Size)
	req.Equal([]string{"a", "b"}, update.ConversationUpdate.Participants)
}

func Test_DecodeData_Null_Payload_Is_Zero(t *testing.T) {
	req := require.New(t)

	// When
	fromNull, err := DecodeData(TypeText, json.RawMessage("null"))
	req.NoError(err)
	fromEmpty, err := DecodeData(TypeJoined, nil)
	req.NoError(err)

	// Then
	req.True(fromNull.IsZero())
	req.True(fromEmpty.IsZero())
}

func Test_DecodeData_Presence_Types_Ignore_Payload(t *testing.T) {
	req := require.New(t)

	// When: presence and query types have no data branch
	data, err := DecodeData(TypeFind, json.RawMessage(`{"text":"query"}`))

	// Then
	req.NoError(err)
	req.True(data.IsZero())
}

func Test_DecodeData_Invalid_Payload_Returns_Error(t *testing.T) {
	req := require.New(t)

	// When
	_, err := DecodeData(TypeText, json.RawMessage(`{"text":42}`))

	// Then
	req.Error(err)
}

func Test_Message_JSON_Round_Trip(t *testing.T) {
	req := require.New(t)

	// Given
	created := time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC)
	original := Message{
		ID:              "m1",
		ConversationID:  "1",
		Participants:    []string{"alice", "bob"},
		FromID:          "alice",
		Type:            TypeText,
		ClientMessageID: "c1",
		Data:            MessageData{Text: &TextData{Text: "hello"}},
		CreatedAt:       created,
	}

	// When
	raw, err := json.Marshal(original)
	req.NoError(err)
	var decoded Message
	req.NoError(json.Unmarshal(raw, &decoded))

	// Then
	req.Equal(original, decoded)
	req.Contains(string(raw), `"data":{"text":"hello"}`)
}

func Test_Zero_Data_Marshals_As_Null(t *testing.T) {
	req := require.New(t)

	// Given
	msg := Message{ConversationID: "1", FromID: "alice", Type: TypeJoined}

	// When
	raw, err := json.Marshal(msg)

	// Then
	req.NoError(err)
	req.Contains(string(raw), `"data":null`)
}

func Test_QueueMessage_Projects_To_Message(t *testing.T) {
	req := require.New(t)

	// Given
	qm := QueueMessage{
		Type:           TypeFile,
		ID:             "m2",
		InstanceID:     "inst-1",
		ConversationID: "7",
		FromID:         "bob",
		Data:           MessageData{File: &FileData{Name: "b.png", Size: 4}},
		CreatedAt:      time.Date(2025, 3, 1, 11, 0, 0, 0, time.UTC),
	}

	// When
	raw, err := json.Marshal(qm)
	req.NoError(err)
	var decoded QueueMessage
	req.NoError(json.Unmarshal(raw, &decoded))
	msg := decoded.AsMessage()

	// Then
	req.Equal(qm, decoded)
	req.Equal("m2", msg.ID)
	req.Equal(TypeFile, msg.Type)
	req.Equal("b.png", msg.Data.File.Name)
}
