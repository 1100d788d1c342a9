package services

import (
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/mocks"
	"chat-relay/queue"
	"chat-relay/repositories"
)

// newMockedService builds a session service over a mocked store so tests can
// force persistence failures the in-memory store never produces.
func newMockedService(t *testing.T, store *mocks.MockMessageStore) *Service {
	t.Helper()

	log := slog.Default()
	bus := queue.NewMemoryQueue(log)
	t.Cleanup(bus.Close)

	return NewService(Config{
		InstanceID: "test-instance",
		PageSize:   100,
	}, NewRegistry(store, log), store, bus, repositories.NewMemoryUserStore(), nil, nil, log)
}

func Test_Connect_Fails_When_Connection_Save_Fails(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)

	// Given
	store := mocks.NewMockMessageStore(ctrl)
	store.EXPECT().SaveConnection(gomock.Any(), "alice", "test-instance").
		Return(contract.SaveResponse{Result: contract.SaveFailed}, nil)

	svc := newMockedService(t, store)
	transport := newFakeTransport()
	session := svc.NewSession(transport)

	// When
	sendFrame(session, `{"authInfo":{"name":"alice","password":"pw"}}`)

	// Then: a persistence failure is not a business rejection
	code, reason := transport.closed()
	req.Equal(contract.CodeInternalError, code)
	req.Contains(reason, "Failed connect")
}

func Test_Join_Close_Reason_On_Conversation_Save_Failure(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)

	// Given
	store := mocks.NewMockMessageStore(ctrl)
	store.EXPECT().SaveConnection(gomock.Any(), "alice", "test-instance").
		Return(contract.SaveResponse{ID: "conn-1", Result: contract.SaveCreated}, nil)
	store.EXPECT().GetParticipantConversations(gomock.Any(), "alice", gomock.Any(), 0, 100).
		Return(domain.ConversationsResult{}, nil)
	store.EXPECT().SaveConversation(gomock.Any(), gomock.Any()).
		Return(contract.SaveResponse{Result: contract.SaveFailed}, nil)

	svc := newMockedService(t, store)
	transport := newFakeTransport()
	session := svc.NewSession(transport)
	sendFrame(session, `{"authInfo":{"name":"alice","password":"pw"}}`)
	req.Contains(transport.frameTypes(), "connection")

	// When
	sendFrame(session, `{"type":"join","data":{"participants":["bob"],"title":"rejected"}}`)

	// Then
	code, reason := transport.closed()
	req.Equal(contract.CodePolicyViolation, code)
	req.Equal("Failed join. Save conversation failed", reason)
}

func Test_Close_Reason_Truncates_On_Rune_Boundary(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)

	// Given an authentication error whose text overflows the close-reason
	// budget with multi-byte runes
	store := mocks.NewMockMessageStore(ctrl)
	users := mocks.NewMockUserStore(ctrl)
	users.EXPECT().Authenticate(gomock.Any(), gomock.Any()).
		Return("", fmt.Errorf("résolution impossible: %s", strings.Repeat("é", 80)))

	log := slog.Default()
	bus := queue.NewMemoryQueue(log)
	t.Cleanup(bus.Close)
	svc := NewService(Config{
		InstanceID: "test-instance",
		PageSize:   100,
	}, NewRegistry(store, log), store, bus, users, nil, nil, log)

	transport := newFakeTransport()
	session := svc.NewSession(transport)

	// When
	sendFrame(session, `{"authInfo":{"name":"alice","password":"pw"}}`)

	// Then the truncated reason is still valid UTF-8 within the budget
	code, reason := transport.closed()
	req.Equal(contract.CodeInternalError, code)
	req.Contains(reason, "Failed connect")
	req.LessOrEqual(len(reason), contract.CloseReasonLimit)
	req.True(utf8.ValidString(reason))
}

func Test_Text_Save_Failure_Terminates_Session(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)

	// Given
	store := mocks.NewMockMessageStore(ctrl)
	store.EXPECT().SaveConnection(gomock.Any(), "alice", "test-instance").
		Return(contract.SaveResponse{ID: "conn-1", Result: contract.SaveCreated}, nil)
	store.EXPECT().GetParticipantConversations(gomock.Any(), "alice", gomock.Any(), 0, 100).
		Return(domain.ConversationsResult{}, nil)
	store.EXPECT().SaveConversation(gomock.Any(), gomock.Any()).
		Return(contract.SaveResponse{ID: "1", Result: contract.SaveCreated}, nil)
	// The first save is the joined event, the second one the failing text
	// message, the last one the left event published while stopping.
	gomock.InOrder(
		store.EXPECT().SaveMessage(gomock.Any(), gomock.Any()).
			Return(contract.SaveResponse{ID: "m-joined", Result: contract.SaveCreated}, nil),
		store.EXPECT().SaveMessage(gomock.Any(), gomock.Any()).
			Return(contract.SaveResponse{Result: contract.SaveFailed}, nil),
		store.EXPECT().SaveMessage(gomock.Any(), gomock.Any()).
			Return(contract.SaveResponse{ID: "m-left", Result: contract.SaveCreated}, nil),
	)

	svc := newMockedService(t, store)
	transport := newFakeTransport()
	session := svc.NewSession(transport)
	sendFrame(session, `{"authInfo":{"name":"alice","password":"pw"}}`)
	sendFrame(session, `{"type":"join","data":{"participants":["bob"],"title":"t"}}`)

	// When
	sendFrame(session, `{"type":"text","data":{"text":"hello"}}`)

	// Then
	code, reason := transport.closed()
	req.Equal(contract.CodeInternalError, code)
	req.Contains(reason, "Failed processing message")

	// The transport-close callback deregisters the membership.
	session.OnTransportClose()
	memberships, _, _ := svc.Registry().Counts()
	req.Zero(memberships)
}
