// Package relay pairs operations with live client sessions and pushes
// asynchronous step-completion events to them. The push is a pure
// optimization: clients that miss it discover the result through the normal
// polling path, so delivery failures are logged and dropped, never surfaced.
package relay

import (
	"crypto/sha512"
	"encoding/hex"
	"hash/fnv"
	"log/slog"
	"strings"
	"sync"

	"github.com/tendant/stepup-auth/pkg/stepflow"
)

const (
	// TopicRegistration carries registration acknowledgements.
	TopicRegistration = "registration"
	// TopicAuthorization carries completion events.
	TopicAuthorization = "authorization"
)

// RegistrationEvent acknowledges a session registration.
type RegistrationEvent struct {
	ChannelID string `json:"channel_id"`
}

// AuthorizationEvent notifies a session about a completed authorization.
type AuthorizationEvent struct {
	ChannelID string              `json:"channel_id"`
	Result    stepflow.AuthResult `json:"result"`
}

// Pusher is the outbound transport the relay delegates to.
type Pusher interface {
	Push(sessionID, topic string, payload any) error
}

// shardCount fixes the number of binding map shards. Power of two so the
// shard pick is a mask.
const shardCount = 32

type shard struct {
	mu       sync.RWMutex
	sessions map[string]string
}

// Service maintains the channel-to-session binding map. This is the one piece
// of long-lived shared mutable state in the core: registration, notification
// and unregistration arrive concurrently from unrelated operations.
type Service struct {
	pusher Pusher
	shards [shardCount]*shard
}

// NewService creates a relay backed by the given pusher.
func NewService(pusher Pusher) *Service {
	s := &Service{pusher: pusher}
	for i := range s.shards {
		s.shards[i] = &shard{sessions: make(map[string]string)}
	}
	return s
}

// ChannelID derives the notification channel identifier for an operation as
// upper-case hex of SHA-512 over the operation ID.
func ChannelID(operationID string) string {
	digest := sha512.Sum512([]byte(operationID))
	return strings.ToUpper(hex.EncodeToString(digest[:]))
}

// RegisterSession binds the operation's channel to a session and pushes a
// registration acknowledgement to it.
func (s *Service) RegisterSession(operationID, sessionID string) {
	channelID := ChannelID(operationID)

	sh := s.shard(channelID)
	sh.mu.Lock()
	sh.sessions[channelID] = sessionID
	sh.mu.Unlock()

	if err := s.pusher.Push(sessionID, TopicRegistration, RegistrationEvent{ChannelID: channelID}); err != nil {
		slog.Warn("Failed to push registration ack", "sessionId", sessionID, "error", err)
	}
	slog.Debug("Session registered", "channelId", channelID, "sessionId", sessionID)
}

// NotifyAuthorizationComplete pushes a completion event to the session bound
// to the operation. With no bound session the notification is silently
// dropped; the initiating client will pick the result up by polling.
func (s *Service) NotifyAuthorizationComplete(operationID string, result stepflow.AuthResult) {
	channelID := ChannelID(operationID)

	sh := s.shard(channelID)
	sh.mu.RLock()
	sessionID, bound := sh.sessions[channelID]
	sh.mu.RUnlock()

	if !bound {
		slog.Debug("No session bound for completion event", "channelId", channelID)
		return
	}

	event := AuthorizationEvent{ChannelID: channelID, Result: result}
	if err := s.pusher.Push(sessionID, TopicAuthorization, event); err != nil {
		slog.Warn("Failed to push completion event", "sessionId", sessionID, "error", err)
	}
}

// UnregisterSession removes the operation's binding. Callers must invoke it
// when the operation reaches a terminal state or the client disconnects so
// the binding map does not grow without bound.
func (s *Service) UnregisterSession(operationID string) {
	channelID := ChannelID(operationID)

	sh := s.shard(channelID)
	sh.mu.Lock()
	delete(sh.sessions, channelID)
	sh.mu.Unlock()

	slog.Debug("Session unregistered", "channelId", channelID)
}

func (s *Service) shard(channelID string) *shard {
	h := fnv.New32a()
	h.Write([]byte(channelID))
	return s.shards[h.Sum32()&(shardCount-1)]
}
