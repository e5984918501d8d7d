package model

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Identifier kinds are distinct named types so a chat id can never be passed
// where a user id is expected.

// UserID identifies a user within a dataset. Valid ids are strictly positive;
// zero and negative values are sentinels.
type UserID int64

const (
	// InvalidUserID is the zero sentinel, never assigned to a real user.
	InvalidUserID UserID = 0

	// MinUserID sorts below every valid id.
	MinUserID UserID = math.MinInt64
)

// Valid reports whether the id refers to a real user.
func (id UserID) Valid() bool { return id > 0 }

// ChatID identifies a chat within a dataset. For personal chats loaders
// conventionally reuse the interlocutor's UserID.
type ChatID int64

// MessageSourceID is the id assigned by the source system. It is stable
// across exports of the same chat and is the only basis for matching
// messages between datasets.
type MessageSourceID int64

// MessageInternalID is assigned at load time: dense, ascending and unique
// within a chat. It is not stable across loads.
type MessageInternalID int64

// NoInternalID marks a message that has not been assigned an internal id.
const NoInternalID MessageInternalID = -1

// Timestamp is seconds since the Unix epoch.
type Timestamp int64

const (
	MinTimestamp Timestamp = 0
	MaxTimestamp Timestamp = math.MaxInt64
)

// Time converts the timestamp to a time.Time in the local zone.
func (t Timestamp) Time() time.Time { return time.Unix(int64(t), 0) }

// UUID is a 36-character dataset identifier.
type UUID string

// NewUUID returns a random dataset identifier.
func NewUUID() UUID { return UUID(uuid.NewString()) }
