package loader

import (
	"hash/fnv"
	"math"

	"github.com/chatfold/chatfold/internal/model"
)

// hashID folds an arbitrary vendor identifier into a stable positive int64.
// Vendors that key entities by strings (JIDs, person hashes, message keys)
// get deterministic numeric ids this way, the same across reloads.
func hashID(s string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	v := int64(h.Sum64() & math.MaxInt64)
	if v <= 0 {
		v = 1
	}
	return v
}

// HashUserID derives a user id from a vendor string key.
func HashUserID(s string) model.UserID { return model.UserID(hashID(s)) }

// HashChatID derives a chat id from a vendor string key.
func HashChatID(s string) model.ChatID { return model.ChatID(hashID(s)) }

// HashSourceID derives a message source id from a vendor string key.
func HashSourceID(s string) model.MessageSourceID { return model.MessageSourceID(hashID(s)) }
