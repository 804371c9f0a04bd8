package prefs

import (
	"fmt"

	"github.com/agustinroig/voz/pkg/kv"
)

// KV key layout for the prefs package.
//
//	user:{id}:prefs              → msgpack Preferences
//	user:{id}:log:{ts_ns}        → msgpack Record (ts zero-padded to 20 digits)
//	user:{id}:analysis:ck        → last analyzed log timestamp (decimal string)
//
// The {id} segment is the hashed user identifier from UserID, ensuring
// complete isolation between users sharing a store.

func prefsKey(id string) kv.Key {
	return kv.Key{"user", id, "prefs"}
}

// logKey builds the key for one interaction record. The timestamp is
// zero-padded so lexicographic key order matches chronological order.
func logKey(id string, ts int64) kv.Key {
	return kv.Key{"user", id, "log", fmt.Sprintf("%020d", ts)}
}

func logPrefix(id string) kv.Key {
	return kv.Key{"user", id, "log"}
}

func checkpointKey(id string) kv.Key {
	return kv.Key{"user", id, "analysis", "ck"}
}
