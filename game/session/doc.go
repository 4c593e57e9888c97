// Package session keeps track of live puzzle sessions.
//
// A Manager owns the sessions in memory, keyed by a short ID that is matched
// without regard to case. Generated IDs are 4 hex characters drawn from
// crypto/rand, retried on collision with both memory and the store.
//
// Storage:
//
// A Store mirrors sessions outside the process. FileStore writes one
// <id>.json Record per session, replacing it atomically on each save. A
// record holds the config ID, timestamps, a snapshot of the puzzle and the
// move log. The board itself is never written: loading replays the
// successful moves made since the last reset from the starting position, so
// a stored session can never disagree with its puzzle. If the named config
// was edited in a way that breaks the replay, or removed, the snapshot is
// used instead.
//
// Lifecycle:
//
//	store, _ := session.NewFileStore("sessions", configs)
//	manager := session.NewManagerWithStore(store)
//	n, _ := manager.LoadAll()
//
//	sess, _ := manager.Create("", "beginner", puzzle)
//	sess.Engine.Move(1, engine.Positive)
//	manager.Save(sess.ID)
//
// ExpireIdle drops idle sessions from memory (they reload on next access)
// and PruneOrphaned drops sessions whose record was deleted from disk.
package session
