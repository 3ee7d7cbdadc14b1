// Package repositories implements the in-memory registry behind room codes, handoff sessions and OAuth states.
//
// Every record kind is held by a [Store], a mutex-guarded map keyed by a generated value. Stores
// sweep expired records lazily at the start of each operation instead of running a timer.
//
// Key Implementations:
//   - [NewRoomStore] : six character codes from [RoomCodeAlphabet]
//   - [NewHandoffStore] : URL-safe handoff ids
//   - [NewStateStore] : OAuth anti-forgery states
//
// Operations that must not race, such as a join checking and then deleting a room, go through
// [Store.Resolve] or [Store.Upsert] which run the caller's decision while the lock is held.
package repositories
