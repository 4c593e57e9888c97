// Package websocket pushes live board updates to clients watching a Rush
// Hour session.
//
// A Hub groups connections into one room per session ID. The rooms belong to
// the goroutine running Hub.Run; joins, leaves, broadcasts and queries all
// reach it over channels. Each connection has a read pump, which only keeps
// deadlines fresh, and a write pump, which writes one JSON message per frame
// and pings the peer while idle.
//
// Message Protocol:
//
//	{"session_id": "ab12", "seq": 1, "event": "snapshot", "game_state": {...}}
//	{"session_id": "ab12", "seq": 2, "event": "state_update", "game_state": {...}}
//	{"session_id": "ab12", "seq": 3, "event": "solution", "data": {...}}
//
// A new watcher first receives a snapshot of the current board. seq counts
// the frames sent to a session, so a client can ignore a board older than
// one it has already drawn. Messages sent by clients are discarded.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run(ctx)
//
//	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		id := r.URL.Query().Get("session")
//		hub.ServeWS(w, r, id, currentState(id))
//	})
//
// Watchers whose buffer fills up are dropped. Cancelling the context passed
// to Run closes every connection.
package websocket
