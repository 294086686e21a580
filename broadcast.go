/*
Copyright © 2025 Seednode <seednode@seedno.de>
*/

package main

// toConn delivers msg to a single connection.
func (e *Engine) toConn(connID string, msg Message) {
	e.transport.Send(connID, msg)
}

// toSession delivers msg to whichever connection the session is bound to, if any.
func (e *Engine) toSession(sessionID string, msg Message) {
	if conn, ok := e.sessions.connFor(sessionID); ok {
		e.transport.Send(conn, msg)
	}
}

// toRoom delivers msg to every connection bound to a member of room.
func (e *Engine) toRoom(room *Room, msg Message) {
	e.toRoomExcept(room, "", msg)
}

// toRoomExcept is toRoom minus the originating connection, which gets its own
// acknowledgement instead.
func (e *Engine) toRoomExcept(room *Room, except string, msg Message) {
	for _, id := range room.players {
		conn, ok := e.sessions.connFor(id)
		if !ok || conn == except {
			continue
		}
		e.transport.Send(conn, msg)
	}
}
