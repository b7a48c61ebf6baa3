// Package websocket runs interactive what-if sessions over gorilla/websocket.
//
// A client opens a session with a bundle frame, then sends override patches.
// Patches accumulate for the lifetime of the session and are never written
// back to the bundle; every accepted frame is answered with a fresh
// evaluation. The Hub tracks open sessions so the server can close them on
// shutdown.
package websocket
