// Package ws serves tool calls over a WebSocket.
//
// Clients send {"type":"execute","id":"...","tool_id":"...","params":{...}}
// and receive {"type":"result","id":"...","result":{...}}. Messages on one
// connection execute concurrently, bounded per connection, and the id
// (generated when omitted) doubles as the request ID in logs and spans.
// {"type":"ping"} is answered with "pong".
package ws
