// Package wire implements the framing of the rkv request/response protocol.
//
// The protocol is a deliberately small HTTP/1.1 subset: one POST request per
// connection, form-encoded bodies, Connection: close, and a status line
// whose reason phrase is always the literal "OK". The parser is strict
// about what it needs (header terminator, Content-Length, a 1 MiB header
// cap) and indifferent to everything else.
package wire
