// Package record implements the wire and storage codec for rkv.
//
// Every record - on disk and on the wire - is a flat sequence of key-value
// pairs serialized as application/x-www-form-urlencoded. The codec is total
// on arbitrary byte strings: encoding never fails, and decoding passes
// malformed percent sequences through literally instead of rejecting them.
// Duplicate keys in a decoded blob resolve to the last occurrence.
package record
