// Package names builds the logical names that identify every storable unit.
//
// A logical name is the sole input to path resolution and key derivation,
// so two stores that share a name share a file and a key. Each namespace
// below is distinct by its prefix and separator count.
package names

import (
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

const sep = "$"

// Namespace prefixes.
const (
	NSUser        = "user"
	NSChannel     = "channel"
	NSChat        = "chat"
	NSOpenChannel = "open_channel"
)

// Normalize returns the NFC form of name so that canonically equivalent
// strings always resolve to the same file and key.
func Normalize(name string) string {
	return norm.NFC.String(name)
}

// Join builds "<ns>$<part>$<part>..." from already formatted parts.
func Join(ns string, parts ...string) string {
	return Normalize(ns + sep + strings.Join(parts, sep))
}

// User names the per-account root directory.
func User(userID int64) string {
	return Join(NSUser, id(userID))
}

// Channel names the document of a normal channel.
func Channel(channelID int64) string {
	return Join(NSChannel, id(channelID))
}

// Chat names the chat log of a channel.
func Chat(channelID int64) string {
	return Join(NSChat, id(channelID))
}

// OpenChannel names the document of an open channel reached through linkID.
func OpenChannel(channelID, linkID int64) string {
	return Join(NSOpenChannel, id(channelID), id(linkID))
}

func id(n int64) string {
	return strconv.FormatInt(n, 10)
}
