// Package docstore keeps one channel's document (info, members and read
// watermarks) in a single encrypted file.
//
// The whole document is loaded on Open and rewritten on every mutation.
// On disk it is base64(AES-128-CBC(BSON)) with the key derived from the
// channel's logical name. Writes go to a fresh temp file that is fsynced
// and renamed over the target, so a crash leaves either the previous or
// the new document, never a torn one.
//
// Mutations are serialized per Store. Each one is applied to a copy of
// the document and swapped in only after the file write succeeded.
package docstore
