// Package ir provides the structured value carrier used for free-form
// payloads: chat attachments, supplements and channel document blobs.
//
// This package contains value types and their codecs only. Other internal
// packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Integers are always int64 and never pass through float64
//   - Two lossless encodings: JSON with $long/$binary wrappers (log store)
//     and BSON (document store)
//   - Object keys are serialized in UTF-16 order for stable output
package ir
