// Package schema declares typed column layouts and generates the SQL
// fragments and bind values that move records in and out of SQLite.
//
// A Schema is built once with New and never changes afterwards. Stores
// receive their Schema explicitly; there is no package-level registry.
//
// Column indexes are part of the on-disk contract: Values and RawToModel
// address storage by index, while Table, Updates and Columns address it by
// field name in declaration order.
package schema
