// Package chatlog defines the chat log entry and the schema it is stored
// under.
package chatlog

import (
	"fmt"

	"github.com/roach88/talkdb/internal/ir"
	"github.com/roach88/talkdb/internal/schema"
	"github.com/roach88/talkdb/internal/vault"
)

// Field names of the chats table, in column order.
const (
	FieldLogID      = "logId"
	FieldPrevLogID  = "prevLogId"
	FieldSenderID   = "senderId"
	FieldType       = "type"
	FieldText       = "text"
	FieldSendAt     = "sendAt"
	FieldMessageID  = "messageId"
	FieldAttachment = "attachment"
	FieldSupplement = "supplement"
)

// Entry is one chat message as stored in a channel log.
type Entry struct {
	LogID      int64     `json:"logId"`
	PrevLogID  int64     `json:"prevLogId"`
	SenderID   int64     `json:"senderId"`
	Type       int       `json:"type"`
	Text       *string   `json:"text,omitempty"`
	SendAt     int64     `json:"sendAt"` // unix seconds
	MessageID  int64     `json:"messageId"`
	Attachment ir.Object `json:"attachment,omitempty"`
	Supplement ir.Object `json:"supplement,omitempty"`
}

// Schema returns the chats table schema. With a nil box the free-form
// columns are stored in plaintext; otherwise text, attachment and
// supplement are sealed with box.
func Schema(box *vault.Box) *schema.Schema {
	text, record := schema.Text, schema.Record
	if box != nil {
		text = schema.Sealed(schema.Text, box)
		record = schema.Sealed(schema.Record, box)
	}
	return schema.MustNew(
		schema.F(FieldLogID, schema.Col(0, schema.LongInteger, schema.TagPrimary)),
		schema.F(FieldPrevLogID, schema.Col(1, schema.LongInteger)),
		schema.F(FieldSenderID, schema.Col(2, schema.LongInteger)),
		schema.F(FieldType, schema.Col(3, schema.Integer)),
		schema.F(FieldText, schema.ColOptional(4, text)),
		schema.F(FieldSendAt, schema.Col(5, schema.Integer)),
		schema.F(FieldMessageID, schema.Col(6, schema.LongInteger)),
		schema.F(FieldAttachment, schema.ColOptional(7, record)),
		schema.F(FieldSupplement, schema.ColOptional(8, record)),
	)
}

// ToModel converts e into a fully populated model.
func ToModel(e Entry) schema.Model {
	m := schema.Model{
		FieldLogID:      e.LogID,
		FieldPrevLogID:  e.PrevLogID,
		FieldSenderID:   e.SenderID,
		FieldType:       e.Type,
		FieldText:       nil,
		FieldSendAt:     int(e.SendAt),
		FieldMessageID:  e.MessageID,
		FieldAttachment: nil,
		FieldSupplement: nil,
	}
	if e.Text != nil {
		m[FieldText] = *e.Text
	}
	if e.Attachment != nil {
		m[FieldAttachment] = e.Attachment
	}
	if e.Supplement != nil {
		m[FieldSupplement] = e.Supplement
	}
	return m
}

// FromModel converts a model produced by schema.RawToModel back into an
// Entry.
func FromModel(m schema.Model) (Entry, error) {
	var (
		e   Entry
		err error
	)
	if e.LogID, err = get[int64](m, FieldLogID); err != nil {
		return Entry{}, err
	}
	if e.PrevLogID, err = get[int64](m, FieldPrevLogID); err != nil {
		return Entry{}, err
	}
	if e.SenderID, err = get[int64](m, FieldSenderID); err != nil {
		return Entry{}, err
	}
	if e.Type, err = get[int](m, FieldType); err != nil {
		return Entry{}, err
	}
	sendAt, err := get[int](m, FieldSendAt)
	if err != nil {
		return Entry{}, err
	}
	e.SendAt = int64(sendAt)
	if e.MessageID, err = get[int64](m, FieldMessageID); err != nil {
		return Entry{}, err
	}

	if v := m[FieldText]; v != nil {
		s, ok := v.(string)
		if !ok {
			return Entry{}, fmt.Errorf("%s: expected string, got %T", FieldText, v)
		}
		e.Text = &s
	}
	if e.Attachment, err = getObject(m, FieldAttachment); err != nil {
		return Entry{}, err
	}
	if e.Supplement, err = getObject(m, FieldSupplement); err != nil {
		return Entry{}, err
	}
	return e, nil
}

func get[T any](m schema.Model, field string) (T, error) {
	var zero T
	v, ok := m[field]
	if !ok {
		return zero, fmt.Errorf("%w: %s", schema.ErrMissingField, field)
	}
	out, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%s: expected %T, got %T", field, zero, v)
	}
	return out, nil
}

func getObject(m schema.Model, field string) (ir.Object, error) {
	v := m[field]
	if v == nil {
		return nil, nil
	}
	obj, ok := v.(ir.Object)
	if !ok {
		return nil, fmt.Errorf("%s: expected object, got %T", field, v)
	}
	return obj, nil
}
