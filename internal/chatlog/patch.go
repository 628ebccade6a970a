package chatlog

import (
	"maps"

	"github.com/roach88/talkdb/internal/ir"
	"github.com/roach88/talkdb/internal/schema"
)

// Patch records the fields of a partial update. Only fields set through
// its methods are written; the zero Patch changes nothing.
type Patch struct {
	m schema.Model
}

// NewPatch returns an empty patch.
func NewPatch() *Patch {
	return &Patch{m: schema.Model{}}
}

func (p *Patch) set(field string, v any) *Patch {
	if p.m == nil {
		p.m = schema.Model{}
	}
	p.m[field] = v
	return p
}

// SetPrevLogID sets the logId of the preceding message.
func (p *Patch) SetPrevLogID(id int64) *Patch { return p.set(FieldPrevLogID, id) }

// SetSenderID sets the sending user.
func (p *Patch) SetSenderID(id int64) *Patch { return p.set(FieldSenderID, id) }

// SetType sets the message type.
func (p *Patch) SetType(t int) *Patch { return p.set(FieldType, t) }

// SetSendAt sets the send time in unix seconds.
func (p *Patch) SetSendAt(unix int64) *Patch { return p.set(FieldSendAt, int(unix)) }

// SetMessageID sets the client message id.
func (p *Patch) SetMessageID(id int64) *Patch { return p.set(FieldMessageID, id) }

// SetText sets the message text; nil clears it.
func (p *Patch) SetText(text *string) *Patch {
	if text == nil {
		return p.set(FieldText, nil)
	}
	return p.set(FieldText, *text)
}

// SetAttachment replaces the attachment; nil clears it.
func (p *Patch) SetAttachment(obj ir.Object) *Patch {
	if obj == nil {
		return p.set(FieldAttachment, nil)
	}
	return p.set(FieldAttachment, obj)
}

// SetSupplement replaces the supplement; nil clears it.
func (p *Patch) SetSupplement(obj ir.Object) *Patch {
	if obj == nil {
		return p.set(FieldSupplement, nil)
	}
	return p.set(FieldSupplement, obj)
}

// Empty reports whether no field was set.
func (p *Patch) Empty() bool {
	return p == nil || len(p.m) == 0
}

// Model returns a copy of the recorded fields.
func (p *Patch) Model() schema.Model {
	if p == nil {
		return schema.Model{}
	}
	return maps.Clone(p.m)
}
