package docstore

import (
	"fmt"
	"maps"
	"strconv"

	"github.com/roach88/talkdb/internal/ir"
)

// On-disk document keys.
const (
	keyInfo       = "info"
	keyUsers      = "users"
	keyWatermarks = "watermarks"
	keyLastUpdate = "lastUpdate"
)

// document is the in-memory form of a channel document.
type document struct {
	Info       ir.Object            // nil when no info was ever stored
	Users      map[string]ir.Object // keyed by decimal user id
	Watermarks map[string]string    // reader id -> decimal logId
	LastUpdate int64                // unix seconds
}

func newDocument(info ir.Object) *document {
	return &document{
		Info:       info.Clone(),
		Users:      map[string]ir.Object{},
		Watermarks: map[string]string{},
	}
}

func (d *document) clone() *document {
	users := make(map[string]ir.Object, len(d.Users))
	for k, v := range d.Users {
		users[k] = v.Clone()
	}
	return &document{
		Info:       d.Info.Clone(),
		Users:      users,
		Watermarks: maps.Clone(d.Watermarks),
		LastUpdate: d.LastUpdate,
	}
}

func (d *document) toObject() ir.Object {
	users := make(ir.Object, len(d.Users))
	for k, v := range d.Users {
		users[k] = v
	}
	watermarks := make(ir.Object, len(d.Watermarks))
	for k, v := range d.Watermarks {
		watermarks[k] = ir.String(v)
	}

	obj := ir.NewObject(
		ir.O(keyUsers, users),
		ir.O(keyWatermarks, watermarks),
		ir.O(keyLastUpdate, ir.Int(d.LastUpdate)),
	)
	if d.Info != nil {
		obj[keyInfo] = d.Info
	}
	return obj
}

func documentFromObject(obj ir.Object) (*document, error) {
	d := newDocument(nil)

	switch info := obj[keyInfo].(type) {
	case nil, ir.Null:
	case ir.Object:
		d.Info = info
	default:
		return nil, fmt.Errorf("%s: expected object, got %T", keyInfo, info)
	}

	if users, ok := obj[keyUsers].(ir.Object); ok {
		for id, v := range users {
			u, ok := v.(ir.Object)
			if !ok {
				return nil, fmt.Errorf("%s[%s]: expected object, got %T", keyUsers, id, v)
			}
			d.Users[id] = u
		}
	}

	if watermarks, ok := obj[keyWatermarks].(ir.Object); ok {
		for id, v := range watermarks {
			switch w := v.(type) {
			case ir.String:
				d.Watermarks[id] = string(w)
			case ir.Int:
				d.Watermarks[id] = strconv.FormatInt(int64(w), 10)
			default:
				return nil, fmt.Errorf("%s[%s]: expected string, got %T", keyWatermarks, id, v)
			}
		}
	}

	if v, ok := obj[keyLastUpdate]; ok {
		n, err := ir.Int64(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", keyLastUpdate, err)
		}
		d.LastUpdate = n
	}

	return d, nil
}
