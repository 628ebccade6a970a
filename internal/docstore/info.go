package docstore

import (
	"context"

	"github.com/roach88/talkdb/internal/channel"
	"github.com/roach88/talkdb/internal/ir"
)

// Info returns the typed channel info. The bool is false when no info
// has been stored or seeded.
func (s *Store[I, U]) Info() (I, bool, error) {
	var zero I
	info := s.snapshot().Info
	if info == nil {
		return zero, false, nil
	}
	out, err := channel.Decode[I](info)
	if err != nil {
		return zero, false, err
	}
	return out, true, nil
}

// InfoObject returns a copy of the raw info, including keys the typed
// view does not know. Nil when absent.
func (s *Store[I, U]) InfoObject() ir.Object {
	return s.snapshot().Info.Clone()
}

// LastUpdate returns the unix time of the last info change.
func (s *Store[I, U]) LastUpdate() int64 {
	return s.snapshot().LastUpdate
}

// SetInfo replaces the info wholesale.
func (s *Store[I, U]) SetInfo(ctx context.Context, info I) error {
	obj, err := channel.ToObject(info)
	if err != nil {
		return err
	}
	return s.SetInfoObject(ctx, obj)
}

// SetInfoObject replaces the info with a raw object.
func (s *Store[I, U]) SetInfoObject(ctx context.Context, info ir.Object) error {
	return s.mutate(ctx, "set info", func(doc *document) {
		doc.Info = info.Clone()
		if doc.Info == nil {
			doc.Info = ir.Object{}
		}
		s.touch(doc)
	})
}

// UpdateInfo deep-merges patch into the stored info, or stores patch as
// the info when none exists yet.
func (s *Store[I, U]) UpdateInfo(ctx context.Context, patch ir.Object) error {
	return s.mutate(ctx, "update info", func(doc *document) {
		if doc.Info == nil {
			doc.Info = patch.Clone()
			if doc.Info == nil {
				doc.Info = ir.Object{}
			}
		} else {
			doc.Info = ir.Merge(doc.Info, patch)
		}
		s.touch(doc)
	})
}

// touch advances lastUpdate to now without ever moving it backwards.
func (s *Store[I, U]) touch(doc *document) {
	doc.LastUpdate = max(doc.LastUpdate, s.now().Unix())
}
