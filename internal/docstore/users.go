package docstore

import (
	"context"
	"iter"
	"strconv"

	"github.com/roach88/talkdb/internal/channel"
	"github.com/roach88/talkdb/internal/ir"
)

func userKey(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

// UserCount returns the number of stored members.
func (s *Store[I, U]) UserCount() int {
	return len(s.snapshot().Users)
}

// UserInfo returns the typed info of userID.
func (s *Store[I, U]) UserInfo(userID int64) (U, bool, error) {
	var zero U
	obj, ok := s.snapshot().Users[userKey(userID)]
	if !ok {
		return zero, false, nil
	}
	out, err := channel.Decode[U](obj)
	if err != nil {
		return zero, false, err
	}
	return out, true, nil
}

// UserObject returns a copy of the raw info of userID, or nil.
func (s *Store[I, U]) UserObject(userID int64) ir.Object {
	return s.snapshot().Users[userKey(userID)].Clone()
}

// AllUserInfo iterates over the members present when it is called.
// Order is unspecified.
func (s *Store[I, U]) AllUserInfo() iter.Seq2[U, error] {
	users := s.snapshot().Users
	return func(yield func(U, error) bool) {
		for _, obj := range users {
			u, err := channel.Decode[U](obj)
			if !yield(u, err) {
				return
			}
		}
	}
}

// UpdateUserInfo merges patch into the member's info, inserting the
// member when absent.
func (s *Store[I, U]) UpdateUserInfo(ctx context.Context, userID int64, patch ir.Object) error {
	key := userKey(userID)
	return s.mutate(ctx, "update user "+key, func(doc *document) {
		if cur, ok := doc.Users[key]; ok {
			doc.Users[key] = ir.Merge(cur, patch)
			return
		}
		obj := patch.Clone()
		if obj == nil {
			obj = ir.Object{}
		}
		doc.Users[key] = obj
	})
}

// PutUser merges the typed view of u into the member's stored info.
func (s *Store[I, U]) PutUser(ctx context.Context, u U) error {
	obj, err := channel.ToObject(u)
	if err != nil {
		return err
	}
	return s.UpdateUserInfo(ctx, u.UserID(), obj)
}

// RemoveUser drops the member's info and watermark. It reports whether
// either existed.
func (s *Store[I, U]) RemoveUser(ctx context.Context, userID int64) (bool, error) {
	key := userKey(userID)
	var existed bool
	err := s.mutate(ctx, "remove user "+key, func(doc *document) {
		_, hadUser := doc.Users[key]
		_, hadMark := doc.Watermarks[key]
		existed = hadUser || hadMark
		delete(doc.Users, key)
		delete(doc.Watermarks, key)
	})
	if err != nil {
		return false, err
	}
	return existed, nil
}

// ClearUserList removes every member. Watermarks are kept.
func (s *Store[I, U]) ClearUserList(ctx context.Context) error {
	return s.mutate(ctx, "clear user list", func(doc *document) {
		doc.Users = map[string]ir.Object{}
	})
}
