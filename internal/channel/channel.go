// Package channel defines the typed views of the documents kept per
// channel: channel info and per-user info, for normal and open channels.
//
// The views are projections over an ir.Object. Converting a view to an
// object and back goes through BSON, the same encoding the document store
// writes, so field names here are the on-disk keys.
package channel

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/roach88/talkdb/internal/ir"
)

// Kind distinguishes the closed set of channel variants.
type Kind string

const (
	KindNormal Kind = "normal"
	KindOpen   Kind = "open"
)

// Info is implemented by channel info variants.
type Info interface {
	Kind() Kind
	ID() int64
}

// UserInfo is implemented by user info variants.
type UserInfo interface {
	Kind() Kind
	UserID() int64
}

// DisplayUser is a member shown in the channel preview.
type DisplayUser struct {
	UserID     int64  `bson:"userId"`
	Nickname   string `bson:"nickname"`
	CountryIso string `bson:"countryIso,omitempty"`
	ProfileURL string `bson:"profileURL,omitempty"`
}

// NormalInfo is the info of a regular (friend or group) channel.
type NormalInfo struct {
	ChannelID           int64         `bson:"channelId"`
	Type                string        `bson:"type"`
	ActiveUserCount     int           `bson:"activeUserCount"`
	NewChatCount        int           `bson:"newChatCount"`
	NewChatCountInvalid bool          `bson:"newChatCountInvalid,omitempty"`
	LastChatLogID       int64         `bson:"lastChatLogId"`
	LastSeenLogID       int64         `bson:"lastSeenLogId"`
	DisplayUserList     []DisplayUser `bson:"displayUserList"`
	PushAlert           bool          `bson:"pushAlert"`
	JoinTime            int64         `bson:"joinTime,omitempty"`
}

func (NormalInfo) Kind() Kind  { return KindNormal }
func (i NormalInfo) ID() int64 { return i.ChannelID }

// OpenInfo is the info of an open (link-joined) channel.
type OpenInfo struct {
	NormalInfo    `bson:",inline"`
	LinkID        int64 `bson:"linkId"`
	OpenToken     int64 `bson:"openToken"`
	DirectChannel bool  `bson:"directChannel"`
}

func (OpenInfo) Kind() Kind { return KindOpen }

// NormalUserInfo is a member of a normal channel.
type NormalUserInfo struct {
	ID                 int64  `bson:"userId"`
	Nickname           string `bson:"nickname"`
	ProfileURL         string `bson:"profileURL,omitempty"`
	FullProfileURL     string `bson:"fullProfileURL,omitempty"`
	OriginalProfileURL string `bson:"originalProfileURL,omitempty"`
	UserType           int    `bson:"userType"`
	CountryIso         string `bson:"countryIso,omitempty"`
	AccountID          int64  `bson:"accountId,omitempty"`
	StatusMessage      string `bson:"statusMessage,omitempty"`
	Suspended          bool   `bson:"suspended"`
}

func (NormalUserInfo) Kind() Kind      { return KindNormal }
func (u NormalUserInfo) UserID() int64 { return u.ID }

// OpenUserInfo is a member of an open channel.
type OpenUserInfo struct {
	ID                 int64  `bson:"userId"`
	Nickname           string `bson:"nickname"`
	ProfileURL         string `bson:"profileURL,omitempty"`
	FullProfileURL     string `bson:"fullProfileURL,omitempty"`
	OriginalProfileURL string `bson:"originalProfileURL,omitempty"`
	UserType           int    `bson:"userType"`
	LinkID             int64  `bson:"linkId"`
	OpenToken          int64  `bson:"openToken"`
	Perm               int    `bson:"perm"`
	ProfileType        int    `bson:"profileType"`
}

func (OpenUserInfo) Kind() Kind      { return KindOpen }
func (u OpenUserInfo) UserID() int64 { return u.ID }

// ToObject encodes v to BSON and decodes the result as an ir.Object.
func ToObject(v any) (ir.Object, error) {
	data, err := bson.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %T: %w", v, err)
	}
	obj, err := ir.UnmarshalBSONDocument(data)
	if err != nil {
		return nil, fmt.Errorf("encode %T: %w", v, err)
	}
	return obj, nil
}

// FromObject decodes obj into out, which must be a pointer. Keys in obj
// that out has no field for are ignored.
func FromObject(obj ir.Object, out any) error {
	data, err := ir.MarshalBSONDocument(obj)
	if err != nil {
		return fmt.Errorf("decode %T: %w", out, err)
	}
	if err := bson.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %T: %w", out, err)
	}
	return nil
}

// Decode is FromObject for a value type.
func Decode[T any](obj ir.Object) (T, error) {
	var out T
	err := FromObject(obj, &out)
	return out, err
}
