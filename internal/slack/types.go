package slack

import "encoding/json"

// Conversation types as the classic Web API names them. The type picks the
// history endpoint and the rename subtype ("channel_name", "group_name");
// direct messages never rename.
const (
	TypeChannel = "channel"
	TypeGroup   = "group"
	TypeIM      = "im"
)

// Message is one record from a conversation's history. Only the fields the
// archiver inspects are decoded; the raw record is retained so archive files
// keep every field the API returned.
type Message struct {
	TS      string `json:"ts"`
	Subtype string `json:"subtype,omitempty"`
	Name    string `json:"name,omitempty"`
	OldName string `json:"old_name,omitempty"`

	raw json.RawMessage
}

func (m *Message) UnmarshalJSON(data []byte) error {
	type plain Message
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*m = Message(p)
	m.raw = append(json.RawMessage(nil), data...)
	return nil
}

func (m Message) MarshalJSON() ([]byte, error) {
	if m.raw != nil {
		return m.raw, nil
	}
	type plain Message
	return json.Marshal(plain(m))
}

// RenameEvent reports whether the message announces a rename of the
// conversation, returning the old and new directory names when it does.
func (m *Message) RenameEvent(conversationType string) (oldName, newName string, ok bool) {
	if conversationType == TypeIM {
		return "", "", false
	}
	if m.Subtype == "" || m.Subtype != conversationType+"_name" {
		return "", "", false
	}
	return m.OldName, m.Name, true
}

// Channel is a public channel as reported by channels.list. Private channels
// are normalized into this shape for the channels.json snapshot.
type Channel struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Created    int64           `json:"created"`
	Creator    string          `json:"creator"`
	IsArchived bool            `json:"is_archived"`
	IsChannel  bool            `json:"is_channel"`
	IsGeneral  bool            `json:"is_general"`
	IsMember   bool            `json:"is_member"`
	Members    []string        `json:"members"`
	NumMembers int             `json:"num_members"`
	Purpose    json.RawMessage `json:"purpose,omitempty"`
	Topic      json.RawMessage `json:"topic,omitempty"`
}

// Group is a private channel as reported by groups.list.
type Group struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Created    int64           `json:"created"`
	Creator    string          `json:"creator"`
	IsArchived bool            `json:"is_archived"`
	Members    []string        `json:"members"`
	Purpose    json.RawMessage `json:"purpose,omitempty"`
	Topic      json.RawMessage `json:"topic,omitempty"`
}

// AsChannel converts a private channel into channel shape so channels.json
// can hold both classes in one list.
func (g Group) AsChannel() Channel {
	return Channel{
		ID:         g.ID,
		Name:       g.Name,
		Created:    g.Created,
		Creator:    g.Creator,
		IsArchived: g.IsArchived,
		IsChannel:  true,
		IsGeneral:  false,
		IsMember:   true,
		Members:    g.Members,
		NumMembers: len(g.Members),
		Purpose:    g.Purpose,
		Topic:      g.Topic,
	}
}

// DM is a direct-message conversation as reported by im.list.
type DM struct {
	ID   string `json:"id"`
	User string `json:"user"`
}

// User is a workspace member. As with Message, the raw record is retained so
// the users.json snapshot keeps everything the API returned.
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	raw json.RawMessage
}

func (u *User) UnmarshalJSON(data []byte) error {
	type plain User
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*u = User(p)
	u.raw = append(json.RawMessage(nil), data...)
	return nil
}

func (u User) MarshalJSON() ([]byte, error) {
	if u.raw != nil {
		return u.raw, nil
	}
	type plain User
	return json.Marshal(plain(u))
}

// UserNameMap builds the userID -> name lookup used to pick direct-message
// directory names.
func UserNameMap(users []User) map[string]string {
	m := make(map[string]string, len(users))
	for _, u := range users {
		m[u.ID] = u.Name
	}
	return m
}

// AuthInfo is the subset of auth.test used to confirm the token works.
type AuthInfo struct {
	Team   string `json:"team"`
	User   string `json:"user"`
	UserID string `json:"user_id"`
}
