package model

import (
	"time"

	"github.com/Deepakk2104/Zync/internal/store"
)

// User is a user document under users/{userId}. It is upserted on
// sign-in and its presence fields are merge-written on connect and
// disconnect; the record is never deleted.
type User struct {
	ID        string    `json:"id" bson:"_id" firestore:"uid"`
	Name      string    `json:"name" bson:"name" firestore:"name"`
	Email     string    `json:"email" bson:"email" firestore:"email"`
	AvatarURL string    `json:"avatarUrl" bson:"photoURL" firestore:"photoURL"`
	Online    bool      `json:"online" bson:"online" firestore:"online"`
	LastSeen  time.Time `json:"lastSeen" bson:"lastSeen" firestore:"lastSeen"`
}

func UserFromDoc(id string, d store.Doc) User {
	return User{
		ID:        id,
		Name:      docString(d, "name"),
		Email:     docString(d, "email"),
		AvatarURL: docString(d, "photoURL"),
		Online:    docBool(d, "online"),
		LastSeen:  docTime(d, "lastSeen"),
	}
}

func UserFromEntry(e store.Entry) User {
	return UserFromDoc(e.ID, e.Data)
}

// DisplayName falls back to email, then id, so rosters can label
// incomplete profiles.
func (u User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	if u.Email != "" {
		return u.Email
	}
	return u.ID
}
