package model

import (
	"time"

	"github.com/Deepakk2104/Zync/internal/store"
)

// Group is a group record under groups/{groupId}. Members is fixed at
// creation (the creator always first); there are no add/remove-member
// operations in this core.
type Group struct {
	ID        string    `json:"id"`
	Name      string    `json:"name" bson:"name" firestore:"name"`
	Members   []string  `json:"members" bson:"members" firestore:"members"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt" firestore:"createdAt"`
}

// GroupFields is the append payload for a new group record.
func GroupFields(name string, members []string) store.Doc {
	return store.Doc{
		"name":    name,
		"members": members,
	}
}

func GroupFromDoc(id string, d store.Doc) Group {
	return Group{
		ID:        id,
		Name:      docString(d, "name"),
		Members:   docStringSlice(d, "members"),
		CreatedAt: docTime(d, "createdAt"),
	}
}

func GroupFromEntry(e store.Entry) Group {
	return GroupFromDoc(e.ID, e.Data)
}

func (g Group) IsMember(userID string) bool {
	for _, m := range g.Members {
		if m == userID {
			return true
		}
	}
	return false
}
