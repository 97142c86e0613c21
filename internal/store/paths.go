package store

import "strings"

// Persisted layout, shared by every backend:
//
//	users/{userId}
//	groups/{groupId}
//	groups/{groupId}/messages/{messageId}
//	groups/{groupId}/typing
//	directChannels/{sortedPairId}/messages/{messageId}
//	directChannels/{sortedPairId}/typing

const (
	UsersCollection  = "users"
	GroupsCollection = "groups"

	directChannelsSegment = "directChannels"
	messagesSegment       = "messages"
	typingSegment         = "typing"
)

func UserPath(userID string) string {
	return UsersCollection + "/" + userID
}

func GroupPath(groupID string) string {
	return GroupsCollection + "/" + groupID
}

func DirectMessagesPath(channelID string) string {
	return directChannelsSegment + "/" + channelID + "/" + messagesSegment
}

func DirectTypingPath(channelID string) string {
	return directChannelsSegment + "/" + channelID + "/" + typingSegment
}

func GroupMessagesPath(groupID string) string {
	return GroupsCollection + "/" + groupID + "/" + messagesSegment
}

func GroupTypingPath(groupID string) string {
	return GroupsCollection + "/" + groupID + "/" + typingSegment
}

// ChildPath addresses one document inside a collection.
func ChildPath(collectionPath, id string) string {
	return collectionPath + "/" + id
}

// splitPath returns the parent collection path and the final segment.
func splitPath(path string) (parent, leaf string, ok bool) {
	i := strings.LastIndexByte(path, '/')
	if i <= 0 || i == len(path)-1 {
		return "", "", false
	}
	return path[:i], path[i+1:], true
}
