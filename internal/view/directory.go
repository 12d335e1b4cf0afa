package view

import (
	"slices"
	"sort"

	"github.com/aigustalabs/switchboard/internal/protocol"
)

// mediaPlaceholder stands in for the last-message preview when a message
// has no text (image delivery).
const mediaPlaceholder = "(media)"

// Chats returns a copy of one service's directory in display order.
func (v *View) Chats(id protocol.ServiceID) []protocol.Chat {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return slices.Clone(v.services[id].chats)
}

// ReplaceChats applies a chats.list snapshot: the directory is replaced
// wholesale and re-sorted. A previously known chat absent from the
// snapshot is gone; selection recovery is the presentation layer's
// problem.
func (v *View) ReplaceChats(id protocol.ServiceID, chats []protocol.Chat) {
	next := slices.Clone(chats)
	sortChats(next)

	v.mu.Lock()
	v.services[id].chats = next
	v.mu.Unlock()

	v.publish(KindChatsUpdated, id, nil)
}

// TouchChat patches one chat's preview fields from a freshly appended
// message and re-sorts the directory. A chat_id not present in the
// directory is a no-op: the message stays in its timeline but no entry is
// fabricated here (only a chats.list snapshot introduces chats).
func (v *View) TouchChat(id protocol.ServiceID, chatID string, msg protocol.Message) {
	v.mu.Lock()
	chats := v.services[id].chats
	idx := slices.IndexFunc(chats, func(c protocol.Chat) bool { return c.ID == chatID })
	if idx < 0 {
		v.mu.Unlock()
		return
	}

	next := slices.Clone(chats)
	preview := msg.Text
	if preview == "" {
		preview = mediaPlaceholder
	}
	next[idx].LastMessage = preview
	next[idx].LastTime = msg.Timestamp
	sortChats(next)
	v.services[id].chats = next
	v.mu.Unlock()

	v.publish(KindChatsUpdated, id, chatID)
}

// sortChats orders by last_time descending. Chats without a last_time sort
// after all chats that have one; ties keep their relative order. The sort
// is recomputed from the data on every mutation, never patched
// incrementally.
func sortChats(chats []protocol.Chat) {
	sort.SliceStable(chats, func(i, j int) bool {
		a, b := chats[i].LastTime, chats[j].LastTime
		if a == 0 || b == 0 {
			return a != 0 && b == 0
		}
		return a > b
	})
}
