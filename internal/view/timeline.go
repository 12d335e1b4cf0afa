package view

import (
	"slices"

	"github.com/aigustalabs/switchboard/internal/protocol"
)

// Messages returns a copy of one timeline in arrival order.
func (v *View) Messages(id protocol.ServiceID, chatID string) []protocol.Message {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return slices.Clone(v.timelines[timelineKey{service: id, chatID: chatID}])
}

// AppendMessage appends a live message to its timeline. The append is
// idempotent on message id: a redelivery is absorbed and reported as not
// appended, with the first delivery's content kept. On a fresh append the
// owning chat's directory entry is touched.
func (v *View) AppendMessage(id protocol.ServiceID, msg protocol.Message) bool {
	key := timelineKey{service: id, chatID: msg.ChatID}

	v.mu.Lock()
	timeline := v.timelines[key]
	dup := slices.ContainsFunc(timeline, func(m protocol.Message) bool { return m.ID == msg.ID })
	if dup {
		v.mu.Unlock()
		return false
	}
	v.timelines[key] = append(slices.Clone(timeline), msg)
	v.mu.Unlock()

	v.publish(KindTimelineUpdated, id, msg.ChatID)
	v.TouchChat(id, msg.ChatID, msg)
	return true
}

// ReplaceMessages applies a chat.messages history batch: the timeline is
// replaced wholesale, in delivered order (timestamps are not trusted for
// re-sorting). A history fetch must not perturb the directory ordering
// derived from live traffic, so no chat is touched.
func (v *View) ReplaceMessages(id protocol.ServiceID, chatID string, msgs []protocol.Message) {
	key := timelineKey{service: id, chatID: chatID}

	v.mu.Lock()
	v.timelines[key] = slices.Clone(msgs)
	v.mu.Unlock()

	v.publish(KindTimelineUpdated, id, chatID)
}
