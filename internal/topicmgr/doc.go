// Package topicmgr is the catalog of topic families carried on the bus.
//
// A family describes every concrete key of one shape, for example the chat
// family covers "chat/1", "chat/2" and so on. Families are defined once and
// registered with a Manager:
//
//	var Chat = topicmgr.Define(topicmgr.TopicConfig{
//		Name:        "together.chat",
//		Namespace:   "chat",
//		Description: "Chat traffic of one watch-together session",
//		Pattern:     "chat/{sessionId}",
//		Example:     "chat/42",
//		Tracked:     true,
//	})
//
//	manager := topicmgr.Default()
//	manager.MustRegister(Chat)
//
// A concrete key is matched back to its family with Manager.Match, which the
// websocket transport uses to reject keys no family accepts.
package topicmgr
