package chat

// Reconcile merges locally pending messages into a server message list.
//
// A pending entry survives only while the server has no confirmed message of
// the same role after the entry's anchor (the last confirmed message at the
// time it was created). Matching is by role because local ids never equal
// server ids; this relies on at most one outstanding exchange per session,
// which the single-flight send guarantees.
//
// The result is sorted by creation time. remaining is the number of pending
// entries still unconfirmed.
func Reconcile(server, pending []Message) (merged []Message, remaining int) {
	kept := unconfirmed(server, pending)
	merged = make([]Message, 0, len(server)+len(kept))
	merged = append(merged, server...)
	merged = append(merged, kept...)
	sortMessages(merged)
	return merged, len(kept)
}

// unconfirmed returns the local entries the server has not confirmed yet.
func unconfirmed(server, local []Message) []Message {
	var kept []Message
	for _, m := range local {
		if !hasRoleAfter(server, m.After, m.Role) {
			kept = append(kept, m)
		}
	}
	return kept
}

// hasRoleAfter reports whether server contains a message of role positioned
// after the message with id anchor. An empty or unknown anchor covers the
// whole list.
func hasRoleAfter(server []Message, anchor string, role Role) bool {
	start := 0
	if anchor != "" {
		for i, m := range server {
			if m.ID == anchor {
				start = i + 1
				break
			}
		}
	}
	for _, m := range server[start:] {
		if m.Role == role {
			return true
		}
	}
	return false
}
