package ledger

// EventType names the structured records emitted by successful mutations.
type EventType string

const (
	EventPostCreated      EventType = "post-created"
	EventPostLiked        EventType = "post-liked"
	EventPostUnliked      EventType = "post-unliked"
	EventContractPaused   EventType = "contract-paused"
	EventContractUnpaused EventType = "contract-unpaused"
)

// Event is the record a successful mutating call hands to the host for
// delivery. Exactly one is produced per successful mutation, none on failure.
type Event struct {
	Type       EventType      `json:"type"`
	PostID     PostID         `json:"post_id,omitempty"`
	Creator    Principal      `json:"creator,omitempty"`
	User       Principal      `json:"user,omitempty"`
	ContentRef string         `json:"content_ref,omitempty"`
	Timestamp  SequenceNumber `json:"timestamp,omitempty"`
}

func newPostCreatedEvent(id PostID, creator Principal, contentRef string, ts SequenceNumber) *Event {
	return &Event{
		Type:       EventPostCreated,
		PostID:     id,
		Creator:    creator,
		ContentRef: contentRef,
		Timestamp:  ts,
	}
}

func newPostLikedEvent(id PostID, user Principal) *Event {
	return &Event{Type: EventPostLiked, PostID: id, User: user}
}

func newPostUnlikedEvent(id PostID, user Principal) *Event {
	return &Event{Type: EventPostUnliked, PostID: id, User: user}
}

func newPauseEvent(t EventType) *Event {
	return &Event{Type: t}
}
