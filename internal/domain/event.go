package domain

// EventKind names a fact reported by the authority or an intent raised locally
type EventKind string

// Facts reported by the authority
const (
	EventSpawned                  EventKind = "spawned"
	EventDidNavigate              EventKind = "did-navigate"
	EventWillNavigate             EventKind = "will-navigate"
	EventWillNavigateSameDocument EventKind = "will-navigate-same-document"
	EventBackConfirmed            EventKind = "back-confirmed"
	EventForwardConfirmed         EventKind = "forward-confirmed"
	EventViewportClosed           EventKind = "viewport-closed"
	EventActiveChanged            EventKind = "active-changed"
)

// Local intents
const (
	EventRequestBack    EventKind = "request-back"
	EventRequestForward EventKind = "request-forward"
	EventCancelRequest  EventKind = "cancel-request"
	EventForgetNode     EventKind = "forget-node"
)

// IsRequest reports whether the kind is a navigation request from the user
func (k EventKind) IsRequest() bool {
	return k == EventRequestBack || k == EventRequestForward
}

// Event is the single envelope for everything the engine consumes.
// Only the fields relevant to Kind are set.
type Event struct {
	Kind     EventKind  `json:"kind"`
	Viewport ViewportID `json:"viewport,omitempty"`
	Sender   ViewportID `json:"sender,omitempty"`
	URL      string     `json:"url,omitempty"`
	Scroll   float64    `json:"scroll,omitempty"`
	Target   NodeID     `json:"target,omitempty"`
}

func Spawned(sender, viewport ViewportID, url string) Event {
	return Event{Kind: EventSpawned, Sender: sender, Viewport: viewport, URL: url}
}

func DidNavigate(viewport ViewportID, url string) Event {
	return Event{Kind: EventDidNavigate, Viewport: viewport, URL: url}
}

func WillNavigate(viewport ViewportID, url string) Event {
	return Event{Kind: EventWillNavigate, Viewport: viewport, URL: url}
}

func WillNavigateSameDocument(viewport ViewportID, url string, scroll float64) Event {
	return Event{Kind: EventWillNavigateSameDocument, Viewport: viewport, URL: url, Scroll: scroll}
}

func BackConfirmed(viewport ViewportID) Event {
	return Event{Kind: EventBackConfirmed, Viewport: viewport}
}

func ForwardConfirmed(viewport ViewportID, url string) Event {
	return Event{Kind: EventForwardConfirmed, Viewport: viewport, URL: url}
}

func ViewportClosed(viewport ViewportID) Event {
	return Event{Kind: EventViewportClosed, Viewport: viewport}
}

func ActiveChanged(viewport ViewportID) Event {
	return Event{Kind: EventActiveChanged, Viewport: viewport}
}

// RequestBack asks to move viewport (the active one when empty) back to target
func RequestBack(viewport ViewportID, target NodeID) Event {
	return Event{Kind: EventRequestBack, Viewport: viewport, Target: target}
}

// RequestForward asks to move viewport (the active one when empty) forward to target
func RequestForward(viewport ViewportID, target NodeID) Event {
	return Event{Kind: EventRequestForward, Viewport: viewport, Target: target}
}

func CancelRequest(viewport ViewportID) Event {
	return Event{Kind: EventCancelRequest, Viewport: viewport}
}

func ForgetNode(target NodeID) Event {
	return Event{Kind: EventForgetNode, Target: target}
}

// CommandKind names an instruction sent to the authority
type CommandKind string

const (
	CommandPerformBack      CommandKind = "perform-back"
	CommandPerformForward   CommandKind = "perform-forward"
	CommandActivateViewport CommandKind = "activate-viewport"
)

// Command is the wire form of an instruction for the authority
type Command struct {
	Kind     CommandKind `json:"kind"`
	Viewport ViewportID  `json:"viewport"`
	URL      string      `json:"url,omitempty"`
	Node     *Node       `json:"node,omitempty"`
}
