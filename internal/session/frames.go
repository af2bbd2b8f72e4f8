package session

// Server to client frame types.
const (
	FrameRender   = "render"
	FrameStatus   = "status"
	FrameComposer = "composer"
	FrameModal    = "modal"
	FrameError    = "error"
)

// DOM targets the browser client knows about.
const (
	TargetUsers    = "users-panel"
	TargetServers  = "servers-panel"
	TargetChannels = "channels-panel"
	TargetMessages = "messages-panel"

	TargetServerSidebar  = "server-sidebar"
	TargetChannelList    = "channels-list"
	TargetChatMessages   = "messages-container"
	TargetServerName     = "current-server-name"
	TargetChannelName    = "current-channel-name"
	TargetChannelKindTag = "channel-type-icon"
)

type RenderFrame struct {
	Target string `json:"target"`
	HTML   string `json:"html"`
}

type StatusFrame struct {
	Text  string `json:"text"`
	Level string `json:"level"`
}

type ComposerFrame struct {
	Enabled bool `json:"enabled"`
	Clear   bool `json:"clear"`
}

type ModalFrame struct {
	Token string `json:"token"`
	HTML  string `json:"html"`
}

type ErrorFrame struct {
	Error string `json:"error"`
}

// Outbox delivers frames to the browser. Implemented by the websocket client.
type Outbox interface {
	Push(frameType string, data interface{}) error
}
