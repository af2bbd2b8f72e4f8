package session

type ServerRef struct {
	ID   string
	Name string
}

type ChannelRef struct {
	ID   string
	Name string
	Kind string
}

// Selection is the active server and channel of a chat view. A selected
// channel always belongs to the selected server.
type Selection struct {
	server  *ServerRef
	channel *ChannelRef
}

// SelectServer returns false when id is already selected. Otherwise the
// channel selection is cleared and the caller must reload the channels.
func (s *Selection) SelectServer(id, name string) bool {
	if s.server != nil && s.server.ID == id {
		return false
	}
	s.server = &ServerRef{ID: id, Name: name}
	s.channel = nil
	return true
}

// SelectChannel returns false when id is already selected or no server is.
func (s *Selection) SelectChannel(id, name, kind string) bool {
	if s.server == nil {
		return false
	}
	if s.channel != nil && s.channel.ID == id {
		return false
	}
	s.channel = &ChannelRef{ID: id, Name: name, Kind: kind}
	return true
}

func (s *Selection) Server() (ServerRef, bool) {
	if s.server == nil {
		return ServerRef{}, false
	}
	return *s.server, true
}

func (s *Selection) Channel() (ChannelRef, bool) {
	if s.channel == nil {
		return ChannelRef{}, false
	}
	return *s.channel, true
}

// RenameServer and RenameChannel follow updates of the selected rows
// without changing which rows are selected.
func (s *Selection) RenameServer(name string) {
	if s.server != nil {
		s.server.Name = name
	}
}

func (s *Selection) RenameChannel(name, kind string) {
	if s.channel != nil {
		s.channel.Name = name
		s.channel.Kind = kind
	}
}

func (s *Selection) ClearChannel() {
	s.channel = nil
}

func (s *Selection) Reset() {
	s.server = nil
	s.channel = nil
}
