package dto

type CreateServerForm struct {
	ServerName  string `form:"server_name" binding:"max=50"`
	ChannelName string `form:"channel_name" binding:"max=30"`
}
