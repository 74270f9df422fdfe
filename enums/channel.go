package enums

type Channel string

const (
	ChannelInvalid Channel = ""

	ChannelTelegram Channel = "telegram"
	ChannelDiscord  Channel = "discord"
	ChannelSlack    Channel = "slack"
)

func (c Channel) Valid() bool {
	switch c {
	case ChannelTelegram, ChannelDiscord, ChannelSlack:
		return true
	}
	return false
}
