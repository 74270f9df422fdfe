package enums

type Platform string

const (
	PlatformInvalid Platform = ""

	// PlatformDanggeun is 당근마켓, scraped through the shared browser session.
	PlatformDanggeun Platform = "danggeun"

	// PlatformBunjang is 번개장터, searched through its JSON API.
	PlatformBunjang Platform = "bunjang"

	// PlatformJoonggonara is 중고나라 (Naver cafe), searched through the shared browser.
	PlatformJoonggonara Platform = "joonggonara"
)

func (p Platform) Valid() bool {
	switch p {
	case PlatformDanggeun, PlatformBunjang, PlatformJoonggonara:
		return true
	}
	return false
}

func AllPlatforms() []Platform {
	return []Platform{PlatformDanggeun, PlatformBunjang, PlatformJoonggonara}
}
