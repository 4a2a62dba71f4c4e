package domain

// CommunitySettings is the reference row describing a known community
// (tenant) in config.community_settings.
type CommunitySettings struct {
	ID             int64  `json:"id"`
	CommunityName  string `json:"community_name"`
	CityName       string `json:"city_name"`
	TerritoryTitle string `json:"territory_title"`
}
