package devenv

// PandaTestConfig is read from dev/.state/panda_config.json5 by tests that talk
// to the real portal, they skip themselves when it does not exist.
type PandaTestConfig struct {
	BaseUrl  string `json:"base_url" validate:"required,url"`
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	// a keyword expected to match at least one of the account's sites
	SiteKeyword string `json:"site_keyword"`
}
