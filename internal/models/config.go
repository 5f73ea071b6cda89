package models

// BuildProperties describes the running binary.
type BuildProperties struct {
	Version        string `json:"build.version"`
	BuildTime      string `json:"build.time"`
	Branch         string `json:"git.branch"`
	CommitId       string `json:"git.commit.id"`
	CommitIdAbbrev string `json:"git.commit.id.abbrev"`
}

// ConfigModel is what /api/config.json reports to clients building their
// own query forms.
type ConfigModel struct {
	BuildProperties BuildProperties `json:"buildProperties"`
	Name            string          `json:"name"`
	Timezone        string          `json:"timezone"`
	DefaultStops    []string        `json:"defaultStops"`
	MinutesAfter    int             `json:"minutesAfter"`
	Limit           int             `json:"limit"`
}
