package restapi

import (
	"net/http"

	"jizdninerad.cz/internal/buildinfo"
	"jizdninerad.cz/internal/departures"
	"jizdninerad.cz/internal/models"
)

func (api *RestAPI) configHandler(w http.ResponseWriter, r *http.Request) {
	buildProps := models.BuildProperties{
		Version:        buildinfo.Version,
		BuildTime:      buildinfo.BuildTime,
		Branch:         buildinfo.Branch,
		CommitId:       buildinfo.CommitHash,
		CommitIdAbbrev: buildinfo.ShortHash(),
	}

	configEntry := models.ConfigModel{
		BuildProperties: buildProps,
		Name:            api.Config.Title,
		Timezone:        api.Zone().String(),
		DefaultStops:    api.DefaultStops(),
		MinutesAfter:    departures.MinutesAfter,
		Limit:           departures.Limit,
	}

	api.sendResponse(w, r, models.NewOKResponse(configEntry, api.Clock))
}
