// Package buildinfo carries values injected at link time, e.g.
//
//	go build -ldflags "-X jizdninerad.cz/internal/buildinfo.Version=v1.2.0"
package buildinfo

var (
	Version    = "dev"
	CommitHash = ""
	BuildTime  = ""
	Branch     = ""
)

// ShortHash returns the first seven characters of CommitHash, or "unknown".
func ShortHash() string {
	if len(CommitHash) >= 7 {
		return CommitHash[:7]
	}
	return "unknown"
}
