package duotext

const (
	// Name is the application name.
	Name = "duotext"

	// Description is a short description of the application.
	Description = "Bilingual field annotation with hidden, recoverable originals"

	// Repository is the source code repository URL.
	Repository = "https://github.com/ZaguanLabs/duotext"

	// License is the software license.
	License = "MIT"
)

// Build information, set with ldflags:
//
//	go build -ldflags "-X github.com/ZaguanLabs/duotext.Version=1.0.0 -X github.com/ZaguanLabs/duotext.GitCommit=$(git rev-parse HEAD)"
var (
	// Version is the semantic version of the application.
	Version = "0.1.0"

	// GitCommit is the git commit hash.
	GitCommit = "unknown"

	// BuildDate is the build timestamp.
	BuildDate = "unknown"
)

// FullVersion returns the version with a short commit suffix when known.
func FullVersion() string {
	v := Version
	if GitCommit != "unknown" && GitCommit != "" {
		short := GitCommit
		if len(short) > 7 {
			short = short[:7]
		}
		v += "+" + short
	}
	return v
}

// UserAgent returns the name/version pair sent in HTTP headers.
func UserAgent() string {
	return Name + "/" + FullVersion()
}
