package version

// Version is set at build time via -ldflags "-X github.com/brightloom/pointsminer/internal/version.Version=..."
var Version = "dev"

// RepoURL is the project's repository URL
const RepoURL = "https://github.com/brightloom/pointsminer"
