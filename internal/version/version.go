package version

// AppVersion is overridden at build time via
// -ldflags "-X lazycloud/internal/version.AppVersion=v1.2.3".
var AppVersion = "dev"
