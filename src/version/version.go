package version

// Version is overridden at build time with -ldflags "-X webstack-optimizer/src/version.Version=...".
var Version = "dev"
