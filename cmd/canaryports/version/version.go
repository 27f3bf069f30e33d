package version

// GitVersion is set at build time with -ldflags "-X".
var GitVersion = "v0.0.0-dev"
