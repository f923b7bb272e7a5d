package version

// Ver holds the version derived from the latest git tag. Set at build time with
// -ldflags "-X github.com/prebid/auction-core/version.Ver=..."
var Ver string

// Rev holds the binary's git commit hash, set at build time the same way as Ver.
var Rev string
