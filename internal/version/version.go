package version

// Version is the current version of usbstatus.
// Bump it for every release that changes behaviour; use semantic versioning.
const Version = "0.3.0"
