package fleet

// Version is the client library version, reported to the API through the
// User-Agent and X-Fleet-Client headers.
const Version = "1.1.0"
