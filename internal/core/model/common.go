package model

// PageSize is the number of messages requested per page. A page shorter than
// this marks the end of the channel history.
const PageSize = 100

// DefaultBaseURL is the REST API root used when none is configured.
const DefaultBaseURL = "https://discord.com/api/v9"
