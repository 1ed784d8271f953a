package main

// Exit codes shared by all commands.
const (
	ExitSuccess   = 0 // Success
	ExitError     = 1 // General error (invalid arguments, runtime failure)
	ExitFileError = 2 // Invalid input file (missing or wrong extension)
	ExitDataError = 3 // Data error (malformed bibliography, bad config)
)
