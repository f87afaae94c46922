package datautils

import "github.com/mitchcodes/datautils/id"

// ID is the identifier type used for jobs, subscribers and messages.
type ID = id.ID
