package store

import "fmt"

// Key layout matches the one the service has always used: job metadata and
// results live under separate prefixes so they can expire independently.

func jobKey(id string) string {
	return fmt.Sprintf("job:%s", id)
}

func resultKey(id string) string {
	return fmt.Sprintf("result:%s", id)
}

const jobKeyPattern = "job:*"
