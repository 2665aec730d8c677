package main

import (
	"crypto/md5"
	"fmt"
)

// contentChecksum fingerprints paste content. Used to skip version snapshots
// when an edit did not actually change the content; not a security hash.
func contentChecksum(content string) string {
	sum := md5.Sum([]byte(content))
	return fmt.Sprintf("%x", sum)
}
