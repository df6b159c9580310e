package utils

import (
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"time"
)

// GenerateID generates a random 32 character hex ID for sessions
func GenerateID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return fallbackID(32)
	}
	return hex.EncodeToString(b)
}

// GenerateShortID generates an 8 character hex ID
func GenerateShortID() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return fallbackID(8)
	}
	return hex.EncodeToString(b)
}

func fallbackID(n int) string {
	id := hex.EncodeToString([]byte(strconv.FormatInt(time.Now().UnixNano(), 16)))
	for len(id) < n {
		id += id
	}
	return id[:n]
}
