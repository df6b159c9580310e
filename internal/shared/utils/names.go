package utils

import (
	"crypto/rand"
	"math/big"
	"regexp"
	"strings"
)

const (
	// NameChars defines the characters used for generated names
	NameChars = "abcdefghijklmnopqrstuvwxyz0123456789"
	// DefaultNameLength is the length of generated session names
	DefaultNameLength = 6
)

var nameRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]{0,62}$`)

// GenerateName generates a random lowercase name
func GenerateName(length int) string {
	if length <= 0 {
		length = DefaultNameLength
	}

	result := make([]byte, length)
	charsLen := big.NewInt(int64(len(NameChars)))

	for i := 0; i < length; i++ {
		num, err := rand.Int(rand.Reader, charsLen)
		if err != nil {
			result[i] = NameChars[i%len(NameChars)]
			continue
		}
		result[i] = NameChars[num.Int64()]
	}

	return string(result)
}

// ValidateName checks a prototype or session name from configuration
func ValidateName(name string) bool {
	return nameRegex.MatchString(name)
}

// IsReserved reports names taken by the layout and holding nodes
func IsReserved(name string) bool {
	switch strings.ToLower(name) {
	case "pool", "content", "start padding", "end padding", "start-padding", "end-padding":
		return true
	}
	return false
}
