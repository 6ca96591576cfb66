package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// hashKey returns "kind:<sha256>" over the JSON encoding of parts. Struct
// fields encode in declaration order, so equal options give equal keys.
func hashKey(kind string, parts ...any) string {
	data, err := json.Marshal(parts)
	if err != nil {
		// Options are plain structs; an unencodable value still gets a
		// stable, if coarse, key.
		data = []byte(err.Error())
	}
	return kind + ":" + Hash(data)
}

// Hash returns the hex SHA-256 of data. Callers hash node files with it to
// build layout keys.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
