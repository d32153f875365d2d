package main

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
)

// genkey prints a random ops API token and its SHA-256
func main() {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	token := "ops_" + hex.EncodeToString(buf)
	hash := sha256.Sum256([]byte(token))

	fmt.Printf("OPS_API_TOKEN=%s\nSHA256=%s\n", token, hex.EncodeToString(hash[:]))
}
