// cmd/keygen/main.go
package main

import (
	"fmt"
	"log"

	"xrpl-wallet-bot/internal/security"
)

func main() {
	key, err := security.GenerateMasterKey()
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("==============================================")
	fmt.Println("Generated AES-256 seed encryption key:")
	fmt.Println("==============================================")
	fmt.Println(key)
	fmt.Println("==============================================")
	fmt.Println("Add this to your .env file as:")
	fmt.Println("ENCRYPTION_KEY=" + key)
	fmt.Println("==============================================")
	fmt.Println("⚠️  Losing this key makes every stored seed unrecoverable.")
	fmt.Println("⚠️  DO NOT COMMIT TO VERSION CONTROL!")
	fmt.Println("==============================================")
}
