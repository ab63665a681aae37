package main

import (
	"log"

	"github.com/joho/godotenv"
)

func main() {
	// A local .env is optional.
	_ = godotenv.Load()

	if err := newRootCommand().Execute(); err != nil {
		log.Fatal(err)
	}
}
