package main

import (
	"log"

	"github.com/conexio/leadrouter/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
