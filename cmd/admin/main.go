package main

import (
	"os"

	"gatekeeper_backend/internal/app"
)

func main() {
	os.Exit(app.RunAdmin(os.Args[1:]))
}
