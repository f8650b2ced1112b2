package main

import "gatekeeper_backend/internal/app"

func main() {
	app.Run()
}
