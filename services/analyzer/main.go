package main

import "github.com/stoik/lure/services/analyzer/internal/app"

func main() {
	app.Execute()
}
