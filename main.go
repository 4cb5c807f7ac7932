package main

import (
	"os"

	"github.com/Onboard360/Onboard360/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
