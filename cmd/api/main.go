package main

import "github.com/voxlane/voxlane/app"

func main() {
	app.New(nil).Run()
}
