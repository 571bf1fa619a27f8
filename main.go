package main

import "github.com/kozaktomas/photobooth/cmd"

func main() {
	cmd.Execute()
}
