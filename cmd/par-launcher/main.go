package main

import "github.com/oshokin/par-builder/cmd/par-launcher/cmd"

func main() {
	cmd.Execute()
}
