package main

import "github.com/oshokin/par-builder/cmd/par-compiler/cmd"

func main() {
	cmd.Execute()
}
