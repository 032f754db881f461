package main

import "github.com/nfrund/together/cmd/together-cli/cmd"

func main() {
	cmd.Execute()
}
