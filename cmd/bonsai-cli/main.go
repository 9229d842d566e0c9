package main

import "bonsai/cmd/bonsai-cli/cmd"

func main() {
	cmd.Execute()
}
