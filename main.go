package main

import "github.com/Rocket457/identificar-e-formatar-queries/cmd"

func main() {
	cmd.Execute()
}
