package main

import "github.com/strrl/distcurve/internal/cmd"

func main() {
	cmd.Execute()
}
