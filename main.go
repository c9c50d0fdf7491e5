package main

import "github.com/notargets/godd/cmd"

func main() {
	cmd.Execute()
}
