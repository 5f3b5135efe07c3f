package main

import "github.com/ansel1/annotate/cmd"

func main() {
	cmd.Main()
}
