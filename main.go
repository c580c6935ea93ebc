package main

import "github.com/olilarkin/windowjs/cmd"

func main() {
	cmd.Execute()
}
