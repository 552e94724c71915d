package main

import "earshot/cmd"

func main() {
	cmd.Execute()
}
