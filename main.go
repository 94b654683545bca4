package main

import "pingwatch/cmd"

func main() {
	cmd.Execute()
}
