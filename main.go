package main

import "actionlog/cmd"

func main() {
	cmd.Execute()
}
