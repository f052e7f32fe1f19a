package main

import "lesson-sync/cmd"

func main() {
	cmd.Execute()
}
