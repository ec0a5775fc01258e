package main

import "task-archive-system.com/task-archive-system/cmd"

func main() {
	cmd.Execute()
}
