package main

import "github.com/klytics/sheetagent/cmd"

func main() {
	cmd.Execute()
}
