package main

import "github.com/minniel/slack-history/cmd"

func main() {
	cmd.Execute()
}
