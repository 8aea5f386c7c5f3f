/*
qmaze generates perfect mazes and trains a tabular Q-learning agent to find its way from
the entrance to the exit. Training runs headless or behind a small live view that pushes
the value function, greedy policy and progress to the browser over a websocket.
*/
package main

import (
	"fmt"
	"os"

	"qmaze/commands"
)

func main() {
	rootCommand := commands.GetRootCommand()
	if err := rootCommand.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
