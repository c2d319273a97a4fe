package main

import "github.com/KaramelBytes/profitscope/cmd"

func main() {
	cmd.Execute()
}
