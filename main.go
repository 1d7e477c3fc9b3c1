package main

import "github.com/KaramelBytes/postlens/cmd"

func main() {
	cmd.Execute()
}
