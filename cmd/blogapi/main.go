package main

import "github.com/terraconstructs/blogapi/cmd/blogapi/cmd"

func main() {
	cmd.Execute()
}
