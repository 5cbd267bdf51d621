package main

import "github.com/jfmyers9/amzn/cmd"

func main() {
	cmd.Execute()
}
