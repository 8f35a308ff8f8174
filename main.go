package main

import "apiary/cmd"

func main() {
	cmd.Execute()
}
