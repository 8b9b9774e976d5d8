package main

import "github.com/andresmejia3/fargo/cmd"

func main() {
	cmd.Execute()
}
