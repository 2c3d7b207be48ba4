package main

import "github.com/ironrep/coach/cmd"

func main() {
	cmd.Execute()
}
