package main

import "github.com/Selami79/rubber-ds/cmd"

func main() {
	cmd.Execute()
}
