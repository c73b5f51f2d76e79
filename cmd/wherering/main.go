package main

import "github.com/oshokin/wherering/cmd/wherering/cmd"

func main() {
	cmd.Execute()
}
