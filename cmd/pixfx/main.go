package main

import "github.com/MeKo-Tech/pixfx/internal/cmd"

func main() {
	cmd.Execute()
}
