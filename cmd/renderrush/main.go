package main

import (
	_ "renderrush/internal/command/bench"
	_ "renderrush/internal/command/history"
	_ "renderrush/internal/command/probe"
	"renderrush/internal/command/root"
	_ "renderrush/internal/command/run"
)

func main() {
	root.Execute()
}
