package main

import (
	"flag"

	"projecthub/internal/tracker"
)

func main() {
	confPath := flag.String("config", ".env", "path to the environment config file")
	flag.Parse()

	tracker.InitAndServe(*confPath)
}
