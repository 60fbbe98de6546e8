package main

import (
	"flag"
	"log"
	_ "net/http/pprof" // register the /debug/pprof handlers
)

var (
	diFlag      = flag.String("di", "manual", "dependency wiring: manual | dig")
	storageFlag = flag.String("storage", "postgres", "storage backend: postgres | memory")
)

func main() {
	flag.Parse()

	switch *diFlag {
	case "manual":
		startManual(*storageFlag)
	case "dig":
		startWithDig(*storageFlag)
	default:
		log.Fatalf("unknown -di value %q", *diFlag)
	}
}
