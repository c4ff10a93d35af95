package main

import (
	"log"
	"os"

	"wgdash/config"
	"wgdash/server"
)

func main() {
	// wg-quick, iptables и netlink требуют root
	if os.Geteuid() != 0 {
		log.Fatal("wgdash must be run as root")
	}
	cfg := config.MustLoad()
	app := &server.App{}
	app.Initialize(cfg)
	if err := app.Run(); err != nil {
		log.Fatal(err)
	}
}
