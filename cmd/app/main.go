package main

import (
	"context"
	"fmt"
	"os"

	"ridelink/internal/config"
	"ridelink/internal/mylogger"
	rideservice "ridelink/internal/ride-service"
)

func main() {
	cfg, err := config.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	mylog, err := mylogger.New(cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}

	if err := rideservice.Execute(context.Background(), mylog, cfg); err != nil {
		mylog.Action("service_exit").Error("service terminated with error", err)
		os.Exit(1)
	}
}
