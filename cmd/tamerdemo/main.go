// data-tamer: in-process telemetry snapshotter
// Ported from PickNikRobotics/data_tamer
// SPDX-License-Identifier: BSD-3-Clause

// Command tamerdemo is furniture for manually exercising the data-tamer
// library: it creates one channel, registers a handful of LoggedValues,
// wires the file/counter/bus sinks, and calls TakeSnapshot on a ticker.
// It carries none of the library's invariants and is not part of the
// specified core.
package main

import (
	"fmt"
	"math"
	"net/http"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/PickNikRobotics/data-tamer"
	"github.com/PickNikRobotics/data-tamer/sinks/bus"
	"github.com/PickNikRobotics/data-tamer/sinks/counter"
	"github.com/PickNikRobotics/data-tamer/sinks/file"
)

var cli struct {
	ChannelName string        `help:"Name of the demo channel." default:"demo"`
	OutFile     string        `help:"Path of the file sink's log." default:"tamerdemo.log"`
	MetricsAddr string        `help:"Listen address for /metrics and the bus WebSocket." default:":9321"`
	Period      time.Duration `help:"Snapshot period." default:"100ms"`
	Iterations  int           `help:"Number of snapshots to take before exiting (0 = forever)." default:"50"`
}

func main() {
	kong.Parse(&cli, kong.Description("Manually exercise the data-tamer library."))

	log := tamer.NewProductionLogger()
	ch := tamer.NewLogChannel(cli.ChannelName, nil)
	ch.SetLogger(log)

	fileSink, err := file.New(cli.OutFile, false, 1024, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "tamerdemo:", err)
		os.Exit(1)
	}
	defer fileSink.Close()

	counterSink, err := counter.New(prometheus.DefaultRegisterer, 1024, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "tamerdemo:", err)
		os.Exit(1)
	}

	busSink := bus.New(1024, log)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/ws", busSink)
	go http.ListenAndServe(cli.MetricsAddr, mux)

	ch.AddSink(fileSink)
	ch.AddSink(counterSink)
	ch.AddSink(busSink)

	counterVal, err := tamer.AddLoggedValue[int32](ch, "counter")
	if err != nil {
		fmt.Fprintln(os.Stderr, "tamerdemo:", err)
		os.Exit(1)
	}
	sineVal, err := tamer.AddLoggedValue[float64](ch, "sine_wave")
	if err != nil {
		fmt.Fprintln(os.Stderr, "tamerdemo:", err)
		os.Exit(1)
	}

	ticker := time.NewTicker(cli.Period)
	defer ticker.Stop()

	var n int
	start := time.Now()
	for range ticker.C {
		n++
		counterVal.Set(int32(n), true)
		sineVal.Set(math.Sin(float64(n)/10), true)

		ch.TakeSnapshot(time.Since(start))

		if cli.Iterations > 0 && n >= cli.Iterations {
			return
		}
	}
}
