package main

import (
	"fmt"

	"github.com/seagrayinc/bfble/internal/config"
	"github.com/seagrayinc/bfble/internal/transport"
)

func openTransport(cfg config.Config) (transport.Transport, error) {
	tc := cfg.Transport
	opts := transport.StreamOptions{EventBuffer: cfg.Protocol.EventBuffer}

	switch tc.Kind {
	case config.KindSerial:
		timeout, err := cfg.ReadTimeout()
		if err != nil {
			return nil, err
		}
		return transport.OpenSerial(transport.SerialConfig{
			Port:        tc.Device,
			BaudRate:    tc.BaudRate,
			ReadTimeout: timeout,
		}, opts)

	case config.KindHID:
		return transport.OpenHID(transport.USBConfig{
			VendorID:  tc.VendorID,
			ProductID: tc.ProductID,
			ReportID:  tc.ReportID,
			ReportLen: tc.ReportLen,
		}, opts)

	case config.KindUSB:
		return transport.OpenUSB(transport.USBConfig{
			VendorID:  tc.VendorID,
			ProductID: tc.ProductID,
		}, opts)

	case config.KindSim:
		latency, err := cfg.Latency()
		if err != nil {
			return nil, err
		}
		policy, err := cfg.Checksum()
		if err != nil {
			return nil, err
		}
		return transport.NewSim(transport.SimOptions{
			MTU:      tc.MTU,
			Latency:  latency,
			Checksum: policy,
		}), nil
	}
	return nil, fmt.Errorf("unknown transport kind %q", tc.Kind)
}
