// Package tapo is the entry point for talking to devices.
//
// A Client holds the account credentials and the transport shared by every
// device it connects to. Each connect call performs a handshake and returns
// a typed handle that owns its own session:
//
//	client, err := tapo.NewClient(tapo.Config{Username: user, Password: pass})
//	plug, err := client.PlugEnergyMonitoring(ctx, "192.168.1.20")
//	defer plug.Close()
//	usage, err := plug.EnergyUsage(ctx)
//
// Handles for different devices are independent and may be used in
// parallel. Calls on one handle are serialized.
//
// Discover scans the network and yields results that connect through the
// same Client:
//
//	stream, err := client.Discover(ctx, "255.255.255.255", 5*time.Second)
//	for result, err := range stream.All() {
//		if err != nil {
//			continue
//		}
//		dev, err := result.Connect(ctx)
//		...
//	}
package tapo
