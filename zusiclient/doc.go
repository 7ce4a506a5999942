// Package zusiclient implements the connection manager of a Zusi 3 driver's desk client.
//
// A Client owns two goroutines. The driver steps through the connection phases
//
//	Closed -> Open -> Hello -> AckHello -> NeededData -> AckNeeded -> Operation
//
// advancing one phase per tick, and the reader drains the socket into the codec. Any
// failure moves the phase to Dispose; the driver then joins the reader, closes the
// transport, returns to Closed and reconnects after a cooldown.
//
// Example:
//
//	client, err := zusiclient.NewClient(ctx, "Fahrpult", "1.0", nil,
//	    zusiclient.WithReconnectDelay(2*time.Second),
//	)
//	if err != nil {
//	    return err
//	}
//
//	speed := &zusi.Float{}
//	_ = client.AddNeededData(zusi.SubgroupCabDisplay, zusi.IDSpeed, speed)
//
//	if err := client.Start(&net.Dialer{}, "127.0.0.1", 1436); err != nil {
//	    return err
//	}
//	defer client.Stop()
//
// Status and Phase can be polled from any goroutine. Phase changes are reported in order
// to the handlers registered with WithPhaseChangeHandler.
package zusiclient
