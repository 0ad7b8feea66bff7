// Package roundtrip decides which re-scan attempt (round trip) of a
// digitized newspaper batch is the approved one.
//
// A round trip is approved when it is the highest-numbered round trip that
// passed manual QA (carries a Manual_QA_Flagged event). Older round trips are
// rejected as superseded; newer ones are rejected as premature and receive a
// permanent Manual_Stopped event.
//
// The root package wires the event store, the approver and the processor
// from a single Config:
//
//	cfg, _ := roundtrip.LoadConfig(ctx, "file:///etc/rtapprover/config.yaml")
//	srv, _ := roundtrip.New(ctx, roundtrip.WithConfig(cfg))
//	defer srv.Close()
//	notification, _ := srv.Approve(ctx, "400022028241", 2)
package roundtrip
