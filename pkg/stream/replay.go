package stream

import (
	"bufio"
	"io"
	"time"

	"fleetdeck/pkg/telemetry"
)

// Replay reads line-delimited JSON envelopes from r and delivers them to
// onEnvelope in order, skipping lines that do not parse. It is the offline
// counterpart to Client for demos and tests; it returns when r is exhausted.
func Replay(r io.Reader, onEnvelope func(telemetry.Envelope)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		env, err := telemetry.ParseEnvelope(line, time.Now())
		if err != nil {
			continue // skip malformed frames, same as the live transport
		}
		onEnvelope(env)
	}
	return scanner.Err()
}
